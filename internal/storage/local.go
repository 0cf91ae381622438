package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Local Filesystem Storage
// =============================================================================

// LocalStorage stores objects on the local filesystem under a base directory.
// Intended for development; production deployments use R2.
type LocalStorage struct {
	basePath string
	baseURL  string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates a filesystem-backed store rooted at cfg.BasePath.
// The base directory is created if it doesn't exist.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("local storage: base path is required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("local storage: resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create base directory: %w", err)
	}

	return &LocalStorage{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Put writes data to a file under the base directory.
// Writes go to a temp file first, then rename, so readers never see a
// partially written object.
func (s *LocalStorage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return &StorageError{Op: "put", Key: key, Err: ErrKeyExists}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	reader := data
	if opts.MaxSize > 0 {
		reader = io.LimitReader(data, opts.MaxSize+1)
	}

	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	if opts.MaxSize > 0 && written > opts.MaxSize {
		return &StorageError{Op: "put", Key: key, Err: ErrTooLarge}
	}

	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Get opens the file at key and returns its contents and metadata.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	path, err := s.resolvePath(key)
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: ErrNotFound}
		}
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	info := ObjectInfo{
		Key:          key,
		Size:         stat.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(path)),
		LastModified: stat.ModTime(),
	}
	return f, info, nil
}

// Delete removes the file at key. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// URL returns the public URL for the object. Local storage has no presigning,
// so expires is ignored.
func (s *LocalStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", &StorageError{Op: "url", Key: key, Err: err}
	}
	return s.baseURL + "/" + key, nil
}

// Exists reports whether a file exists at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolvePath(key)
	if err != nil {
		return false, &StorageError{Op: "exists", Key: key, Err: err}
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &StorageError{Op: "exists", Key: key, Err: err}
}

// =============================================================================
// Path Safety
// =============================================================================

// resolvePath converts a storage key to an absolute filesystem path,
// rejecting keys that would escape the base directory.
func (s *LocalStorage) resolvePath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

// validateKey rejects empty, absolute, and traversal-containing keys.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

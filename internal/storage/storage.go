// Package storage provides file storage abstraction for blog cover images.
//
// Two implementations:
// - LocalStorage: filesystem storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for file storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key exists and overwrite is disabled.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key.
	// The caller must close the returned reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object: a permanent URL for public
	// objects, otherwise a presigned URL valid for the given duration.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type. Auto-detected when empty.
	ContentType string

	// MaxSize is the maximum allowed size in bytes; 0 means no limit.
	// Oversized data returns ErrTooLarge.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public marks the object publicly readable (R2 ACL; informational for
	// local storage).
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public URL on a custom domain. When empty,
	// presigned URLs are used for all access.
	PublicURL string

	// Region is required by the AWS SDK; R2 accepts "auto".
	Region string
}

// Provider names accepted in STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// =============================================================================
// Key Generation Helpers
// =============================================================================

// CoverKey generates a storage key for a blog post cover image. The random
// segment makes every upload a fresh key, so CDN caches never serve a stale
// cover after replacement.
// Format: blog/{postID}/cover/{uuid}.{ext}
func CoverKey(postID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("blog/%s/cover/%s%s", postID, uuid.New(), ext)
}

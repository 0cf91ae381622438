package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/repository"
	"github.com/hivelabs/namehive/internal/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultBlogPageSize is the listing page size when none is requested.
	DefaultBlogPageSize = 20

	// MaxBlogPageSize caps the listing page size.
	MaxBlogPageSize = 100

	// coverURLTTL is how long presigned cover URLs stay valid.
	coverURLTTL = 24 * time.Hour
)

// =============================================================================
// Interface Definition
// =============================================================================

// ListBlogParams controls blog listing pagination and visibility.
type ListBlogParams struct {
	// IncludeDrafts lists unpublished posts. Admin surfaces only.
	IncludeDrafts bool
	Limit         int
	Offset        int
}

// BlogService manages blog articles and their cover images.
type BlogService interface {
	// Create publishes a new article. An empty slug is derived from the title.
	Create(ctx context.Context, params domain.BlogPostParams) (*domain.BlogPost, error)

	// GetBySlug fetches one article. Unpublished posts are only visible when
	// includeDrafts is set; otherwise they look like they don't exist.
	GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.BlogPost, error)

	// List returns articles newest first.
	List(ctx context.Context, params ListBlogParams) ([]domain.BlogPost, error)

	// Update replaces an article's editable fields. The slug is immutable.
	Update(ctx context.Context, slug string, params domain.BlogPostParams) (*domain.BlogPost, error)

	// UploadCover validates, resizes, and stores a cover image for the
	// article, replacing any previous cover.
	UploadCover(ctx context.Context, slug, filename string, data io.Reader) (*domain.BlogPost, error)

	// CoverURL resolves a post's cover image key to a servable URL.
	// Returns an empty string when the post has no cover.
	CoverURL(ctx context.Context, post *domain.BlogPost) (string, error)

	// Delete removes an article and its cover image.
	Delete(ctx context.Context, slug string) error
}

// =============================================================================
// Service Implementation
// =============================================================================

type blogService struct {
	queries    *repository.Queries
	store      storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewBlogService creates the blog service.
func NewBlogService(queries *repository.Queries, store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) BlogService {
	return &blogService{
		queries:    queries,
		store:      store,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

var _ BlogService = (*blogService)(nil)

func (s *blogService) Create(ctx context.Context, params domain.BlogPostParams) (*domain.BlogPost, error) {
	const op = "BlogService.Create"

	params, err := validateBlogParams(op, params)
	if err != nil {
		return nil, err
	}

	post, err := s.queries.CreateBlogPost(ctx, repository.CreateBlogPostParams{
		Slug:      params.Slug,
		Title:     params.Title,
		Summary:   params.Summary,
		Body:      params.Body,
		Tags:      pq.StringArray(params.Tags),
		Published: params.Published,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "An article with this slug already exists")
		}
		return nil, domain.Internal(err, op, "Failed to create article")
	}

	s.logger.Info("blog post created",
		"post_id", post.ID,
		"slug", post.Slug,
		"published", post.Published,
	)

	result := repoBlogPostToDomain(post)
	return &result, nil
}

func (s *blogService) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.BlogPost, error) {
	const op = "BlogService.GetBySlug"

	post, err := s.fetchBySlug(ctx, op, slug)
	if err != nil {
		return nil, err
	}

	// Drafts are hidden from the public surface, indistinguishable from
	// missing posts so slugs can't be probed before publication.
	if !post.Published && !includeDrafts {
		return nil, domain.NotFound(op, "Article", slug)
	}

	result := repoBlogPostToDomain(post)
	return &result, nil
}

func (s *blogService) List(ctx context.Context, params ListBlogParams) ([]domain.BlogPost, error) {
	const op = "BlogService.List"

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultBlogPageSize
	}
	if limit > MaxBlogPageSize {
		limit = MaxBlogPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	posts, err := s.queries.ListBlogPosts(ctx, repository.ListBlogPostsParams{
		PublishedOnly: !params.IncludeDrafts,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list articles")
	}

	result := make([]domain.BlogPost, 0, len(posts))
	for _, p := range posts {
		result = append(result, repoBlogPostToDomain(p))
	}
	return result, nil
}

func (s *blogService) Update(ctx context.Context, slug string, params domain.BlogPostParams) (*domain.BlogPost, error) {
	const op = "BlogService.Update"

	existing, err := s.fetchBySlug(ctx, op, slug)
	if err != nil {
		return nil, err
	}

	// The slug identifies the post and never changes, so any slug in the
	// incoming params is ignored.
	params.Slug = existing.Slug
	params, err = validateBlogParams(op, params)
	if err != nil {
		return nil, err
	}

	post, err := s.queries.UpdateBlogPost(ctx, repository.UpdateBlogPostParams{
		ID:        existing.ID,
		Title:     params.Title,
		Summary:   params.Summary,
		Body:      params.Body,
		Tags:      pq.StringArray(params.Tags),
		Published: params.Published,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update article")
	}

	s.logger.Info("blog post updated", "post_id", post.ID, "slug", post.Slug)

	result := repoBlogPostToDomain(post)
	return &result, nil
}

func (s *blogService) UploadCover(ctx context.Context, slug, filename string, data io.Reader) (*domain.BlogPost, error) {
	const op = "BlogService.UploadCover"

	post, err := s.fetchBySlug(ctx, op, slug)
	if err != nil {
		return nil, err
	}

	limited := io.LimitReader(data, domain.MaxCoverImageSize+1)
	contentType, reader, err := storage.DetectContentType(limited)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read upload")
	}
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, "Cover image must be a JPEG, PNG, GIF, or WebP file")
	}

	// Re-encoding through the resizer both bounds the stored size and
	// guarantees the bytes really are a decodable image.
	resized, width, height, err := s.thumbnails.GenerateThumbnail(reader, domain.CoverMaxWidth, domain.CoverMaxHeight)
	if err != nil {
		return nil, domain.Invalid(op, "Cover image could not be decoded")
	}

	key := storage.CoverKey(post.ID, "cover.jpg")
	err = s.store.Put(ctx, key, bytes.NewReader(resized), storage.PutOptions{
		ContentType: "image/jpeg",
		MaxSize:     domain.MaxCoverImageSize,
		Public:      true,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to store cover image")
	}

	previous := post.CoverImageKey
	if err := s.queries.SetBlogPostCover(ctx, repository.SetBlogPostCoverParams{
		ID:            post.ID,
		CoverImageKey: sql.NullString{String: key, Valid: true},
	}); err != nil {
		// Orphaned object cleanup, the DB row still points at the old cover.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned cover", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "Failed to save cover image")
	}

	if previous.Valid && previous.String != key {
		if err := s.store.Delete(ctx, previous.String); err != nil {
			s.logger.Warn("failed to delete previous cover", "key", previous.String, "error", err)
		}
	}

	s.logger.Info("cover image uploaded",
		"post_id", post.ID,
		"key", key,
		"original_width", width,
		"original_height", height,
	)

	post.CoverImageKey = sql.NullString{String: key, Valid: true}
	result := repoBlogPostToDomain(post)
	return &result, nil
}

func (s *blogService) CoverURL(ctx context.Context, post *domain.BlogPost) (string, error) {
	const op = "BlogService.CoverURL"

	if post.CoverImageKey == "" {
		return "", nil
	}
	url, err := s.store.URL(ctx, post.CoverImageKey, coverURLTTL)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to resolve cover image URL")
	}
	return url, nil
}

func (s *blogService) Delete(ctx context.Context, slug string) error {
	const op = "BlogService.Delete"

	post, err := s.fetchBySlug(ctx, op, slug)
	if err != nil {
		return err
	}

	affected, err := s.queries.DeleteBlogPost(ctx, post.ID)
	if err != nil {
		return domain.Internal(err, op, "Failed to delete article")
	}
	if affected == 0 {
		return domain.NotFound(op, "Article", slug)
	}

	if post.CoverImageKey.Valid {
		if err := s.store.Delete(ctx, post.CoverImageKey.String); err != nil {
			s.logger.Warn("failed to delete cover image", "key", post.CoverImageKey.String, "error", err)
		}
	}

	s.logger.Info("blog post deleted", "post_id", post.ID, "slug", slug)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func (s *blogService) fetchBySlug(ctx context.Context, op, slug string) (repository.BlogPost, error) {
	post, err := s.queries.GetBlogPostBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.BlogPost{}, domain.NotFound(op, "Article", slug)
		}
		return repository.BlogPost{}, domain.Internal(err, op, "Failed to fetch article")
	}
	return post, nil
}

// validateBlogParams normalizes and validates article input, deriving the
// slug from the title when absent.
func validateBlogParams(op string, params domain.BlogPostParams) (domain.BlogPostParams, error) {
	fields := map[string]string{}

	params.Title = strings.TrimSpace(params.Title)
	params.Summary = strings.TrimSpace(params.Summary)
	params.Slug = strings.ToLower(strings.TrimSpace(params.Slug))

	if params.Title == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(params.Body) == "" {
		fields["body"] = "Body is required"
	}

	if params.Slug == "" {
		params.Slug = domain.Slugify(params.Title)
	}
	if params.Slug == "" || !domain.ValidSlug(params.Slug) {
		fields["slug"] = "Slug must be lowercase letters, numbers, and hyphens"
	}

	tags := make([]string, 0, len(params.Tags))
	for _, t := range params.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	params.Tags = tags

	if len(fields) > 0 {
		return params, &domain.ValidationError{Op: op, Fields: fields}
	}
	return params, nil
}

func repoBlogPostToDomain(p repository.BlogPost) domain.BlogPost {
	post := domain.BlogPost{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Summary:   p.Summary,
		Body:      p.Body,
		Tags:      []string(p.Tags),
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.CoverImageKey.Valid {
		post.CoverImageKey = p.CoverImageKey.String
	}
	return post
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BlogPost is the database row for the blog_posts table.
type BlogPost struct {
	ID            uuid.UUID
	Slug          string
	Title         string
	Summary       string
	Body          string
	Tags          pq.StringArray
	CoverImageKey sql.NullString
	Published     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const blogColumns = `id, slug, title, summary, body, tags, cover_image_key, published, created_at, updated_at`

func scanBlogPost(row *sql.Row) (BlogPost, error) {
	var p BlogPost
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Body,
		&p.Tags, &p.CoverImageKey, &p.Published, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// CreateBlogPostParams holds input for CreateBlogPost.
type CreateBlogPostParams struct {
	Slug      string
	Title     string
	Summary   string
	Body      string
	Tags      pq.StringArray
	Published bool
}

// CreateBlogPost inserts a new article.
func (q *Queries) CreateBlogPost(ctx context.Context, arg CreateBlogPostParams) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO blog_posts (slug, title, summary, body, tags, published)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+blogColumns,
		arg.Slug, arg.Title, arg.Summary, arg.Body, arg.Tags, arg.Published,
	)
	return scanBlogPost(row)
}

// GetBlogPostBySlug fetches one article by slug.
func (q *Queries) GetBlogPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE slug = $1`, slug)
	return scanBlogPost(row)
}

// ListBlogPostsParams holds input for ListBlogPosts.
type ListBlogPostsParams struct {
	PublishedOnly bool
	Limit         int32
	Offset        int32
}

// ListBlogPosts returns articles newest first. PublishedOnly hides drafts
// for the public listing; the admin surface lists everything.
func (q *Queries) ListBlogPosts(ctx context.Context, arg ListBlogPostsParams) ([]BlogPost, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+blogColumns+`
FROM blog_posts
WHERE (NOT $1::boolean) OR published
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`,
		arg.PublishedOnly, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		var p BlogPost
		if err := rows.Scan(
			&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Body,
			&p.Tags, &p.CoverImageKey, &p.Published, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdateBlogPostParams holds input for UpdateBlogPost.
type UpdateBlogPostParams struct {
	ID        uuid.UUID
	Title     string
	Summary   string
	Body      string
	Tags      pq.StringArray
	Published bool
}

// UpdateBlogPost updates an article's editable fields. The slug is immutable
// so published URLs never break.
func (q *Queries) UpdateBlogPost(ctx context.Context, arg UpdateBlogPostParams) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE blog_posts
SET title = $2, summary = $3, body = $4, tags = $5, published = $6, updated_at = NOW()
WHERE id = $1
RETURNING `+blogColumns,
		arg.ID, arg.Title, arg.Summary, arg.Body, arg.Tags, arg.Published,
	)
	return scanBlogPost(row)
}

// SetBlogPostCoverParams holds input for SetBlogPostCover.
type SetBlogPostCoverParams struct {
	ID            uuid.UUID
	CoverImageKey sql.NullString
}

// SetBlogPostCover records the storage key of an uploaded cover image.
func (q *Queries) SetBlogPostCover(ctx context.Context, arg SetBlogPostCoverParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE blog_posts SET cover_image_key = $2, updated_at = NOW() WHERE id = $1`,
		arg.ID, arg.CoverImageKey,
	)
	return err
}

// DeleteBlogPost removes an article.
func (q *Queries) DeleteBlogPost(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

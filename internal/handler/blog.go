package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
)

// BlogHandler handles public blog reads and the admin editing surface.
//
// Routes handled:
// - GET    /api/blog
// - GET    /api/blog/{slug}
// - POST   /admin/blog
// - PUT    /admin/blog/{slug}
// - POST   /admin/blog/{slug}/cover
// - DELETE /admin/blog/{slug}
//
// The /admin routes must sit behind RequireAdmin middleware.
type BlogHandler struct {
	blog   service.BlogService
	logger *slog.Logger
}

// NewBlogHandler creates a BlogHandler.
func NewBlogHandler(blog service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blog: blog, logger: logger}
}

type blogPostResponse struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary,omitempty"`
	Body      string   `json:"body,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CoverURL  string   `json:"cover_url,omitempty"`
	Published bool     `json:"published"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func (h *BlogHandler) toResponse(r *http.Request, post *domain.BlogPost, includeBody bool) blogPostResponse {
	resp := blogPostResponse{
		ID:        post.ID.String(),
		Slug:      post.Slug,
		Title:     post.Title,
		Summary:   post.Summary,
		Tags:      post.Tags,
		Published: post.Published,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
	if includeBody {
		resp.Body = post.Body
	}

	if url, err := h.blog.CoverURL(r.Context(), post); err == nil {
		resp.CoverURL = url
	} else {
		h.logger.Warn("cover URL resolution failed", "slug", post.Slug, "error", err)
	}
	return resp
}

type blogPostRequest struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

// =============================================================================
// GET /api/blog
// =============================================================================

// List returns published articles, newest first. Admins can pass
// ?drafts=true to include unpublished posts.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	includeDrafts := h.adminWantsDrafts(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.blog.List(r.Context(), service.ListBlogParams{
		IncludeDrafts: includeDrafts,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]blogPostResponse, 0, len(posts))
	for i := range posts {
		// Listings omit the body; clients fetch it per article.
		items = append(items, h.toResponse(r, &posts[i], false))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": items})
}

// =============================================================================
// GET /api/blog/{slug}
// =============================================================================

// Get returns one article with its full body.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.GetBySlug(r.Context(), r.PathValue("slug"), h.adminWantsDrafts(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"post": h.toResponse(r, post, true)})
}

// =============================================================================
// POST /admin/blog
// =============================================================================

// Create publishes a new article.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req blogPostRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("BlogHandler.Create", "Invalid request body"))
		return
	}

	post, err := h.blog.Create(r.Context(), domain.BlogPostParams{
		Slug:      req.Slug,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"post": h.toResponse(r, post, true)})
}

// =============================================================================
// PUT /admin/blog/{slug}
// =============================================================================

// Update replaces an article's editable fields.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req blogPostRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("BlogHandler.Update", "Invalid request body"))
		return
	}

	post, err := h.blog.Update(r.Context(), r.PathValue("slug"), domain.BlogPostParams{
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"post": h.toResponse(r, post, true)})
}

// =============================================================================
// POST /admin/blog/{slug}/cover
// =============================================================================

// UploadCover accepts a multipart upload for the article's cover image.
func (h *BlogHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(domain.MaxCoverImageSize); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("BlogHandler.UploadCover", "Upload too large or malformed"))
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("BlogHandler.UploadCover", "Missing 'cover' file field"))
		return
	}
	defer file.Close()

	post, err := h.blog.UploadCover(r.Context(), r.PathValue("slug"), header.Filename, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"post": h.toResponse(r, post, false)})
}

// =============================================================================
// DELETE /admin/blog/{slug}
// =============================================================================

// Delete removes an article.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blog.Delete(r.Context(), r.PathValue("slug")); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// adminWantsDrafts reports whether an admin caller asked to see drafts.
// Non-admins never see drafts regardless of the query parameter.
func (h *BlogHandler) adminWantsDrafts(r *http.Request) bool {
	if r.URL.Query().Get("drafts") != "true" {
		return false
	}
	user := auth.GetUserFromRequest(r)
	return user != nil && user.IsAdmin
}

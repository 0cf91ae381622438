package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlogPost is an article managed by administrators. The body is stored as
// raw markdown source; rendering happens in the front-end.
type BlogPost struct {
	ID            uuid.UUID
	Slug          string
	Title         string
	Summary       string
	Body          string // markdown source, served as-is
	Tags          []string
	CoverImageKey string // storage key, empty when no cover image
	Published     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BlogPostParams contains validated input for creating or updating a post.
type BlogPostParams struct {
	Slug      string
	Title     string
	Summary   string
	Body      string
	Tags      []string
	Published bool
}

// Cover image constraints. Uploads are re-encoded to JPEG bounded by
// CoverMaxWidth x CoverMaxHeight before storage.
const (
	MaxCoverImageSize    = 10 << 20 // 10 MB upload limit
	CoverMaxWidth        = 1600
	CoverMaxHeight       = 900
	ThumbnailJPEGQuality = 85
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a lowercase-hyphenated URL slug.
func ValidSlug(s string) bool {
	return len(s) <= 120 && slugPattern.MatchString(s)
}

// Slugify derives a URL slug from a title: lowercase, non-alphanumerics
// collapsed to single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

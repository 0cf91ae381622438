package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation collapsed", "10 Tips: Naming Your Start-Up!", "10-tips-naming-your-start-up"},
		{"leading and trailing noise", "  --Why Names Matter--  ", "why-names-matter"},
		{"already a slug", "pet-name-ideas", "pet-name-ideas"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("hello-world"))
	assert.True(t, ValidSlug("a1-b2-c3"))
	assert.False(t, ValidSlug("Hello-World"))
	assert.False(t, ValidSlug("-leading"))
	assert.False(t, ValidSlug("trailing-"))
	assert.False(t, ValidSlug("double--hyphen"))
	assert.False(t, ValidSlug(""))
}

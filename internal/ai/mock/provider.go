// Package mock provides a name provider for development and tests. It
// combines word lists deterministically instead of calling an API, so the
// full request path works without credentials or network access.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/domain"
)

// Provider is a mock name provider for testing and development
type Provider struct {
	logger *slog.Logger
	titler cases.Caser

	// Configurable responses for testing
	GenerateNamesResponse *ai.Result
	GenerateNamesError    error

	// Call tracking for testing
	GenerateNamesCalls int
}

// New creates a new mock name provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
		titler: cases.Title(language.English),
	}
}

// Name identifies this provider in results and logs.
func (p *Provider) Name() string {
	return "mock"
}

var prefixes = []string{
	"nimbus", "ember", "quill", "vista", "lumen", "forge",
	"harbor", "atlas", "willow", "cobalt", "meadow", "onyx",
}

var suffixes = []string{
	"loop", "works", "den", "spark", "field", "crest",
	"byte", "grove", "pulse", "nook", "peak", "drift",
}

// GenerateNames combines keyword fragments with the word lists. The output
// is stable for a given request, which keeps tests deterministic.
func (p *Provider) GenerateNames(_ context.Context, params ai.GenerateParams) (*ai.Result, error) {
	p.GenerateNamesCalls++

	// If a custom response or error is set, use it
	if p.GenerateNamesError != nil {
		return nil, p.GenerateNamesError
	}
	if p.GenerateNamesResponse != nil {
		return p.GenerateNamesResponse, nil
	}

	seed := firstWord(params.Keywords)
	count := params.Count
	if count <= 0 {
		count = domain.DefaultSuggestionCount
	}

	suggestions := make([]domain.NameSuggestion, 0, count)
	for i := 0; i < count; i++ {
		prefix := prefixes[i%len(prefixes)]
		suffix := suffixes[(i+len(seed))%len(suffixes)]

		var name string
		if seed != "" && i%3 == 0 {
			name = p.titler.String(seed + " " + suffix)
		} else {
			name = p.titler.String(prefix + " " + suffix)
		}
		suggestions = append(suggestions, domain.NameSuggestion{
			Name:    name,
			Tagline: fmt.Sprintf("A %s name for your %s.", styleWord(params.Style), params.GeneratorType),
		})
	}

	return &ai.Result{
		Suggestions: suggestions,
		Usage: ai.UsageInfo{
			Model:    "mock-v1",
			Duration: 5 * time.Millisecond,
		},
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.GenerateNamesCalls = 0
	p.GenerateNamesResponse = nil
	p.GenerateNamesError = nil
}

func firstWord(keywords string) string {
	fields := strings.Fields(strings.ToLower(keywords))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func styleWord(style string) string {
	if style == "" {
		return "distinctive"
	}
	return strings.ToLower(style)
}

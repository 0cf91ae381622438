// Package domain contains core business types and interfaces.
//
// This file defines the name-generation request/result types shared between
// the generator service, the AI providers, and the API handlers.
package domain

import "strings"

// Known generator types. The set is open so new landing pages can launch
// without a server deploy; validation only requires a normalized slug.
const (
	GeneratorBusiness  = "business"
	GeneratorPet       = "pet"
	GeneratorPodcast   = "podcast"
	GeneratorFantasy   = "fantasy"
	GeneratorBand      = "band"
	GeneratorProduct   = "product"
	GeneratorStartup   = "startup"
	GeneratorCharacter = "character"
)

const (
	// DefaultSuggestionCount is how many names one generation returns when
	// the client does not ask for a specific count.
	DefaultSuggestionCount = 10

	// MaxSuggestionCount bounds a single generation. One generation event is
	// one ledger row regardless of count.
	MaxSuggestionCount = 25

	// MaxKeywordsLen bounds the free-text keyword input.
	MaxKeywordsLen = 200
)

// GenerateParams is a validated name-generation request.
type GenerateParams struct {
	GeneratorType string
	Keywords      string // free-text description of the thing being named
	Style         string // optional tone hint, e.g. "playful", "professional"
	Count         int
}

// NormalizeGeneratorType lowercases and trims a generator slug.
func NormalizeGeneratorType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NameSuggestion is a single generated name with its one-line pitch.
type NameSuggestion struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline,omitempty"`
}

// GenerationResult is what a generator call produces.
type GenerationResult struct {
	GeneratorType string           `json:"generator_type"`
	Suggestions   []NameSuggestion `json:"suggestions"`
	Provider      string           `json:"provider"` // "anthropic" or "mock"
}

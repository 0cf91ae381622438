package mock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/domain"
)

func testProvider() *Provider {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateNames(t *testing.T) {
	p := testProvider()

	result, err := p.GenerateNames(context.Background(), ai.GenerateParams{
		GeneratorType: domain.GeneratorStartup,
		Keywords:      "solar panel installer",
		Count:         10,
	})
	require.NoError(t, err)
	assert.Len(t, result.Suggestions, 10)
	assert.Equal(t, 1, p.GenerateNamesCalls)

	for _, s := range result.Suggestions {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Tagline)
	}

	// Keyword-seeded names surface in the list, title-cased.
	assert.Contains(t, result.Suggestions[0].Name, "Solar")
}

func TestGenerateNamesDeterministic(t *testing.T) {
	p := testProvider()
	params := ai.GenerateParams{GeneratorType: domain.GeneratorPet, Keywords: "orange cat", Count: 5}

	first, err := p.GenerateNames(context.Background(), params)
	require.NoError(t, err)
	second, err := p.GenerateNames(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first.Suggestions, second.Suggestions)
}

func TestGenerateNamesDefaultCount(t *testing.T) {
	p := testProvider()
	result, err := p.GenerateNames(context.Background(), ai.GenerateParams{GeneratorType: domain.GeneratorBand})
	require.NoError(t, err)
	assert.Len(t, result.Suggestions, domain.DefaultSuggestionCount)
}

func TestConfigurableError(t *testing.T) {
	p := testProvider()
	p.GenerateNamesError = errors.New("boom")

	_, err := p.GenerateNames(context.Background(), ai.GenerateParams{GeneratorType: domain.GeneratorPet})
	require.Error(t, err)

	p.Reset()
	assert.Equal(t, 0, p.GenerateNamesCalls)
	_, err = p.GenerateNames(context.Background(), ai.GenerateParams{GeneratorType: domain.GeneratorPet})
	require.NoError(t, err)
}

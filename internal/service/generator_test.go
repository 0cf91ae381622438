package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelabs/namehive/internal/ai/mock"
	"github.com/hivelabs/namehive/internal/domain"
)

func testGenerator(t *testing.T) (GeneratorService, *mock.Provider, *entitlementService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entitlement, _, _ := testEntitlement(t, LedgerErrorAllow)
	provider := mock.New(logger)
	return NewGeneratorService(entitlement, provider, logger), provider, entitlement
}

func TestGenerate(t *testing.T) {
	svc, provider, _ := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_ggggggg")

	result, status, err := svc.Generate(context.Background(), caller, domain.GenerateParams{
		GeneratorType: "Business ",
		Keywords:      "artisan bakery",
		Count:         5,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.GeneratorBusiness, result.GeneratorType, "type is normalized")
	assert.Len(t, result.Suggestions, 5)
	assert.Equal(t, "mock", result.Provider)
	assert.Equal(t, 1, provider.GenerateNamesCalls)

	require.NotNil(t, status)
	assert.Equal(t, 1, status.Used)
	assert.Equal(t, 2, status.Remaining)
}

func TestGenerateValidation(t *testing.T) {
	svc, provider, _ := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_hhhhhhh")

	tests := []struct {
		name   string
		params domain.GenerateParams
		field  string
	}{
		{"missing type", domain.GenerateParams{Keywords: "x"}, "generator_type"},
		{"keywords too long", domain.GenerateParams{GeneratorType: "pet", Keywords: strings.Repeat("a", domain.MaxKeywordsLen+1)}, "keywords"},
		{"negative count", domain.GenerateParams{GeneratorType: "pet", Count: -1}, "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Generate(context.Background(), caller, tt.params)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	// Invalid requests never reach the provider or burn quota.
	assert.Equal(t, 0, provider.GenerateNamesCalls)
}

func TestGenerateCountClamping(t *testing.T) {
	svc, provider, _ := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_iiiiiii")

	result, _, err := svc.Generate(context.Background(), caller, domain.GenerateParams{
		GeneratorType: domain.GeneratorFantasy,
		Count:         100,
	})
	require.NoError(t, err)
	assert.Len(t, result.Suggestions, domain.MaxSuggestionCount)
	assert.Equal(t, 1, provider.GenerateNamesCalls)

	result, _, err = svc.Generate(context.Background(), caller, domain.GenerateParams{
		GeneratorType: domain.GeneratorFantasy,
	})
	require.NoError(t, err)
	assert.Len(t, result.Suggestions, domain.DefaultSuggestionCount)
}

func TestGenerateDeniedWhenQuotaExhausted(t *testing.T) {
	svc, provider, _ := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_jjjjjjj")
	ctx := context.Background()

	for i := 0; i < domain.AllowanceAnonymous; i++ {
		_, _, err := svc.Generate(ctx, caller, domain.GenerateParams{GeneratorType: domain.GeneratorPet, Count: 1})
		require.NoError(t, err)
	}

	_, _, err := svc.Generate(ctx, caller, domain.GenerateParams{GeneratorType: domain.GeneratorPet, Count: 1})
	require.Error(t, err)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	assert.Equal(t, domain.AllowanceAnonymous, provider.GenerateNamesCalls, "denied request must not reach the provider")
}

func TestGenerateProviderFailureBurnsQuota(t *testing.T) {
	svc, provider, entitlement := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_kkkkkkk")
	provider.GenerateNamesError = errors.New("upstream down")

	_, _, err := svc.Generate(context.Background(), caller, domain.GenerateParams{GeneratorType: domain.GeneratorBand, Count: 1})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	// The ledger event was written before the provider call failed.
	status := entitlement.Status(context.Background(), caller)
	assert.Equal(t, 1, status.Used)
}

func TestGenerateOneEventRegardlessOfCount(t *testing.T) {
	svc, _, entitlement := testGenerator(t)
	caller := domain.AnonymousCaller("anon_1756300000000_lllllll")

	_, _, err := svc.Generate(context.Background(), caller, domain.GenerateParams{
		GeneratorType: domain.GeneratorStartup,
		Count:         domain.MaxSuggestionCount,
	})
	require.NoError(t, err)

	status := entitlement.Status(context.Background(), caller)
	assert.Equal(t, 1, status.Used)
}

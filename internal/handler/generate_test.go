package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
)

// stubGenerator implements service.GeneratorService.
type stubGenerator struct {
	result *domain.GenerationResult
	quota  *domain.QuotaStatus
	err    error

	lastCaller domain.Caller
	lastParams domain.GenerateParams
}

func (s *stubGenerator) Generate(ctx context.Context, caller domain.Caller, params domain.GenerateParams) (*domain.GenerationResult, *domain.QuotaStatus, error) {
	s.lastCaller = caller
	s.lastParams = params
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.result, s.quota, nil
}

// stubEntitlement implements service.EntitlementService.
type stubEntitlement struct {
	status domain.QuotaStatus
}

func (s *stubEntitlement) ResolveCaller(user *domain.User, pseudoID string) domain.Caller {
	if user != nil {
		return domain.AccountCaller(user)
	}
	return domain.AnonymousCaller(pseudoID)
}

func (s *stubEntitlement) TryConsume(ctx context.Context, caller domain.Caller, generatorType string, properties json.RawMessage) (*domain.QuotaStatus, error) {
	return &s.status, nil
}

func (s *stubEntitlement) Status(ctx context.Context, caller domain.Caller) domain.QuotaStatus {
	return s.status
}

func (s *stubEntitlement) SweepAnonymousDays(ctx context.Context) (int, error) {
	return 0, nil
}

func visitorRequest(method, target, body, pseudoID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.SetVisitorID(req.Context(), pseudoID))
}

func TestGenerateHandler_Generate(t *testing.T) {
	gen := &stubGenerator{
		result: &domain.GenerationResult{
			GeneratorType: domain.GeneratorBusiness,
			Suggestions: []domain.NameSuggestion{
				{Name: "Hivemind Labs", Tagline: "Ideas that swarm"},
			},
			Provider: "mock",
		},
		quota: &domain.QuotaStatus{Tier: domain.TierAnonymous, Allowance: 3, Used: 1, Remaining: 2},
	}
	h := NewGenerateHandler(gen, &stubEntitlement{}, discardLogger())

	req := visitorRequest(http.MethodPost, "/api/generate",
		`{"generator_type":"business","keywords":"bees, ideas"}`, "anon_123_abcdefg")
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Result domain.GenerationResult `json:"result"`
		Quota  domain.QuotaStatus      `json:"quota"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Hivemind Labs", body.Result.Suggestions[0].Name)
	assert.Equal(t, 2, body.Quota.Remaining)

	// The visitor pseudo-ID from the context becomes the caller identity.
	assert.Equal(t, domain.TierAnonymous, gen.lastCaller.Tier)
	assert.Equal(t, "anon_123_abcdefg", gen.lastCaller.PseudoID)
	assert.Equal(t, "bees, ideas", gen.lastParams.Keywords)
}

func TestGenerateHandler_GenerateQuotaExceeded(t *testing.T) {
	gen := &stubGenerator{
		err: domain.QuotaExceeded("EntitlementService.TryConsume", domain.TierFree, 15, 15),
	}
	h := NewGenerateHandler(gen, &stubEntitlement{}, discardLogger())

	req := visitorRequest(http.MethodPost, "/api/generate",
		`{"generator_type":"pet","keywords":"fluffy"}`, "anon_123_abcdefg")
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upgrade")
}

func TestGenerateHandler_GenerateBadBody(t *testing.T) {
	h := NewGenerateHandler(&stubGenerator{}, &stubEntitlement{}, discardLogger())

	req := visitorRequest(http.MethodPost, "/api/generate", `{"generator_type":`, "anon_123_abcdefg")
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHandler_Quota(t *testing.T) {
	ent := &stubEntitlement{
		status: domain.QuotaStatus{Tier: domain.TierPremium, Allowance: 750, Used: 10, Remaining: 740},
	}
	h := NewGenerateHandler(&stubGenerator{}, ent, discardLogger())

	req := visitorRequest(http.MethodGet, "/api/quota", "", "anon_123_abcdefg")
	rec := httptest.NewRecorder()
	h.Quota(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Quota domain.QuotaStatus `json:"quota"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 740, body.Quota.Remaining)
}

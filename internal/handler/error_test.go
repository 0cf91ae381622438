package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelabs/namehive/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, ErrorCodeToHTTPStatus(tt.code), "code %s", tt.code)
	}
}

func TestErrorResponse_QuotaExceeded(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)

	err := domain.QuotaExceeded("EntitlementService.TryConsume", domain.TierAnonymous, 3, 3)
	ErrorResponse(rec, req, discardLogger(), err)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EPAYMENT, body.Error.Code)
	assert.Contains(t, body.Error.Message, "Upgrade")
	assert.Contains(t, body.Error.Message, "3 of 3")
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)

	err := &domain.ValidationError{
		Op: "GeneratorService.Generate",
		Fields: map[string]string{
			"keywords": "Keywords are required",
		},
	}
	ErrorResponse(rec, req, discardLogger(), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "Keywords are required", body.Error.Fields["keywords"])
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)

	err := domain.Internal(errors.New("pq: connection refused"), "EntitlementService.Status", "Usage ledger unavailable")
	ErrorResponse(rec, req, discardLogger(), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

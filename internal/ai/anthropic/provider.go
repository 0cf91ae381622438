// Package anthropic implements the name provider against Anthropic's
// Messages API over plain HTTP.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/repository"
)

const (
	// APIBaseURL is the base URL for the Anthropic API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default Claude model to use
	DefaultModel = "claude-3-5-haiku-20241022"

	// Pricing in cents per 1M tokens for claude-3-5-haiku
	PricingInputCents  = 80  // $0.80 per 1M input tokens
	PricingOutputCents = 400 // $4 per 1M output tokens
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the NameProvider interface using Anthropic's Claude API
type Provider struct {
	config  Config
	baseURL string
	client  *http.Client
	queries *repository.Queries
	logger  *slog.Logger
}

// New creates a new Anthropic name provider
func New(config Config, queries *repository.Queries, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 30 * time.Second
	}

	return &Provider{
		config:  config,
		baseURL: APIBaseURL,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		queries: queries,
		logger:  logger,
	}, nil
}

// Name identifies this provider in results and logs.
func (p *Provider) Name() string {
	return "anthropic"
}

// GenerateNames asks Claude for name suggestions and parses the JSON it
// returns. Transient API failures are retried with exponential backoff.
func (p *Provider) GenerateNames(ctx context.Context, params ai.GenerateParams) (*ai.Result, error) {
	startTime := time.Now()

	bodyBytes, err := p.buildRequestBody(params)
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	var resp *apiResponse
	backoff := retry.WithMaxRetries(
		uint64(p.config.ProviderConfig.MaxRetries),
		retry.NewExponential(p.config.ProviderConfig.RetryBaseDelay),
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := p.executeRequest(ctx, bodyBytes)
		if err != nil {
			if ai.IsRetryable(err) {
				p.logger.Info("Retrying AI request", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	suggestions, err := p.parseSuggestions(resp, params.Count)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	result := &ai.Result{
		Suggestions: suggestions,
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CostCents:    p.calculateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
			Duration:     time.Since(startTime),
		},
	}

	if err := p.trackUsage(ctx, params, result.Usage); err != nil {
		// Log but don't fail the request
		p.logger.Error("Failed to track AI usage", "error", err)
	}

	return result, nil
}

// buildRequestBody marshals the Messages API request for one generation.
func (p *Provider) buildRequestBody(params ai.GenerateParams) ([]byte, error) {
	reqBody := apiRequest{
		Model:     p.config.Model,
		MaxTokens: 1024,
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContent{
					{
						Type: "text",
						Text: buildNamePrompt(params),
					},
				},
			},
		},
	}
	return json.Marshal(reqBody)
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(ctx context.Context, body []byte) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to domain errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout:
		return ai.EAITimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// parseSuggestions extracts the suggestion list from the completion text.
// The prompt asks for bare JSON but models sometimes wrap it in code fences
// or preamble, so the parser finds the outermost object first.
func (p *Provider) parseSuggestions(resp *apiResponse, count int) ([]domain.NameSuggestion, error) {
	var textContent string
	for _, content := range resp.Content {
		if content.Type == "text" {
			textContent = content.Text
			break
		}
	}
	if textContent == "" {
		return nil, fmt.Errorf("%w: no text content", ai.EAIBadOutput)
	}

	start := strings.Index(textContent, "{")
	end := strings.LastIndex(textContent, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in completion", ai.EAIBadOutput)
	}

	var output suggestionsOutput
	if err := json.Unmarshal([]byte(textContent[start:end+1]), &output); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.EAIBadOutput, err)
	}
	if len(output.Suggestions) == 0 {
		return nil, fmt.Errorf("%w: empty suggestion list", ai.EAIBadOutput)
	}

	suggestions := make([]domain.NameSuggestion, 0, len(output.Suggestions))
	for _, s := range output.Suggestions {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		suggestions = append(suggestions, domain.NameSuggestion{
			Name:    name,
			Tagline: strings.TrimSpace(s.Tagline),
		})
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: all suggestions blank", ai.EAIBadOutput)
	}
	if count > 0 && len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

// calculateCost calculates the cost in cents for the given token usage
func (p *Provider) calculateCost(inputTokens, outputTokens int) int {
	inputCost := (inputTokens * PricingInputCents) / 1_000_000
	outputCost := (outputTokens * PricingOutputCents) / 1_000_000
	return inputCost + outputCost
}

// trackUsage records provider usage in the database. A nil queries handle
// disables tracking.
func (p *Provider) trackUsage(ctx context.Context, params ai.GenerateParams, usage ai.UsageInfo) error {
	if p.queries == nil {
		return nil
	}
	_, err := p.queries.CreateAIUsage(ctx, repository.CreateAIUsageParams{
		UserID:        params.UserID,
		Model:         usage.Model,
		GeneratorType: params.GeneratorType,
		InputTokens:   int32(usage.InputTokens),
		OutputTokens:  int32(usage.OutputTokens),
		CostCents:     int32(usage.CostCents),
	})
	return err
}

// API request/response types

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []apiContentOutput `json:"content"`
	Model   string             `json:"model"`
	Usage   apiUsage           `json:"usage"`
}

type apiContentOutput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// suggestionsOutput represents the JSON structure returned by Claude
type suggestionsOutput struct {
	Suggestions []outputSuggestion `json:"suggestions"`
}

type outputSuggestion struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"valhalla-backend/internal/config"
	"valhalla-backend/internal/models"
	"valhalla-backend/internal/retry"
)

const (
	vertexScope      = "https://www.googleapis.com/auth/cloud-platform"
	anthropicVersion = "vertex-2023-10-16"

	// Provider limits for generation options.
	maxTokensLimit = 8192
)

// ClaudeService forwards chat turns to a Claude model hosted on Vertex AI
// over the Anthropic Messages REST format. One instance is shared by all
// requests; the running stats are the only mutable state.
type ClaudeService struct {
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	baseURL     string
	projectID   string
	region      string
	model       string
	maxTokens   int
	temperature float64
	policy      retry.Policy

	mu    sync.Mutex
	stats models.GatewayStats
}

func NewClaudeService(cfg *config.Config) (*ClaudeService, error) {
	ts, err := google.DefaultTokenSource(context.Background(), vertexScope)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("no Google credentials available: %v", err)}
	}

	baseURL := cfg.VertexEndpoint
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.GCPRegion)
	}

	return newClaudeService(baseURL, ts, cfg), nil
}

// newClaudeService wires an explicit endpoint and token source; tests use it
// with an httptest server and a static token.
func newClaudeService(baseURL string, ts oauth2.TokenSource, cfg *config.Config) *ClaudeService {
	return &ClaudeService{
		httpClient:  &http.Client{},
		tokenSource: ts,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		projectID:   cfg.GCPProjectID,
		region:      cfg.GCPRegion,
		model:       cfg.ClaudeModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		policy: retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Classify:    isTransient,
		},
	}
}

// Anthropic Messages wire format. Vertex variants carry the version inside
// the body and the model in the URL instead of a "model" field.
type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	Messages         []anthropicMessage `json:"messages"`
	System           string             `json:"system,omitempty"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      anthropicUsage `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicAPIError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat turn. The caller windows history; nothing is
// truncated here. On success the returned usage record has model, token,
// cost and latency fields filled in; project and action are the caller's.
func (s *ClaudeService) Complete(ctx context.Context, system string, history []models.ChatMessage, opts *models.ChatOptions) (string, *models.UsageRecord, error) {
	maxTokens := s.maxTokens
	temperature := s.temperature
	if opts != nil {
		if opts.MaxTokens != 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature != 0 {
			temperature = opts.Temperature
		}
	}
	if maxTokens < 1 || maxTokens > maxTokensLimit {
		return "", nil, &InvalidOptionsError{Message: fmt.Sprintf("max_tokens must be in 1..%d, got %d", maxTokensLimit, maxTokens)}
	}
	if temperature < 0 || temperature > 1 {
		return "", nil, &InvalidOptionsError{Message: fmt.Sprintf("temperature must be in 0..1, got %g", temperature)}
	}

	wireMsgs, err := buildWireMessages(history)
	if err != nil {
		return "", nil, err
	}

	payload, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		Messages:         wireMsgs,
		System:           system,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode request: %w", err)
	}

	start := time.Now()
	attempt := 0
	var out anthropicResponse

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		attempt++
		resp, reqErr := s.doRequest(ctx, payload)
		if reqErr != nil {
			log.Printf("Claude call failed (attempt %d/%d): %v", attempt, s.policy.MaxAttempts, reqErr)
			return reqErr
		}
		out = *resp
		return nil
	})
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", nil, &TransientError{Message: "model call did not complete before the deadline"}
		}
		return "", nil, err
	}

	text := joinTextBlocks(out.Content)
	inputTokens := out.Usage.InputTokens
	outputTokens := out.Usage.OutputTokens
	if inputTokens == 0 && outputTokens == 0 {
		inputTokens = estimatePromptTokens(system, history)
		outputTokens = models.EstimateTokens(text)
	}

	rec := &models.UsageRecord{
		Model:         s.model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		EstimatedCost: models.EstimateCost(inputTokens, outputTokens),
		LatencyMS:     latency.Milliseconds(),
		Timestamp:     time.Now().UTC(),
	}
	s.recordCall(rec)

	return text, rec, nil
}

// doRequest performs one HTTP exchange and maps the outcome onto the error
// taxonomy. Transport failures and retryable statuses come back as
// TransientError so the retry policy can tell them from terminal ones.
func (s *ClaudeService) doRequest(ctx context.Context, payload []byte) (*anthropicResponse, error) {
	token, err := s.tokenSource.Token()
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("failed to obtain access token: %v", err)}
	}

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/anthropic/models/%s:rawPredict",
		s.baseURL, s.projectID, s.region, s.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransientError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &TransientError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := upstreamMessage(body, resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{Message: message}
		case isRetryableStatus(resp.StatusCode):
			return nil, &TransientError{Message: message, Status: resp.StatusCode}
		default:
			return nil, &UpstreamError{Message: message, Status: resp.StatusCode}
		}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed provider response: %v", err), Status: resp.StatusCode}
	}
	return &parsed, nil
}

// HealthCheck sends a minimal prompt with a single attempt. It never touches
// conversation state and its cost is negligible.
func (s *ClaudeService) HealthCheck(ctx context.Context) models.GatewayHealth {
	payload, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		Messages:         []anthropicMessage{{Role: "user", Content: "Respond with just 'OK'"}},
		MaxTokens:        10,
		Temperature:      0,
	})
	if err != nil {
		return models.GatewayHealth{Model: s.model, Detail: err.Error()}
	}

	start := time.Now()
	_, err = s.doRequest(ctx, payload)
	latency := time.Since(start).Milliseconds()

	health := models.GatewayHealth{Healthy: err == nil, LatencyMS: latency, Model: s.model}
	if err != nil {
		health.Detail = err.Error()
	}
	return health
}

// Stats returns a copy of the running tally.
func (s *ClaudeService) Stats() models.GatewayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *ClaudeService) ResetStats() {
	s.mu.Lock()
	s.stats = models.GatewayStats{}
	s.mu.Unlock()
}

func (s *ClaudeService) recordCall(rec *models.UsageRecord) {
	s.mu.Lock()
	s.stats.TotalRequests++
	s.stats.TotalCost += rec.EstimatedCost
	s.stats.LastRequestCost = rec.EstimatedCost
	s.stats.LastLatencyMS = rec.LatencyMS
	s.mu.Unlock()
}

// Helper functions

// buildWireMessages validates roles and merges consecutive same-role
// messages; the provider rejects sequences that do not alternate strictly.
func buildWireMessages(history []models.ChatMessage) ([]anthropicMessage, error) {
	if len(history) == 0 {
		return nil, &InvalidOptionsError{Message: "at least one message is required"}
	}

	var out []anthropicMessage
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			return nil, &InvalidOptionsError{Message: fmt.Sprintf("invalid message role %q", m.Role)}
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == m.Role {
			out[len(out)-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	if len(out) == 0 {
		return nil, &InvalidOptionsError{Message: "message content is empty"}
	}
	if out[len(out)-1].Role != "user" {
		return nil, &InvalidOptionsError{Message: "last message must be from the user"}
	}
	return out, nil
}

func joinTextBlocks(blocks []contentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

func estimatePromptTokens(system string, history []models.ChatMessage) int {
	total := models.EstimateTokens(system)
	for _, m := range history {
		total += models.EstimateTokens(m.Content)
	}
	return total
}

func upstreamMessage(body []byte, status int) string {
	var apiErr anthropicAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Sprintf("provider error (HTTP %d): %s", status, apiErr.Error.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d)", status)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, 529:
		return true
	}
	return status >= 500
}

func isTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// BuildSystemPrompt composes the assistant persona with the project context
// so every turn is grounded in the project the user selected. Metadata keys
// are sorted to keep prompts deterministic.
func BuildSystemPrompt(project *models.Project) string {
	var b strings.Builder

	b.WriteString("You are a pragmatic assistant for a small engineering team. ")
	b.WriteString("Answer concisely and concretely, grounded in the project context below. ")
	b.WriteString("Say so plainly when the context does not cover a question.\n")

	if project != nil {
		b.WriteString("\nProject context:\n")
		fmt.Fprintf(&b, "- name: %s\n", project.Name)
		if project.Status != "" {
			fmt.Fprintf(&b, "- status: %s\n", project.Status)
		}
		if project.Description != "" {
			fmt.Fprintf(&b, "- description: %s\n", project.Description)
		}

		keys := make([]string, 0, len(project.Metadata))
		for k := range project.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, project.Metadata[k])
		}
	}

	return b.String()
}

// Gateway errors
type AuthError struct{ Message string }

func (e *AuthError) Error() string { return e.Message }

type InvalidOptionsError struct{ Message string }

func (e *InvalidOptionsError) Error() string { return e.Message }

type TransientError struct {
	Message string
	Status  int
}

func (e *TransientError) Error() string { return e.Message }

type UpstreamError struct {
	Message string
	Status  int
}

func (e *UpstreamError) Error() string { return e.Message }

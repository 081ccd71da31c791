package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"agentteam/internal/domain"
	"agentteam/internal/infra/tracer"
)

// maxResponseBody is the maximum response body size we read from LLM APIs.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// doJSONRequest performs a JSON POST request and returns the response body.
// It handles: create request, set headers, execute, read body (with limit),
// and check HTTP status code. Returns a *domain.TransportError for non-2xx
// responses.
func doJSONRequest(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, mapHTTPError(httpResp.StatusCode, respBody, url)
	}

	return respBody, nil
}

// doStreamRequest performs a JSON POST request for a streamed response.
// It returns the open *http.Response (caller must close Body).
// Returns a *domain.TransportError for non-2xx responses.
func doStreamRequest(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, mapHTTPError(httpResp.StatusCode, respBody, url)
	}

	return httpResp, nil
}

// logChatCompleted logs the standard debug message after a successful chat.
func logChatCompleted(logger *slog.Logger, provider Provider, result *domain.ChatResult) {
	tokens := 0
	if result.Usage != nil {
		tokens = result.Usage.TotalTokens
	}
	logger.Debug("llm chat completed",
		"provider", provider,
		"model", result.Model,
		"tokens", tokens,
	)
}

// setUsageAttrs adds token usage attributes to a trace span.
func setUsageAttrs(span trace.Span, usage *domain.Usage) {
	if usage == nil {
		return
	}
	span.SetAttributes(
		tracer.IntAttr("llm.prompt_tokens", usage.PromptTokens),
		tracer.IntAttr("llm.completion_tokens", usage.CompletionTokens),
	)
}

// mapHTTPError maps an HTTP status code + response body to a TransportError
// wrapping the matching category sentinel, so callers and the circuit
// breaker can classify provider failures with errors.Is.
func mapHTTPError(statusCode int, body []byte, endpoint string) error {
	terr := &domain.TransportError{
		Status:   statusCode,
		Body:     string(body),
		Endpoint: endpoint,
	}

	switch {
	case statusCode == http.StatusTooManyRequests: // 429
		terr.Err = domain.ErrRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden: // 401, 403
		terr.Err = domain.ErrAuthInvalid
	case statusCode == http.StatusRequestEntityTooLarge: // 413
		terr.Err = domain.ErrContextOverflow
	case statusCode >= 500: // 500, 502, 503, etc.
		terr.Err = domain.ErrUpstream
	}
	return terr
}

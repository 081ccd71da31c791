package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"agentteam/internal/domain"
	"agentteam/internal/infra/tracer"
)

// connectivityProbe is the minimal prompt sent by TestConnection.
const connectivityProbe = "Hi"

// Chatter is the caller-facing surface of the adapter. *Service implements
// it directly; CircuitBreakerChatter decorates it.
type Chatter interface {
	Chat(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (*domain.ChatResult, error)
	ChatStream(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamChunk, error)
	TestConnection(ctx context.Context, cfg Config) domain.TestResult
}

// Service performs chat calls against any supported provider. It holds no
// per-call state: the provider configuration arrives with each call and the
// only shared members are the HTTP client and logger.
type Service struct {
	client *http.Client
	logger *slog.Logger
}

// NewService builds a Service. A nil client gets the pooled default; a nil
// logger falls back to slog.Default.
func NewService(client *http.Client, logger *slog.Logger) *Service {
	if client == nil {
		client = NewHTTPClient(0, 0, PooledTransportConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Chat sends one non-streaming chat request and returns the normalized
// result. Configuration problems (unknown provider, missing key, missing
// endpoint) are rejected before any network I/O.
func (s *Service) Chat(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (*domain.ChatResult, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat", trace.WithAttributes(
		tracer.StringAttr("llm.provider", string(cfg.Provider)),
		tracer.StringAttr("llm.model", cfg.Model),
	))
	defer span.End()

	d, endpoint, err := checkCall("llm.Chat", cfg)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	headers, body, err := BuildRequest(cfg, msgs, opts, false)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("llm.Chat", err)
	}

	respBody, err := doJSONRequest(ctx, s.client, endpoint, body, headers)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("llm.Chat", err)
	}

	result, err := d.parse(respBody)
	if err != nil {
		perr := fmt.Errorf("%w: provider %s model %s endpoint %s: %v",
			domain.ErrProtocol, cfg.Provider, cfg.Model, endpoint, err)
		tracer.RecordError(span, perr)
		return nil, perr
	}
	if result.Model == "" {
		result.Model = cfg.Model
	}

	setUsageAttrs(span, result.Usage)
	tracer.SetOK(span)
	logChatCompleted(s.logger, cfg.Provider, result)
	return result, nil
}

// ChatStream sends one streaming chat request. Chunks arrive on the returned
// channel; the final chunk has Done set and the channel is then closed.
// Cancelling ctx stops the read loop and closes the response body.
func (s *Service) ChatStream(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamChunk, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat_stream", trace.WithAttributes(
		tracer.StringAttr("llm.provider", string(cfg.Provider)),
		tracer.StringAttr("llm.model", cfg.Model),
	))
	defer span.End()

	d, endpoint, err := checkCall("llm.ChatStream", cfg)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	if !d.streamable {
		return s.replayAsStream(ctx, cfg, msgs, opts)
	}

	headers, body, err := BuildRequest(cfg, msgs, opts, true)
	if err != nil {
		err = domain.WrapOp("llm.ChatStream", err)
		tracer.RecordError(span, err)
		return nil, err
	}

	httpResp, err := doStreamRequest(ctx, s.client, endpoint, body, headers)
	if err != nil {
		err = domain.WrapOp("llm.ChatStream", err)
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	return parseSSEStream(ctx, httpResp.Body, s.logger, d.delta), nil
}

// replayAsStream covers providers whose streaming protocol we do not speak:
// one blocking Chat call, replayed as a content chunk and a final Done chunk.
func (s *Service) replayAsStream(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamChunk, error) {
	result, err := s.Chat(ctx, cfg, msgs, opts)
	if err != nil {
		return nil, err
	}
	ch := make(chan domain.StreamChunk, 2)
	ch <- domain.StreamChunk{Content: result.Content}
	ch <- domain.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

// TestConnection probes the configured provider with a minimal prompt. It
// never returns an error: every failure is folded into the result message.
func (s *Service) TestConnection(ctx context.Context, cfg Config) domain.TestResult {
	result, err := s.Chat(ctx, cfg,
		[]domain.Message{{Role: domain.RoleUser, Content: connectivityProbe}},
		domain.ChatOptions{MaxTokens: 16})
	if err != nil {
		return domain.TestResult{Success: false, Message: err.Error()}
	}
	if result.Content == "" {
		return domain.TestResult{
			Success: false,
			Message: fmt.Sprintf("provider %s returned an empty reply", cfg.Provider),
		}
	}
	return domain.TestResult{
		Success: true,
		Message: fmt.Sprintf("connected to %s (model %s)", cfg.Provider, result.Model),
	}
}

// checkCall validates cfg before any network I/O and resolves the endpoint.
func checkCall(op string, cfg Config) (dialect, string, error) {
	d, err := dialectFor(cfg.Provider)
	if err != nil {
		return dialect{}, "", domain.NewDomainError(op, domain.ErrConfiguration, err.Error())
	}
	if d.requiresKey && cfg.APIKey == "" {
		return dialect{}, "", domain.NewDomainError(op, domain.ErrConfiguration,
			fmt.Sprintf("provider %s requires an API key", cfg.Provider))
	}
	endpoint, err := ResolveEndpoint(cfg)
	if err != nil {
		return dialect{}, "", domain.NewDomainError(op, domain.ErrConfiguration, err.Error())
	}
	if endpoint == "" {
		return dialect{}, "", domain.NewDomainError(op, domain.ErrConfiguration,
			"custom provider requires a base URL")
	}
	return d, endpoint, nil
}

var _ Chatter = (*Service)(nil)

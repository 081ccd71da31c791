package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"agentteam/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	// If 0, failures never reset until the circuit opens.
	Interval time.Duration `yaml:"interval"`
}

// CircuitBreakerChatter wraps a Chatter with circuit breaker protection.
// When provider calls fail repeatedly, the circuit opens and subsequent
// calls fail fast without reaching the provider, preventing retry storms.
// The adapter itself never retries; this decorator is opt-in.
type CircuitBreakerChatter struct {
	inner   Chatter
	breaker *gobreaker.CircuitBreaker[*domain.ChatResult]
	logger  *slog.Logger
}

// NewCircuitBreakerChatter wraps inner with a circuit breaker.
// If cfg is zero-valued, sensible defaults are used.
func NewCircuitBreakerChatter(inner Chatter, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerChatter {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[*domain.ChatResult](gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// Configuration mistakes are the caller's fault, not the
			// provider's; they must not trip the circuit.
			return err == nil || domain.IsConfiguration(err)
		},
	})

	return &CircuitBreakerChatter{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

// Chat routes the call through the circuit breaker.
func (c *CircuitBreakerChatter) Chat(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (*domain.ChatResult, error) {
	result, err := c.breaker.Execute(func() (*domain.ChatResult, error) {
		return c.inner.Chat(ctx, cfg, msgs, opts)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("provider %q circuit open: %w", cfg.Provider, err)
		}
		return nil, err
	}
	return result, nil
}

// ChatStream protects stream initiation with the circuit breaker. Errors
// after the connection is established do not trip the breaker; they surface
// through the channel as a terminal chunk.
func (c *CircuitBreakerChatter) ChatStream(ctx context.Context, cfg Config, msgs []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamChunk, error) {
	var ch <-chan domain.StreamChunk
	_, err := c.breaker.Execute(func() (*domain.ChatResult, error) {
		var streamErr error
		ch, streamErr = c.inner.ChatStream(ctx, cfg, msgs, opts)
		return nil, streamErr
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("provider %q circuit open: %w", cfg.Provider, err)
		}
		return nil, err
	}
	return ch, nil
}

// TestConnection bypasses the breaker so users can re-probe a failing
// provider while the circuit is open.
func (c *CircuitBreakerChatter) TestConnection(ctx context.Context, cfg Config) domain.TestResult {
	return c.inner.TestConnection(ctx, cfg)
}

// State returns the current circuit breaker state for monitoring.
func (c *CircuitBreakerChatter) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the current circuit breaker failure/success counts.
func (c *CircuitBreakerChatter) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

var _ Chatter = (*CircuitBreakerChatter)(nil)

// --- Connection Pooling ---

// PooledTransportConfig configures HTTP connection pooling for LLM providers.
type PooledTransportConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// Default connection pool settings optimized for LLM API usage patterns:
// few hosts, high concurrency, long-lived connections.
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 20
	defaultIdleConnTimeout     = 120 * time.Second
)

// NewPooledTransport creates an http.Transport with connection pooling
// optimized for LLM API calls. It accepts per-connection timeouts and
// pool sizing configuration.
func NewPooledTransport(connTimeout, respTimeout time.Duration, pool PooledTransportConfig) *http.Transport {
	if connTimeout == 0 {
		connTimeout = defaultConnTimeout
	}
	if respTimeout == 0 {
		respTimeout = defaultRespTimeout
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxIdlePerHost := pool.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = defaultMaxIdleConnsPerHost
	}
	maxConnsPerHost := pool.MaxConnsPerHost
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = defaultMaxConnsPerHost
	}
	idleTimeout := pool.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleConnTimeout
	}

	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: respTimeout,
		MaxIdleConns:          maxIdle,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       idleTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// Default transport timeouts.
const (
	defaultConnTimeout = 30 * time.Second
	defaultRespTimeout = 120 * time.Second
)

// NewHTTPClient creates an *http.Client with pooled transport and timeout
// defaults suitable for LLM providers. Zero values pick the defaults.
func NewHTTPClient(connTimeout, respTimeout time.Duration, pool PooledTransportConfig) *http.Client {
	if connTimeout == 0 {
		connTimeout = defaultConnTimeout
	}
	if respTimeout == 0 {
		respTimeout = defaultRespTimeout
	}

	return &http.Client{
		Transport: NewPooledTransport(connTimeout, respTimeout, pool),
		Timeout:   connTimeout + respTimeout,
	}
}

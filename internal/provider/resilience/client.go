package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Errors returned by Client.
var (
	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the provider, e.g. "expo".
	Name string

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval and MaxInterval bound the exponential backoff.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// CircuitBreaker overrides DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives the client and its outcomes.
	Registry *Registry

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultClientConfig returns the defaults used for push delivery.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  &cb,
	}
}

// Client is an HTTP client with circuit breaking and retries.
// Network errors, 5xx and 429 responses are retried; other responses are returned as-is.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	registry   *Registry
	cfg        ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	cbCfg := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbCfg = *cfg.CircuitBreaker
	}

	c := &Client{
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		breaker:  NewCircuitBreaker[*http.Response](cbCfg), //nolint:bodyclose // type param, not response
		registry: cfg.Registry,
		cfg:      cfg,
	}

	if c.registry != nil {
		c.registry.Register(c.name, c)
	}

	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Do executes the request with breaker protection and retries. Requests with
// a body must be replayable (http.NewRequest sets GetBody for in-memory bodies).
// When retries are exhausted on a retryable status, the last response is
// returned with a nil error so callers can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var last *http.Response
	keep := func(resp *http.Response) {
		if last != nil && last != resp {
			drain(last)
		}
		last = resp
	}

	operation := func() error {
		attempt, err := c.attemptRequest(ctx, req)
		if err != nil {
			return err
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.httpClient.Do(attempt)
			if err != nil {
				return nil, err
			}
			if isRetryableStatus(r.StatusCode) {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case err != nil:
			if resp != nil {
				keep(resp)
			}
			return err
		}

		keep(resp)
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		c.recordFailure(err)

		var serverErr *ServerError
		if last != nil && errors.As(err, &serverErr) {
			return last, nil
		}
		if last != nil {
			drain(last)
		}
		return nil, err
	}

	c.recordSuccess()
	return last, nil
}

// attemptRequest clones req for one attempt, rewinding its body.
func (c *Client) attemptRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	attempt := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return attempt, nil
	}
	if req.GetBody == nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: request body is not replayable", c.name))
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: rewind body: %w", c.name, err))
	}
	attempt.Body = body

	return attempt, nil
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(c.name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(c.name, err)
	}
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// ServerError is a retryable HTTP status (5xx or 429).
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

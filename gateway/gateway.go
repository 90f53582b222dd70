package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/cache"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/rs/zerolog/log"
)

// ErrorSink receives errors from fire-and-forget goroutines so they are
// surfaced instead of silently lost. Injected once at application start.
type ErrorSink func(component string, err error)

// LogSink is the default sink; it logs through the global logger.
func LogSink(component string, err error) {
	log.Error().Err(err).Str("component", component).Msg("Async operation failed")
}

// Outcome is the immutable result of every gateway call. Either
// Success is true with Data set and Error empty, or Success is false
// with Data nil and Error set. The gateway never returns a Go error
// and never panics into the caller.
type Outcome struct {
	Success   bool            `json:"success"`
	Status    int             `json:"status,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Cached    bool            `json:"cached,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Options overrides the gateway defaults for a single call.
// MaxRetries: 0 uses the configured default, negative disables retries.
// Timeout: 0 uses the configured default.
type Options struct {
	Method     string
	Headers    map[string]string
	Body       []byte
	Timeout    time.Duration
	MaxRetries int
	NoCache    bool
}

// cachedResponse keeps the upstream status next to the body so a cache
// hit replays the original response instead of normalizing it to 200.
type cachedResponse struct {
	status int
	body   []byte
}

// Gateway issues outbound HTTP calls with per-attempt timeout, bounded
// sequential retry and read-through caching for GET requests.
type Gateway struct {
	httpClient *http.Client
	cache      *cache.Cache
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	backoff    float64
	jitter     bool
	cacheTTL   time.Duration
	sink       ErrorSink
}

// New creates a gateway. The cache may be nil (caching disabled); the
// sink may be nil (falls back to LogSink).
func New(cfg config.GatewayConfig, cacheClient *cache.Cache, sink ErrorSink) *Gateway {
	if sink == nil {
		sink = LogSink
	}
	backoff := cfg.BackoffFactor
	if backoff < 1.0 {
		backoff = 1.0
	}
	return &Gateway{
		// Transport-level timeout stays off; each attempt carries its
		// own context deadline.
		httpClient: &http.Client{},
		cache:      cacheClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		backoff:    backoff,
		jitter:     cfg.RetryJitter,
		cacheTTL:   time.Duration(cfg.CacheTTLSec) * time.Second,
		sink:       sink,
	}
}

// Sink returns the injected error sink for reuse by callers that spawn
// their own goroutines.
func (g *Gateway) Sink() ErrorSink {
	return g.sink
}

// Get is shorthand for a cached GET with default options.
func (g *Gateway) Get(ctx context.Context, endpoint string) Outcome {
	return g.Do(ctx, endpoint, Options{Method: http.MethodGet})
}

// Post is shorthand for a JSON POST.
func (g *Gateway) Post(ctx context.Context, endpoint string, body []byte) Outcome {
	return g.Do(ctx, endpoint, Options{Method: http.MethodPost, Body: body})
}

// Do performs the call. GET responses are served from and stored into
// the cache keyed by the request signature; a cache hit returns
// immediately with no network call and no retry accounting.
func (g *Gateway) Do(ctx context.Context, endpoint string, opts Options) Outcome {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	url := g.resolveURL(endpoint)
	key := utils.RequestSignature(method, url, opts.Body)

	cacheable := method == http.MethodGet && g.cache != nil && !opts.NoCache
	if cacheable {
		if cached, found := g.cache.Get(key); found {
			if entry, ok := cached.(cachedResponse); ok {
				log.Debug().Str("endpoint", endpoint).Msg("Gateway cache hit")
				return Outcome{
					Success:   true,
					Status:    entry.status,
					Data:      entry.body,
					Cached:    true,
					Timestamp: time.Now(),
				}
			}
		}
	}

	retries := g.maxRetries
	if opts.MaxRetries > 0 {
		retries = opts.MaxRetries
	} else if opts.MaxRetries < 0 {
		retries = 0
	}
	timeout := g.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		data, status, err := g.attempt(ctx, method, url, opts, timeout)
		if err == nil {
			if cacheable {
				g.cache.SetWithTTL(key, cachedResponse{status: status, body: data}, int64(len(data))+1, g.cacheTTL)
			}
			return Outcome{
				Success:   true,
				Status:    status,
				Data:      data,
				Timestamp: time.Now(),
			}
		}
		lastErr = err

		// A cancelled parent context means the caller gave up; retrying
		// would only fight the cancellation.
		if ctx.Err() != nil {
			break
		}

		if attempt < retries {
			delay := g.delayFor(attempt)
			log.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("retry_in", delay).
				Msg("Gateway request failed, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return failure(lastErr)
			}
		}
	}

	log.Error().
		Err(lastErr).
		Str("endpoint", endpoint).
		Int("retries", retries).
		Msg("Gateway request failed after all retries")
	return failure(lastErr)
}

// attempt performs one request under a fresh timeout window.
func (g *Gateway) attempt(ctx context.Context, method, url string, opts Options, timeout time.Duration) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(opts.Body) > 0 {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return data, resp.StatusCode, nil
}

// delayFor computes the wait before the next attempt. The default
// schedule is a fixed delay; backoff_factor > 1 and retry_jitter exist
// for deployments where synchronized retries against a shared outage
// are a concern.
func (g *Gateway) delayFor(attempt int) time.Duration {
	delay := g.retryDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * g.backoff)
	}
	if g.jitter && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay) / 2))
	}
	return delay
}

func (g *Gateway) resolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if g.baseURL == "" {
		return endpoint
	}
	return g.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// ClearCache drops every cached response.
func (g *Gateway) ClearCache() {
	if g.cache != nil {
		g.cache.Clear()
	}
}

func failure(err error) Outcome {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return Outcome{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now(),
	}
}

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/cache"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
)

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  60,
		CounterSize: 1000,
	})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func testGateway(c *cache.Cache, maxRetries int) *Gateway {
	return New(config.GatewayConfig{
		TimeoutSeconds: 5,
		MaxRetries:     maxRetries,
		RetryDelayMs:   1, // keep retries fast in tests
		BackoffFactor:  1.0,
		CacheTTLSec:    1,
	}, c, nil)
}

func TestDoSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	g := testGateway(nil, 3)
	outcome := g.Get(context.Background(), server.URL)

	if !outcome.Success {
		t.Fatalf("Expected success, got error: %s", outcome.Error)
	}
	if outcome.Error != "" {
		t.Error("Successful outcome must carry no error")
	}
	if string(outcome.Data) != `{"ok":true}` {
		t.Errorf("Unexpected response data: %s", outcome.Data)
	}
	if outcome.Timestamp.IsZero() {
		t.Error("Outcome timestamp not set")
	}
}

func TestDoRetryBound(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := testGateway(nil, 3)
	outcome := g.Get(context.Background(), server.URL)

	if outcome.Success {
		t.Fatal("Expected failure against an always-failing endpoint")
	}
	if outcome.Error == "" {
		t.Error("Failed outcome must carry an error message")
	}
	if outcome.Data != nil {
		t.Error("Failed outcome must carry no data")
	}
	// maxRetries=3 means exactly 4 total attempts
	if got := atomic.LoadInt64(&attempts); got != 4 {
		t.Errorf("Expected 4 attempts (initial + 3 retries), got %d", got)
	}
}

func TestDoTransportErrorReturnsOutcome(t *testing.T) {
	g := testGateway(nil, 1)
	// Closed port: connection refused on every attempt.
	outcome := g.Get(context.Background(), "http://127.0.0.1:1/nothing")

	if outcome.Success {
		t.Fatal("Expected failure outcome")
	}
	if outcome.Error == "" {
		t.Error("Expected an error message in the outcome")
	}
}

func TestDoCachedGet(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer server.Close()

	c := testCache(t)
	g := testGateway(c, 0)

	first := g.Get(context.Background(), server.URL)
	if !first.Success {
		t.Fatalf("First call failed: %s", first.Error)
	}
	c.Wait()

	second := g.Get(context.Background(), server.URL)
	if !second.Success {
		t.Fatalf("Second call failed: %s", second.Error)
	}
	if !second.Cached {
		t.Error("Second call should be served from cache")
	}
	if string(second.Data) != string(first.Data) {
		t.Errorf("Cached data differs from original: %q vs %q", second.Data, first.Data)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("Cache hit must not trigger a network call, server saw %d calls", got)
	}
}

func TestDoCachedStatusPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"x"}`))
	}))
	defer server.Close()

	c := testCache(t)
	g := testGateway(c, 0)

	first := g.Get(context.Background(), server.URL)
	if first.Status != http.StatusCreated {
		t.Fatalf("Expected 201 from the network, got %d", first.Status)
	}
	c.Wait()

	second := g.Get(context.Background(), server.URL)
	if !second.Cached {
		t.Fatal("Second call should be served from cache")
	}
	if second.Status != http.StatusCreated {
		t.Errorf("Cache hit must replay the original status, got %d", second.Status)
	}
}

func TestDoCacheExpiry(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := testCache(t)
	g := testGateway(c, 0) // cache TTL is 1s

	g.Get(context.Background(), server.URL)
	c.Wait()

	time.Sleep(1200 * time.Millisecond)

	g.Get(context.Background(), server.URL)
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("Expected a fresh network call after TTL expiry, server saw %d calls", got)
	}
}

func TestDoPostNotCached(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := testCache(t)
	g := testGateway(c, 0)

	g.Post(context.Background(), server.URL, []byte(`{"email":"a@b.co"}`))
	c.Wait()
	g.Post(context.Background(), server.URL, []byte(`{"email":"a@b.co"}`))

	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("POST requests must not be cached, server saw %d calls", got)
	}
}

func TestDoTimeoutAbortsAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	g := testGateway(nil, 0)
	start := time.Now()
	outcome := g.Do(context.Background(), server.URL, Options{
		Timeout:    50 * time.Millisecond,
		MaxRetries: -1,
	})
	elapsed := time.Since(start)

	if outcome.Success {
		t.Fatal("Expected timeout failure")
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("Timeout did not abort the in-flight call, took %v", elapsed)
	}
}

func TestDoCancelledContextStopsRetries(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := testGateway(nil, 5)
	outcome := g.Get(ctx, server.URL)

	if outcome.Success {
		t.Fatal("Expected failure with cancelled context")
	}
	// Cancellation must not be retried away
	if got := atomic.LoadInt64(&attempts); got > 1 {
		t.Errorf("Cancelled call must not retry, server saw %d attempts", got)
	}
}

func TestRequestSignatureDistinguishesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	c := testCache(t)
	g := testGateway(c, 0)

	a := g.Get(context.Background(), server.URL+"/a")
	c.Wait()
	b := g.Get(context.Background(), server.URL+"/b")

	if string(a.Data) == string(b.Data) {
		t.Error("Different endpoints must not share a cache entry")
	}
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/analytics"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/cache"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/catalog"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/email"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/gateway"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/storage"

	"github.com/go-redis/redis/v8"
)

// Handler carries the wired services for all HTTP endpoints.
type Handler struct {
	redis   *redis.Client
	cache   *cache.Cache
	catalog *catalog.Source
	tracker *analytics.Service
	gateway *gateway.Gateway
	storage *storage.Client
	email   *email.EmailService
	config  config.Config
	baseURL string
	sink    gateway.ErrorSink
}

// New creates the handler with dependency injection.
func New(
	redisClient *redis.Client,
	cacheClient *cache.Cache,
	catalogSource *catalog.Source,
	tracker *analytics.Service,
	gw *gateway.Gateway,
	storageClient *storage.Client,
	emailService *email.EmailService,
	cfg config.Config,
	sink gateway.ErrorSink,
) *Handler {
	// Use configured base_url if provided, otherwise construct from scheme, IP, and port
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	if sink == nil {
		sink = gateway.LogSink
	}
	return &Handler{
		redis:   redisClient,
		cache:   cacheClient,
		catalog: catalogSource,
		tracker: tracker,
		gateway: gw,
		storage: storageClient,
		email:   emailService,
		config:  cfg,
		baseURL: baseURL,
		sink:    sink,
	}
}

// opTimeout returns the per-operation deadline for Redis-backed calls.
func (h *Handler) opTimeout() time.Duration {
	secs := h.config.Redis.OperationTimeout
	if secs <= 0 {
		secs = 5
	}
	return time.Duration(secs) * time.Second
}

// HealthCheck handles GET /health
// @Summary Health check
// @Description Reports service and Redis connectivity status
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Service healthy"
// @Failure 503 {object} map[string]interface{} "Redis unreachable"
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	redisState := "ok"
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status = http.StatusServiceUnavailable
		redisState = err.Error()
	}

	SendJSONSuccess(w, status, map[string]interface{}{
		"status":         redisState,
		"products":       len(h.catalog.Products()),
		"catalog_loaded": h.catalog.LoadedAt().Format(time.RFC3339),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// CacheMetrics handles GET /cache/metrics
// @Summary Cache metrics
// @Description Returns hit/miss counters for the gateway response cache
// @Tags System
// @Produce json
// @Success 200 {object} cache.MetricsSnapshot "Cache metrics"
// @Failure 404 {object} ErrorResponse "Cache disabled"
// @Router /cache/metrics [get]
func (h *Handler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		SendJSONError(w, http.StatusNotFound, fmt.Errorf("cache disabled"), "Caching is disabled in configuration")
		return
	}
	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}

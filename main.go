package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/analytics"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/cache"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/catalog"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/email"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/fallback"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/gateway"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/handler"
	appLogger "github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/logger"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/middleware"
	redisClient "github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/redis"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Trader Platform API
// @version 1.0
// @description Backend for a bilingual small-business catalog and marketing site: product filtering, view analytics with local fallback, newsletter and contact endpoints, and an admin panel API.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

// @tag.name Products
// @tag.description Catalog listing, detail and share codes

// @tag.name Tracking
// @tag.description Page, product and custom-event view tracking

// @tag.name Admin
// @tag.description Analytics dashboard and catalog management (requires admin key)

// @tag.name System
// @tag.description Health checks and cache metrics

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	appLogger.SetLevel(cfg.Logging.Level)
	log.Info().Msg("Configuration loaded successfully")

	// Initialize Redis client
	rdb := redisClient.NewClient(cfg.Redis)

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Local fallback store for analytics writes the remote rejects
	fallbackStore, err := fallback.New(cfg.Analytics.FallbackPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize analytics fallback store")
	}

	// Load the product catalog once at startup
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	catalogSource, err := catalog.NewSource(startupCtx, rdb)
	cancelStartup()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product catalog")
	}

	// Outbound request gateway with the error sink installed once here
	gw := gateway.New(cfg.Gateway, cacheClient, gateway.LogSink)

	// View/analytics aggregator
	tracker := analytics.NewService(rdb, fallbackStore, catalogSource, cfg.Analytics)

	// Object storage and email collaborators
	storageClient := storage.New(cfg.Storage)
	emailService := email.NewEmailService(cfg.Email)

	// Create handler with dependency injection
	h := handler.New(rdb, cacheClient, catalogSource, tracker, gw, storageClient, emailService, cfg, gateway.LogSink)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	visitor := middleware.NewVisitor(cfg.Security.BotDetectionEnabled)

	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)
	r.Use(visitor.Identify)

	// System routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", h.CacheMetrics).Methods("GET")

	// Public API
	r.HandleFunc("/api/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/api/products/{id}", h.GetProduct).Methods("GET")
	r.HandleFunc("/api/products/{id}/qr", h.ProductQR).Methods("GET")
	r.HandleFunc("/api/track/page", h.TrackPage).Methods("POST")
	r.HandleFunc("/api/track/product", h.TrackProduct).Methods("POST")
	r.HandleFunc("/api/track/event", h.TrackEvent).Methods("POST")
	r.HandleFunc("/api/newsletter/subscribe", h.SubscribeNewsletter).Methods("POST")
	r.HandleFunc("/api/contact", h.ContactForm).Methods("POST")

	// Admin API
	adminAuth := middleware.NewAdminAuth(cfg.Security.AdminAPIKey, cfg.Security.AdminAuthEnabled)
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(adminAuth.Protect)
	admin.HandleFunc("/analytics", h.GetAnalytics).Methods("GET")
	admin.HandleFunc("/analytics/reset", h.ResetAnalytics).Methods("POST")
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/image", h.UploadProductImage).Methods("POST")

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if cacheClient != nil {
		cacheClient.Close()
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}

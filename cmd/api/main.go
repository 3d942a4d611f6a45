package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/payroll-csv/internal/api/handlers"
	"github.com/dvloznov/payroll-csv/internal/api/middleware"
	"github.com/dvloznov/payroll-csv/internal/config"
	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Flags override the environment.
	port := flag.String("port", cfg.Server.Port, "HTTP server port (or set PORT env)")
	flag.Parse()
	cfg.Server.Port = *port

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	mode, err := extract.ParseMode(cfg.Extract.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid extract mode")
	}
	opts := extract.DefaultOptions()
	opts.Mode = mode
	opts.NameBand = cfg.Extract.NameBandPoints

	m := metrics.New()
	extractHandler := handlers.NewExtractHandler(handlers.Config{
		Options:        opts,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		Metrics:        m,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(extractHandler, m, cfg.Server, log),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("mode", string(mode)).
			Int("max_upload_mb", cfg.Server.MaxUploadMB).
			Msg("Starting payroll CSV server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newRouter registers the routes and wraps them in the middleware stack.
// Uploads share one rate limiter.
func newRouter(h *handlers.ExtractHandler, m *metrics.Metrics, srv config.ServerConfig, log zerolog.Logger) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(srv.RateLimitPerSecond), srv.RateLimitBurst)
	upload := func(route string, fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn, middleware.Metrics(m, route), middleware.RateLimit(limiter))
	}
	route := func(route string, fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn, middleware.Metrics(m, route))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", route("/", h.Index))
	mux.Handle("POST /extract", upload("/extract", h.ExtractPage))
	mux.Handle("POST /api/extract", upload("/api/extract", h.ExtractAPI))
	mux.Handle("GET /health", route("/health", handlers.Health))
	mux.Handle("GET /metrics", m.Handler())

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)
}

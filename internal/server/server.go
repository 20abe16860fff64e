// Package server assembles the HTTP API and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/djinn/internal/ratelimit"
	"github.com/matthewbaird/djinn/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port    int
	Service *service.Service
	Logger  *slog.Logger
	Limiter *ratelimit.Limiter

	// WebSocket serves GET /v1/ws when set.
	WebSocket http.Handler

	// SweepInterval is how often polls past their deadline are closed.
	// Zero disables sweeping.
	SweepInterval time.Duration
}

// NewRouter registers all routes.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(1, 5)
	}
	h := NewHandler(cfg.Service, logger)

	r := chi.NewRouter()
	r.Use(Recovery(logger))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The websocket handler needs the unwrapped ResponseWriter to hijack.
	if cfg.WebSocket != nil {
		r.Get("/v1/ws", cfg.WebSocket.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(Logging(logger))
		r.Use(ServerTiming)

		r.Get("/v1/complete", h.Complete)
		r.Get("/v1/polls/{id}", h.GetPoll)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(limiter))
			r.Post("/v1/fetch", h.Fetch)
			r.Post("/v1/polls", h.CreatePoll)
			r.Post("/v1/polls/{id}/votes", h.Vote)
			r.Post("/v1/polls/{id}/close", h.ClosePoll)
		})
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if cfg.SweepInterval > 0 {
		go sweep(ctx, cfg.Service, cfg.SweepInterval)
	}

	logger.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweep closes expired polls until ctx is done.
func sweep(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.CloseExpired(ctx)
		}
	}
}

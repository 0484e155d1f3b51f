// Package server provides HTTP server initialization and lifecycle
// management for the taskerino search API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/internal/config"
	"github.com/jamesmcarthur-3999/taskerino/web/handlers"
)

// securityHeadersMiddleware adds security headers to all responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server, returning the actual
// listen address (useful for tests with port 0) and the telemetry hub.
// The server shuts down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, searcher handlers.Searcher, provider handlers.CollectionsProvider) (string, *handlers.TelemetryHub) {
	hub := handlers.NewTelemetryHub(handlers.OriginPatterns(cfg.Server.Host, cfg.Server.Port)...)
	go hub.Run()

	searchHandler := handlers.NewSearchHandler(searcher, provider, hub)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/search", searchHandler.Search)
	apiMux.HandleFunc("/api/threads", searchHandler.CreateThread)
	apiMux.HandleFunc("/api/threads/", searchHandler.DeleteThread)
	apiMux.HandleFunc("/api/config/key", searchHandler.UpdateCredential)
	apiMux.HandleFunc("/api/health", searchHandler.Health)

	mux := http.NewServeMux()
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Telemetry feed skips bearer auth; origin validation gates it.
	mux.Handle("/ws", hub)

	rateLimiter := handlers.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		hub.Stop()
	}()

	return actualAddr, hub
}

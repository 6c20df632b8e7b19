// Package httpserver builds the HTTP server with the project's defaults.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"atrium/internal/platform/config"
)

// New builds an HTTP server from configuration.
func New(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

// Shutdown drains the server within the configured timeout.
func Shutdown(ctx context.Context, srv *http.Server, cfg config.HTTPConfig) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

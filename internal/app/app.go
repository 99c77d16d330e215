// Package app provides application lifecycle management for the catalog browser.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
)

// CatalogApp encapsulates the browse sessions and, optionally, the HTTP API
// serving them. It provides lifecycle management and graceful shutdown.
type CatalogApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// StartSessions starts every session concurrently. Fetch failures are
// returned joined, but the failed sessions keep running on an empty
// snapshot and retry on their refresh schedule.
func (app *CatalogApp) StartSessions(ctx context.Context) error {
	sessions := app.components.Sessions
	errs := make([]error, len(sessions))

	var g errgroup.Group
	for i, s := range sessions {
		g.Go(func() error {
			if err := s.Start(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Kind(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Start starts the sessions and then the HTTP server. It blocks until the
// HTTP server stops, or until Stop when no server is configured.
func (app *CatalogApp) Start() error {
	if err := app.StartSessions(app.ctx); err != nil {
		slog.Warn("Some catalogs could not be fetched, serving empty snapshots until the next refresh",
			"error", err)
	}

	if app.httpServer == nil {
		<-app.ctx.Done()
		return nil
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout. The HTTP
// server is shut down first, then every session is stopped, which commits
// its latest snapshot to the seen set.
func (app *CatalogApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down catalog browser")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if app.httpServer != nil {
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
	}

	sessions := app.components.Sessions
	stopErrs := make([]error, len(sessions))
	var g errgroup.Group
	for i, s := range sessions {
		g.Go(func() error {
			if err := s.Stop(shutdownCtx); err != nil {
				slog.Error("Failed to stop session", "kind", s.Kind(), "error", err)
				stopErrs[i] = fmt.Errorf("%s: %w", s.Kind(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	errs = append(errs, stopErrs...)

	// Cancel the application context
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

// Service returns the catalog service over the sessions
func (app *CatalogApp) Service() service.CatalogService {
	return app.components.CatalogService
}

// Sessions returns the browse sessions in configuration order
func (app *CatalogApp) Sessions() []*session.Session {
	return app.components.Sessions
}

// Session returns the session browsing kind
func (app *CatalogApp) Session(kind catalog.Kind) (*session.Session, bool) {
	return app.components.Session(kind)
}

// GetConfig returns the application configuration
func (app *CatalogApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server, nil when no address was configured
func (app *CatalogApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

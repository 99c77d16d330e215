package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

// Refresher performs one refresh of a catalog and applies the result
type Refresher interface {
	Refresh(ctx context.Context) (*pkgsync.Result, *pkgsync.Error)
}

// Coordinator manages background refresh scheduling and execution for one catalog
type Coordinator interface {
	// Start begins background refresh coordination.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for the loop to exit
	Stop() error

	// RefreshNow performs a refresh immediately, serialized with periodic ones
	RefreshNow(ctx context.Context) error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	refresher         Refresher
	statusPersistence status.StatusPersistence
	changeDetector    pkgsync.DataChangeDetector
	kind              catalog.Kind

	interval       time.Duration
	jitter         time.Duration
	initialRefresh bool

	// refreshMu serializes refreshes so status transitions never interleave
	refreshMu sync.Mutex

	// Lifecycle management
	lifecycleMu sync.Mutex
	cancelFunc  context.CancelFunc
	done        chan struct{}

	// Metrics
	refreshMetrics *telemetry.RefreshMetrics
	catalogMetrics *telemetry.CatalogMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInitialRefresh controls whether Start refreshes before the first tick.
// Enabled by default.
func WithInitialRefresh(enabled bool) Option {
	return func(c *defaultCoordinator) {
		c.initialRefresh = enabled
	}
}

// WithRefreshMetrics sets the refresh metrics for the coordinator
func WithRefreshMetrics(metrics *telemetry.RefreshMetrics) Option {
	return func(c *defaultCoordinator) {
		c.refreshMetrics = metrics
	}
}

// WithCatalogMetrics sets the catalog metrics for the coordinator
func WithCatalogMetrics(metrics *telemetry.CatalogMetrics) Option {
	return func(c *defaultCoordinator) {
		c.catalogMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies
func New(
	refresher Refresher,
	statusPersistence status.StatusPersistence,
	kind catalog.Kind,
	interval, jitter time.Duration,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		refresher:         refresher,
		statusPersistence: statusPersistence,
		changeDetector:    &pkgsync.DefaultDataChangeDetector{},
		kind:              kind,
		interval:          interval,
		jitter:            jitter,
		initialRefresh:    true,
		done:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background refresh coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.cancelFunc != nil {
		c.lifecycleMu.Unlock()
		return errors.New("coordinator already started")
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.lifecycleMu.Unlock()

	slog.Info("Starting background refresh coordinator",
		"kind", c.kind,
		"interval", c.interval,
		"jitter", c.jitter)
	defer func() {
		close(c.done)
		slog.Info("Background refresh coordinator shutting down", "kind", c.kind)
	}()

	if c.initialRefresh {
		_ = c.performRefresh(coordCtx, triggerInitial)
	}

	if c.interval <= 0 {
		slog.Info("Periodic refresh disabled", "kind", c.kind)
		<-coordCtx.Done()
		return nil
	}

	ticker := time.NewTicker(calculateInterval(c.interval, c.jitter))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.performRefresh(coordCtx, triggerPeriodic)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(calculateInterval(c.interval, c.jitter))
		case <-coordCtx.Done():
			slog.Info("Refresh coordinator stopping", "kind", c.kind)
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	cancel := c.cancelFunc
	c.lifecycleMu.Unlock()

	if cancel != nil {
		slog.Info("Stopping refresh coordinator", "kind", c.kind)
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// RefreshNow implements Coordinator
func (c *defaultCoordinator) RefreshNow(ctx context.Context) error {
	return c.performRefresh(ctx, triggerManual)
}

package session

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/ranking"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

// Option configures a Session
type Option func(*Session)

// WithTracker enables change tracking. Without a tracker nothing is flagged new.
func WithTracker(tracker *pkgsync.Tracker) Option {
	return func(s *Session) {
		s.tracker = tracker
	}
}

// WithStatusPersistence sets where refresh status is recorded
func WithStatusPersistence(persistence status.StatusPersistence) Option {
	return func(s *Session) {
		s.statusPersistence = persistence
	}
}

// WithRefreshSchedule sets the periodic refresh interval and its jitter
func WithRefreshSchedule(interval, jitter time.Duration) Option {
	return func(s *Session) {
		s.interval = interval
		s.jitter = jitter
	}
}

// WithBackgroundRefresh controls whether Start runs the periodic refresh loop
func WithBackgroundRefresh(enabled bool) Option {
	return func(s *Session) {
		s.backgroundRefresh = enabled
	}
}

// WithCommitOnStop controls whether Stop commits the latest snapshot to the
// seen set. Read-only sessions that never show the changes to the user run
// with it disabled so the new flags survive.
func WithCommitOnStop(enabled bool) Option {
	return func(s *Session) {
		s.commitOnStop = enabled
	}
}

// WithRanker sets the ranking engine used for query views
func WithRanker(engine *ranking.Engine) Option {
	return func(s *Session) {
		s.ranker = engine
	}
}

// WithSorter sets the sorter used for sorted views
func WithSorter(sorter *sorting.Sorter) Option {
	return func(s *Session) {
		s.sorter = sorter
	}
}

// WithInstallChecker sets the host's install state
func WithInstallChecker(checker catalog.InstallChecker) Option {
	return func(s *Session) {
		s.installed = checker
	}
}

// WithRefreshMetrics sets the refresh metrics
func WithRefreshMetrics(metrics *telemetry.RefreshMetrics) Option {
	return func(s *Session) {
		s.refreshMetrics = metrics
	}
}

// WithCatalogMetrics sets the catalog metrics
func WithCatalogMetrics(metrics *telemetry.CatalogMetrics) Option {
	return func(s *Session) {
		s.catalogMetrics = metrics
	}
}

// WithViewMetrics sets the view metrics
func WithViewMetrics(metrics *telemetry.ViewMetrics) Option {
	return func(s *Session) {
		s.viewMetrics = metrics
	}
}

// WithTracer sets the tracer used for view and refresh spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = tracer
	}
}

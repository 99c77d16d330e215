// Package telemetry provides OpenTelemetry instrumentation for the catalog browser.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

const (
	// CatalogMetricsMeterName is the name used for the catalog metrics meter
	CatalogMetricsMeterName = "github.com/stacklok/toolhive-catalog-browser/catalog"

	// RefreshMetricsMeterName is the name used for the refresh metrics meter
	RefreshMetricsMeterName = "github.com/stacklok/toolhive-catalog-browser/refresh"

	// ViewMetricsMeterName is the name used for the view metrics meter
	ViewMetricsMeterName = "github.com/stacklok/toolhive-catalog-browser/view"
)

// CatalogMetrics holds the OpenTelemetry instruments for catalog snapshot metrics
type CatalogMetrics struct {
	entriesTotal metric.Int64Gauge
	newEntries   metric.Int64Gauge
}

// NewCatalogMetrics creates a new CatalogMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCatalogMetrics(provider metric.MeterProvider) (*CatalogMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CatalogMetricsMeterName)

	entriesTotal, err := meter.Int64Gauge(
		"thv_catalog_entries_total",
		metric.WithDescription("Number of visible entries in each catalog"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	newEntries, err := meter.Int64Gauge(
		"thv_catalog_new_entries",
		metric.WithDescription("Number of entries flagged as new in each catalog"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		entriesTotal: entriesTotal,
		newEntries:   newEntries,
	}, nil
}

// RecordEntriesTotal records the current number of visible entries in a catalog
func (m *CatalogMetrics) RecordEntriesTotal(ctx context.Context, kind catalog.Kind, count int64) {
	if m == nil || m.entriesTotal == nil {
		return
	}
	m.entriesTotal.Record(ctx, count, metric.WithAttributes(attribute.String("catalog", string(kind))))
}

// RecordNewEntries records the current number of new entries in a catalog
func (m *CatalogMetrics) RecordNewEntries(ctx context.Context, kind catalog.Kind, count int64) {
	if m == nil || m.newEntries == nil {
		return
	}
	m.newEntries.Record(ctx, count, metric.WithAttributes(attribute.String("catalog", string(kind))))
}

// RefreshMetrics holds the OpenTelemetry instruments for refresh operation metrics
type RefreshMetrics struct {
	refreshDuration metric.Float64Histogram
	staleDiscarded  metric.Int64Counter
}

// NewRefreshMetrics creates a new RefreshMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRefreshMetrics(provider metric.MeterProvider) (*RefreshMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RefreshMetricsMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"thv_catalog_refresh_duration_seconds",
		metric.WithDescription("Duration of catalog refresh operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	staleDiscarded, err := meter.Int64Counter(
		"thv_catalog_stale_snapshots_total",
		metric.WithDescription("Number of fetched snapshots discarded because a newer one was already applied"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		return nil, err
	}

	return &RefreshMetrics{
		refreshDuration: refreshDuration,
		staleDiscarded:  staleDiscarded,
	}, nil
}

// RecordRefreshDuration records the duration of a refresh operation for a catalog
func (m *RefreshMetrics) RecordRefreshDuration(ctx context.Context, kind catalog.Kind, duration time.Duration, success bool) {
	if m == nil || m.refreshDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("catalog", string(kind)),
		attribute.Bool("success", success),
	}

	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordStaleDiscarded counts a snapshot dropped by sequence stamping
func (m *RefreshMetrics) RecordStaleDiscarded(ctx context.Context, kind catalog.Kind) {
	if m == nil || m.staleDiscarded == nil {
		return
	}
	m.staleDiscarded.Add(ctx, 1, metric.WithAttributes(attribute.String("catalog", string(kind))))
}

// ViewMetrics holds the OpenTelemetry instruments for ranking and sorting views
type ViewMetrics struct {
	viewDuration metric.Float64Histogram
}

// NewViewMetrics creates a new ViewMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewViewMetrics(provider metric.MeterProvider) (*ViewMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	viewDuration, err := provider.Meter(ViewMetricsMeterName).Float64Histogram(
		"thv_catalog_view_duration_seconds",
		metric.WithDescription("Duration of ranking and sorting a catalog view in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1),
	)
	if err != nil {
		return nil, err
	}
	return &ViewMetrics{viewDuration: viewDuration}, nil
}

// RecordView records how long a view took. mode is "rank" for queries,
// otherwise the sort mode.
func (m *ViewMetrics) RecordView(ctx context.Context, kind catalog.Kind, mode string, duration time.Duration) {
	if m == nil || m.viewDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("catalog", string(kind)),
		attribute.String("mode", mode),
	}
	m.viewDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

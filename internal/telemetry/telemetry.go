package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and meter providers of one process
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds the providers described by cfg. A nil or disabled cfg yields
// no-op providers. extra options are applied after those derived from cfg.
// Callers must call Shutdown to flush pending data.
func New(ctx context.Context, cfg *Config, extra ...ProviderOption) (*Telemetry, error) {
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return &Telemetry{
			tracerProvider: mustNoop(NewTracerProvider(ctx)),
			meterProvider:  mustNoop(NewMeterProvider(ctx)),
		}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	opts := append(optionsFromConfig(cfg), extra...)

	t := &Telemetry{}
	if cfg.Metrics.prometheus() {
		registry := prometheus.NewRegistry()
		opts = append(opts, WithPrometheusRegisterer(registry))
		t.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	var err error
	if t.tracerProvider, err = NewTracerProvider(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	if t.meterProvider, err = NewMeterProvider(ctx, opts...); err != nil {
		if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
			_ = tp.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	slog.Info("Telemetry initialized",
		"tracing", cfg.Tracing != nil && cfg.Tracing.Enabled,
		"metrics", cfg.Metrics != nil && cfg.Metrics.Enabled,
	)
	return t, nil
}

// mustNoop unwraps a provider built without options, which cannot fail
func mustNoop[P any](p P, err error) P {
	if err != nil {
		panic(fmt.Sprintf("no-op telemetry provider: %v", err))
	}
	return p
}

// TracerProvider returns the tracer provider, never nil
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider, never nil
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler is the Prometheus scrape handler, nil unless the metrics
// exporter is ExporterPrometheus
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Shutdown flushes and stops the SDK providers. Later calls return the
// result of the first.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		var errs []error
		if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
			if err := tp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
			}
		}
		if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
			if err := mp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
			}
		}
		t.shutdownErr = errors.Join(errs...)
		slog.Debug("Telemetry shut down", "error", t.shutdownErr)
	})
	return t.shutdownErr
}

package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*providerConfig)

// providerConfig is shared by both providers so one option list built from
// Config serves either
type providerConfig struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool

	tracing      *TracingConfig
	spanExporter sdktrace.SpanExporter

	metrics    *MetricsConfig
	registerer prometheus.Registerer
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// optionsFromConfig translates the telemetry section of the config file.
// Empty fields keep the provider defaults.
func optionsFromConfig(cfg *Config) []ProviderOption {
	opts := []ProviderOption{
		WithInsecure(cfg.Insecure),
		WithTracingConfig(cfg.Tracing),
		WithMetricsConfig(cfg.Metrics),
	}
	if cfg.ServiceName != "" {
		opts = append(opts, WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, WithServiceVersion(cfg.ServiceVersion))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, WithEndpoint(cfg.Endpoint))
	}
	return opts
}

// WithServiceName sets the service.name resource attribute
func WithServiceName(name string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute
func WithServiceVersion(version string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.serviceVersion = version
	}
}

// WithEndpoint sets the OTLP collector endpoint
func WithEndpoint(endpoint string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.endpoint = endpoint
	}
}

// WithInsecure sends OTLP data over plain HTTP
func WithInsecure(insecure bool) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.insecure = insecure
	}
}

// WithTracingConfig enables tracing when tc.Enabled is set
func WithTracingConfig(tc *TracingConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.tracing = tc
	}
}

// WithSpanExporter replaces the OTLP span exporter
func WithSpanExporter(exporter sdktrace.SpanExporter) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.spanExporter = exporter
	}
}

// WithMetricsConfig enables metrics when mc.Enabled is set
func WithMetricsConfig(mc *MetricsConfig) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.metrics = mc
	}
}

// WithPrometheusRegisterer sets the registry the Prometheus exporter registers with.
// Only used when the metrics exporter is "prometheus".
func WithPrometheusRegisterer(registerer prometheus.Registerer) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.registerer = registerer
	}
}

// newResource describes the catalog browser process
func newResource(ctx context.Context, cfg *providerConfig) (*resource.Resource, error) {
	// resource.New avoids schema URL conflicts with resource.Default()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

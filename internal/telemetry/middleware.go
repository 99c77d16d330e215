package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// HTTPMetricsMeterName scopes the API request instruments
const HTTPMetricsMeterName = "github.com/stacklok/toolhive-catalog-browser/http"

// catalogRequestBuckets are sized for in-memory views; refresh requests land
// in the upper buckets
var catalogRequestBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15}

// HTTPMetrics instruments the catalog API
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics registers the API instruments on provider. A nil provider
// yields a nil HTTPMetrics, whose Middleware is a pass-through.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMetricsMeterName)

	var (
		m   HTTPMetrics
		err error
	)
	if m.requestDuration, err = meter.Float64Histogram("thv_catalog_http_request_duration_seconds",
		metric.WithDescription("Catalog API request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(catalogRequestBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	if m.requestsTotal, err = meter.Int64Counter("thv_catalog_http_requests_total",
		metric.WithDescription("Catalog API requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	if m.activeRequests, err = meter.Int64UpDownCounter("thv_catalog_http_active_requests",
		metric.WithDescription("Catalog API requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active request gauge: %w", err)
	}
	return &m, nil
}

// Middleware records the duration and outcome of each request, labelled by
// route pattern and catalog. A nil HTTPMetrics passes requests through.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The request context may be cancelled once ServeHTTP returns
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.activeRequests.Add(ctx, 1)
		next.ServeHTTP(ww, r)
		m.activeRequests.Add(ctx, -1)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("catalog", catalogLabel(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requestsTotal.Add(ctx, 1, attrs)
	})
}

// routePattern returns the matched chi pattern such as "/v1/{kind}/entries".
// Unmatched requests share one label to bound cardinality.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown_route"
}

// catalogLabel is the canonical kind from the {kind} route parameter, "none"
// for routes without one and "unknown" for values that are not a catalog
func catalogLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "none"
	}
	raw := rctx.URLParam("kind")
	if raw == "" {
		return "none"
	}
	kind, err := catalog.ParseKind(raw)
	if err != nil {
		return "unknown"
	}
	return string(kind)
}

// MetricsMiddleware builds HTTPMetrics from provider and returns its middleware
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	metrics, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return metrics.Middleware(next)
	}, nil
}

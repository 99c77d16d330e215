package sources

import (
	"context"
	"errors"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/otel"
)

// catalogFetcher resolves a handler for the URL scheme, downloads the payload,
// and validates it into typed entries
type catalogFetcher struct {
	factory   SourceHandlerFactory
	validator CatalogDataValidator
	tracer    trace.Tracer
}

// FetcherOption configures the catalog fetcher
type FetcherOption func(*catalogFetcher)

// WithValidator overrides the payload validator
func WithValidator(v CatalogDataValidator) FetcherOption {
	return func(f *catalogFetcher) {
		f.validator = v
	}
}

// WithTracer sets the tracer used to instrument fetches
func WithTracer(tracer trace.Tracer) FetcherOption {
	return func(f *catalogFetcher) {
		f.tracer = tracer
	}
}

// NewFetcher creates a Fetcher that resolves handlers through factory
func NewFetcher(factory SourceHandlerFactory, opts ...FetcherOption) Fetcher {
	f := &catalogFetcher{
		factory:   factory,
		validator: NewCatalogDataValidator(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and validates the catalog at rawURL
func (f *catalogFetcher) Fetch(ctx context.Context, kind catalog.Kind, rawURL string) (*FetchResult, error) {
	ctx, span := otel.StartSpan(ctx, f.tracer, "sources.Fetch",
		otel.CatalogAttributes(kind, ""),
		trace.WithAttributes(attribute.String("catalog.url", catalog.RedactURL(rawURL))),
	)
	defer span.End()

	result, err := f.fetch(ctx, kind, rawURL)
	if err != nil {
		otel.MarkFailed(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(result.Count))
	return result, nil
}

func (f *catalogFetcher) fetch(ctx context.Context, kind catalog.Kind, rawURL string) (*FetchResult, error) {
	safeURL := catalog.RedactURL(rawURL)

	scheme, err := urlScheme(rawURL)
	if err != nil {
		return nil, &FetchError{URL: safeURL, Err: err}
	}

	handler, err := f.factory.CreateHandler(scheme)
	if err != nil {
		return nil, &FetchError{URL: safeURL, Err: err}
	}

	data, err := handler.FetchData(ctx, rawURL)
	if err != nil {
		return nil, NewFetchError(rawURL, err)
	}

	entries, err := f.validator.ValidateData(data, kind)
	if err != nil {
		return nil, &ParseError{URL: safeURL, Err: err}
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	slog.Debug("Fetched catalog",
		"kind", kind,
		"url", safeURL,
		"entries", len(entries),
		"hash", hash)

	return NewFetchResult(kind, entries, hash), nil
}

func urlScheme(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("catalog URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		// The *url.Error text repeats the raw URL
		return "", fmt.Errorf("invalid catalog URL: %w", errors.Unwrap(err))
	}
	return strings.ToLower(u.Scheme), nil
}

// Package otel holds the span helpers shared by the fetcher and sessions.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// Span attribute keys
const (
	AttrCatalogKind = attribute.Key("catalog.kind")
	AttrSessionID   = attribute.Key("session.id")
	AttrSortMode    = attribute.Key("sort.mode")
	AttrQueryLength = attribute.Key("query.length")
	AttrResultCount = attribute.Key("result.count")
	AttrNewCount    = attribute.Key("changes.new_count")
)

// failedStatus keeps catalog URLs out of the span status; the exception
// event carries the full error
const failedStatus = "operation failed"

// StartSpan starts a span on tracer, or returns the span already in ctx
// when tracer is nil
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// CatalogAttributes labels a span with the catalog and session it works on
func CatalogAttributes(kind catalog.Kind, sessionID string) trace.SpanStartEventOption {
	attrs := []attribute.KeyValue{AttrCatalogKind.String(string(kind))}
	if sessionID != "" {
		attrs = append(attrs, AttrSessionID.String(sessionID))
	}
	return trace.WithAttributes(attrs...)
}

// MarkFailed records err on span and sets the error status. Nil values are ignored.
func MarkFailed(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, failedStatus)
}

// Finish ends span after marking it failed when *errp holds an error.
// Intended for deferring with a named error result:
//
//	defer otel.Finish(span, &err)
func Finish(span trace.Span, errp *error) {
	if errp != nil {
		MarkFailed(span, *errp)
	}
	span.End()
}

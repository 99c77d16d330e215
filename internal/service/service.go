// Package service provides the business logic behind the catalog browser API
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
)

var (
	// ErrCatalogNotFound is returned when no session browses the requested catalog
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrNotReady is returned by CheckReadiness until every catalog applied a snapshot
	ErrNotReady = errors.New("catalog not ready")
	// ErrEntryNotFound is returned when an install URL is not in the current snapshot
	ErrEntryNotFound = errors.New("entry not found")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go CatalogService

// CatalogService defines the operations exposed over the browse sessions
type CatalogService interface {
	// CheckReadiness reports whether every catalog has applied a snapshot
	CheckReadiness(ctx context.Context) error

	// Kinds lists the catalogs being browsed
	Kinds() []catalog.Kind

	// ListEntries ranks or sorts the current snapshot of a catalog
	ListEntries(ctx context.Context, kind catalog.Kind, opts ...Option) ([]session.Item, error)

	// GetEntry returns a single entry by install URL
	GetEntry(ctx context.Context, kind catalog.Kind, id string) (*session.Item, error)

	// ListChanges returns the entries flagged as new since the last session
	ListChanges(ctx context.Context, kind catalog.Kind) (*Changes, error)

	// AcknowledgeChanges commits the current snapshot to the seen set
	AcknowledgeChanges(ctx context.Context, kind catalog.Kind) error

	// GetStatus returns the refresh and tracking status of a catalog
	GetStatus(ctx context.Context, kind catalog.Kind) (*session.StatusReport, error)

	// Refresh re-fetches a catalog now
	Refresh(ctx context.Context, kind catalog.Kind) (*session.StatusReport, error)
}

// Changes is the new-since-last-session view of a catalog
type Changes struct {
	Kind  catalog.Kind   `json:"kind"`
	Count int            `json:"count"`
	Items []session.Item `json:"items"`
}

// RefreshError reports a failed manual refresh. The previous snapshot stays visible.
type RefreshError struct {
	Kind catalog.Kind
	Err  error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh of %s failed: %v", e.Kind, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

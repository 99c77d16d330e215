package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
)

// catalogService implements CatalogService over one session per catalog
type catalogService struct {
	sessions map[catalog.Kind]*session.Session
	kinds    []catalog.Kind
}

// NewCatalogService creates a CatalogService over the given sessions.
// Catalogs are listed in the order the sessions are passed.
func NewCatalogService(sessions ...*session.Session) CatalogService {
	svc := &catalogService{
		sessions: make(map[catalog.Kind]*session.Session, len(sessions)),
	}
	for _, s := range sessions {
		if _, dup := svc.sessions[s.Kind()]; dup {
			continue
		}
		svc.sessions[s.Kind()] = s
		svc.kinds = append(svc.kinds, s.Kind())
	}
	return svc
}

func (svc *catalogService) session(kind catalog.Kind) (*session.Session, error) {
	s, ok := svc.sessions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, kind)
	}
	return s, nil
}

// CheckReadiness implements CatalogService.CheckReadiness
func (svc *catalogService) CheckReadiness(_ context.Context) error {
	if len(svc.sessions) == 0 {
		return fmt.Errorf("%w: no catalogs enabled", ErrNotReady)
	}
	for _, kind := range svc.kinds {
		if svc.sessions[kind].Snapshot().Seq == 0 {
			return fmt.Errorf("%w: %s has no snapshot yet", ErrNotReady, kind)
		}
	}
	return nil
}

// Kinds implements CatalogService.Kinds
func (svc *catalogService) Kinds() []catalog.Kind {
	return append([]catalog.Kind(nil), svc.kinds...)
}

// ListEntries implements CatalogService.ListEntries
func (svc *catalogService) ListEntries(
	ctx context.Context,
	kind catalog.Kind,
	opts ...Option,
) ([]session.Item, error) {
	s, err := svc.session(kind)
	if err != nil {
		return nil, err
	}

	options := &ListEntriesOptions{Mode: sorting.DefaultMode}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if !slices.Contains(sorting.ModesFor(kind), options.Mode) {
		return nil, fmt.Errorf("%w: %q is not offered for %s", sorting.ErrUnknownMode, options.Mode, kind)
	}

	items, err := s.View(ctx, options.Query, options.Mode)
	if err != nil {
		return nil, err
	}

	if options.NewOnly {
		filtered := make([]session.Item, 0, s.NewCount())
		for _, item := range items {
			if item.New {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	if options.Limit > 0 && len(items) > options.Limit {
		items = items[:options.Limit]
	}

	slog.DebugContext(ctx, "Listed catalog entries",
		"kind", kind,
		"query", options.Query,
		"mode", options.Mode,
		"count", len(items))
	return items, nil
}

// GetEntry implements CatalogService.GetEntry
func (svc *catalogService) GetEntry(_ context.Context, kind catalog.Kind, id string) (*session.Item, error) {
	s, err := svc.session(kind)
	if err != nil {
		return nil, err
	}

	entry, ok := s.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	installed := s.IsInstalled(entry.ID())
	return &session.Item{
		Entry:     entry,
		New:       s.IsNew(entry.ID()),
		Installed: installed,
		Action:    catalog.ActionFor(entry, installed),
	}, nil
}

// ListChanges implements CatalogService.ListChanges
func (svc *catalogService) ListChanges(ctx context.Context, kind catalog.Kind) (*Changes, error) {
	items, err := svc.ListEntries(ctx, kind, WithNewOnly())
	if err != nil {
		return nil, err
	}
	return &Changes{
		Kind:  kind,
		Count: len(items),
		Items: items,
	}, nil
}

// AcknowledgeChanges implements CatalogService.AcknowledgeChanges
func (svc *catalogService) AcknowledgeChanges(ctx context.Context, kind catalog.Kind) error {
	s, err := svc.session(kind)
	if err != nil {
		return err
	}
	return s.Acknowledge(ctx)
}

// GetStatus implements CatalogService.GetStatus
func (svc *catalogService) GetStatus(ctx context.Context, kind catalog.Kind) (*session.StatusReport, error) {
	s, err := svc.session(kind)
	if err != nil {
		return nil, err
	}
	return s.Status(ctx)
}

// Refresh implements CatalogService.Refresh
func (svc *catalogService) Refresh(ctx context.Context, kind catalog.Kind) (*session.StatusReport, error) {
	s, err := svc.session(kind)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, &RefreshError{Kind: kind, Err: err}
	}
	return s.Status(ctx)
}

// Package status provides refresh status tracking and persistence for catalogs.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/storage"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

var knownKinds = []catalog.Kind{catalog.KindExtension, catalog.KindTheme}

// StatusPersistence defines the interface for refresh status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the refresh status of a catalog
	SaveStatus(ctx context.Context, kind catalog.Kind, status *RefreshStatus) error

	// LoadStatus loads the refresh status of a catalog
	// Returns an empty RefreshStatus if nothing was saved yet (first run)
	LoadStatus(ctx context.Context, kind catalog.Kind) (*RefreshStatus, error)

	// LoadAllStatus loads the refresh status of every catalog that has one
	LoadAllStatus(ctx context.Context) (map[catalog.Kind]*RefreshStatus, error)
}

// storeStatusPersistence implements StatusPersistence with one storage.Store per catalog
type storeStatusPersistence struct {
	mu       sync.Mutex
	stores   map[catalog.Kind]storage.Store
	newStore func(kind catalog.Kind) storage.Store
}

// NewFileStatusPersistence creates a new file-based status persistence.
// basePath is the base directory where per-catalog status files will be stored.
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &storeStatusPersistence{
		stores: make(map[catalog.Kind]storage.Store),
		newStore: func(kind catalog.Kind) storage.Store {
			return storage.NewFileStore(filepath.Join(basePath, string(kind), StatusFileName))
		},
	}
}

// NewMemoryStatusPersistence creates a status persistence that never touches disk
func NewMemoryStatusPersistence() StatusPersistence {
	return &storeStatusPersistence{
		stores: make(map[catalog.Kind]storage.Store),
		newStore: func(catalog.Kind) storage.Store {
			return storage.NewMemoryStore()
		},
	}
}

func (p *storeStatusPersistence) storeFor(kind catalog.Kind) storage.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.stores[kind]
	if !ok {
		store = p.newStore(kind)
		p.stores[kind] = store
	}
	return store
}

// SaveStatus implements StatusPersistence
func (p *storeStatusPersistence) SaveStatus(ctx context.Context, kind catalog.Kind, status *RefreshStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for catalog '%s': %w", kind, err)
	}
	if err := p.storeFor(kind).Write(ctx, data); err != nil {
		return fmt.Errorf("failed to save status for catalog '%s': %w", kind, err)
	}
	return nil
}

// LoadStatus implements StatusPersistence
func (p *storeStatusPersistence) LoadStatus(ctx context.Context, kind catalog.Kind) (*RefreshStatus, error) {
	data, err := p.storeFor(kind).Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &RefreshStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status for catalog '%s': %w", kind, err)
	}

	var status RefreshStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for catalog '%s': %w", kind, err)
	}
	return &status, nil
}

// LoadAllStatus implements StatusPersistence. Catalogs whose status cannot be
// read are logged and skipped so the rest are still reported.
func (p *storeStatusPersistence) LoadAllStatus(ctx context.Context) (map[catalog.Kind]*RefreshStatus, error) {
	result := make(map[catalog.Kind]*RefreshStatus)
	for _, kind := range knownKinds {
		data, err := p.storeFor(kind).Read(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "Failed to read catalog status", "kind", kind, "error", err)
			continue
		}
		var status RefreshStatus
		if err := json.Unmarshal(data, &status); err != nil {
			slog.WarnContext(ctx, "Ignoring corrupt catalog status", "kind", kind, "error", err)
			continue
		}
		result[kind] = &status
	}
	return result, nil
}

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/storage"
)

var (
	// ErrNoSeenSet is returned when no seen set was ever committed for a catalog
	ErrNoSeenSet = errors.New("no seen set persisted")

	// ErrCorruptSeenSet is returned when the persisted document cannot be decoded
	ErrCorruptSeenSet = errors.New("persisted seen set is corrupt")
)

// seenDocument is the persisted layout. Both catalogs share one document,
// namespaced by kind.
type seenDocument struct {
	SeenIDs map[catalog.Kind][]string `json:"seenIds"`
}

// SeenStore reads and writes per-catalog seen sets in a single storage document
type SeenStore struct {
	store storage.Store
}

// NewSeenStore creates a SeenStore on top of store
func NewSeenStore(store storage.Store) *SeenStore {
	return &SeenStore{store: store}
}

// Load returns the seen set committed for kind
func (s *SeenStore) Load(ctx context.Context, kind catalog.Kind) ([]string, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoSeenSet
		}
		return nil, fmt.Errorf("failed to read seen set: %w", err)
	}

	doc, err := decodeSeenDocument(data)
	if err != nil {
		return nil, err
	}
	ids, ok := doc.SeenIDs[kind]
	if !ok {
		return nil, ErrNoSeenSet
	}
	return ids, nil
}

// Save replaces the seen set for kind, leaving other catalogs untouched.
// A corrupt existing document is replaced.
func (s *SeenStore) Save(ctx context.Context, kind catalog.Kind, ids []string) error {
	return s.store.Update(ctx, func(current []byte) ([]byte, error) {
		doc := &seenDocument{}
		if current != nil {
			decoded, err := decodeSeenDocument(current)
			if err != nil {
				slog.WarnContext(ctx, "Replacing corrupt seen set document", "error", err)
			} else {
				doc = decoded
			}
		}
		if doc.SeenIDs == nil {
			doc.SeenIDs = make(map[catalog.Kind][]string)
		}
		doc.SeenIDs[kind] = ids
		return json.Marshal(doc)
	})
}

func decodeSeenDocument(data []byte) (*seenDocument, error) {
	var doc seenDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSeenSet, err)
	}
	return &doc, nil
}

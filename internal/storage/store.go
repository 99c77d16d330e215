// Package storage persists small documents for the catalog browser.
//
// A Store holds exactly one document. FileStore keeps it on disk behind an
// advisory lock so several processes sharing a state directory never
// interleave their writes; MemoryStore keeps it in memory for tests and for
// hosts that do not want anything written to disk.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no document has been written yet
var ErrNotFound = errors.New("document not found")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is a single-document key/value store
type Store interface {
	// Read returns the stored document, or ErrNotFound when none exists
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the stored document
	Write(ctx context.Context, data []byte) error

	// Update performs an atomic read-modify-write. fn receives the current
	// document, or nil when none exists, and returns the replacement.
	Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

var (
	// ErrNothingToCommit is returned by Commit before any snapshot was observed
	ErrNothingToCommit = errors.New("no snapshot observed, nothing to commit")

	// ErrStorage wraps failures of the persistent storage collaborator
	ErrStorage = errors.New("seen set storage failure")
)

// Phase is the state of a Tracker within a browse session
type Phase string

const (
	// PhaseIdle means no snapshot has been observed yet
	PhaseIdle Phase = "Idle"

	// PhaseChecked means a snapshot was observed and the diff is computable
	PhaseChecked Phase = "Checked"

	// PhaseCommitted means the latest snapshot was promoted into the seen set
	PhaseCommitted Phase = "Committed"
)

type seenState int

const (
	// seenMissing covers a first run and an empty committed set. No
	// entries are flagged until a commit has happened.
	seenMissing seenState = iota
	seenLoaded
	// seenDegraded means the stored set could not be read. It is treated
	// as empty so every entry is flagged.
	seenDegraded
)

// Tracker computes which entries of the latest snapshot are new relative to
// the persisted seen set. Only Commit and CommitIDs write the seen set.
type Tracker struct {
	kind  catalog.Kind
	store *SeenStore

	mu           stdsync.RWMutex
	phase        Phase
	seen         map[string]struct{}
	seenState    seenState
	observed     bool
	appliedStamp uint64
	latestIDs    []string
	newIDs       []string
	newSet       map[string]struct{}
}

// NewTracker creates a tracker for one catalog
func NewTracker(kind catalog.Kind, store *SeenStore) *Tracker {
	return &Tracker{
		kind:   kind,
		store:  store,
		phase:  PhaseIdle,
		seen:   map[string]struct{}{},
		newSet: map[string]struct{}{},
	}
}

// Load reads the persisted seen set. A missing set is not an error. An
// unreadable set leaves the tracker degraded and returns an error wrapping
// ErrStorage; the tracker stays usable either way.
func (t *Tracker) Load(ctx context.Context) error {
	ids, err := t.store.Load(ctx, t.kind)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case errors.Is(err, ErrNoSeenSet):
		t.setSeen(nil)
		slog.DebugContext(ctx, "No seen set persisted yet", "kind", t.kind)
	case err != nil:
		t.seen = map[string]struct{}{}
		t.seenState = seenDegraded
		t.recompute()
		return fmt.Errorf("%w: %w", ErrStorage, err)
	default:
		t.setSeen(ids)
		slog.DebugContext(ctx, "Loaded seen set", "kind", t.kind, "count", len(ids))
	}
	t.recompute()
	return nil
}

// Observe records the identifiers of a freshly applied snapshot. A stamp
// older than the last applied one is discarded and Observe returns false.
func (t *Tracker) Observe(stamp uint64, ids []string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.observed && stamp < t.appliedStamp {
		return false
	}
	t.observed = true
	t.appliedStamp = stamp
	t.latestIDs = append([]string(nil), ids...)
	t.recompute()
	t.phase = PhaseChecked
	return true
}

// Commit promotes the latest observed snapshot into the seen set
func (t *Tracker) Commit(ctx context.Context) error {
	t.mu.RLock()
	observed := t.observed
	ids := append([]string(nil), t.latestIDs...)
	t.mu.RUnlock()

	if !observed {
		return ErrNothingToCommit
	}
	return t.CommitIDs(ctx, ids)
}

// CommitIDs overwrites the persisted seen set with ids. On a storage
// failure the in-memory state is left unchanged.
func (t *Tracker) CommitIDs(ctx context.Context, ids []string) error {
	unique := uniqueIDs(ids)
	if err := t.store.Save(ctx, t.kind, unique); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.setSeen(unique)
	t.recompute()
	t.phase = PhaseCommitted

	slog.DebugContext(ctx, "Committed seen set", "kind", t.kind, "count", len(unique))
	return nil
}

// NewIDs returns the identifiers flagged as new, in snapshot order
func (t *Tracker) NewIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.newIDs...)
}

// IsNew reports whether id is flagged as new
func (t *Tracker) IsNew(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.newSet[id]
	return ok
}

// NewCount returns the number of identifiers flagged as new
func (t *Tracker) NewCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.newIDs)
}

// Phase returns the current session phase
func (t *Tracker) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// Kind returns the catalog this tracker follows
func (t *Tracker) Kind() catalog.Kind {
	return t.kind
}

func (t *Tracker) setSeen(ids []string) {
	t.seen = catalog.IDSet(ids)
	if len(ids) == 0 {
		t.seenState = seenMissing
		return
	}
	t.seenState = seenLoaded
}

// recompute must be called with mu held for writing
func (t *Tracker) recompute() {
	if !t.observed || t.seenState == seenMissing || len(t.latestIDs) == 0 {
		t.newIDs = nil
		t.newSet = map[string]struct{}{}
		return
	}
	t.newIDs = diffAgainstSet(t.latestIDs, t.seen)
	t.newSet = catalog.IDSet(t.newIDs)
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

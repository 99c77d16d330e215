package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/otel"
	"github.com/stacklok/toolhive-catalog-browser/internal/ranking"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	"github.com/stacklok/toolhive-catalog-browser/internal/sync/coordinator"
	"github.com/stacklok/toolhive-catalog-browser/internal/telemetry"
)

// viewModeRank is the metrics label for query views
const viewModeRank = "rank"

// ErrTrackingDisabled is returned by Acknowledge when the catalog does not track changes
var ErrTrackingDisabled = errors.New("change tracking is disabled for this catalog")

// Snapshot is an applied catalog fetch. It is never modified once published.
type Snapshot struct {
	Entries   []catalog.Entry
	Hash      string
	Seq       uint64
	FetchedAt time.Time
}

// Item is one displayed entry of a view
type Item struct {
	Entry catalog.Entry `json:"entry"`
	// Score is the relevance score for query views, zero for sorted views
	Score     float64        `json:"score,omitempty"`
	New       bool           `json:"new"`
	Installed bool           `json:"installed"`
	Action    catalog.Action `json:"action"`
}

// Session is a browse session over one catalog
type Session struct {
	id         uuid.UUID
	kind       catalog.Kind
	catalogCfg *config.CatalogConfig
	manager    pkgsync.Manager

	tracker           *pkgsync.Tracker
	statusPersistence status.StatusPersistence
	scheduler         pkgsync.RefreshScheduler

	ranker    *ranking.Engine
	sorter    *sorting.Sorter
	installed catalog.InstallChecker

	snapshot atomic.Pointer[Snapshot]
	stamps   atomic.Uint64
	applyMu  sync.Mutex

	interval          time.Duration
	jitter            time.Duration
	backgroundRefresh bool
	commitOnStop      bool

	lifecycleMu sync.Mutex
	coordinator coordinator.Coordinator
	running     bool
	cancelLoop  context.CancelFunc
	loopDone    chan struct{}

	refreshMetrics *telemetry.RefreshMetrics
	catalogMetrics *telemetry.CatalogMetrics
	viewMetrics    *telemetry.ViewMetrics
	tracer         trace.Tracer
}

// New creates a session. Nothing is fetched until Start or Reload.
func New(kind catalog.Kind, catalogCfg *config.CatalogConfig, manager pkgsync.Manager, opts ...Option) *Session {
	s := &Session{
		id:                uuid.New(),
		kind:              kind,
		catalogCfg:        catalogCfg,
		manager:           manager,
		statusPersistence: status.NewMemoryStatusPersistence(),
		scheduler:         &pkgsync.DefaultRefreshScheduler{},
		ranker:            ranking.NewEngine(),
		sorter:            sorting.NewSorter(),
		installed:         catalog.NewStaticInstallChecker(nil),
		interval:          config.DefaultRefreshInterval,
		backgroundRefresh: true,
		commitOnStop:      true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.snapshot.Store(&Snapshot{Entries: []catalog.Entry{}})
	s.coordinator = s.newCoordinator()
	return s
}

func (s *Session) newCoordinator() coordinator.Coordinator {
	return coordinator.New(s, s.statusPersistence, s.kind, s.interval, s.jitter,
		coordinator.WithInitialRefresh(false),
		coordinator.WithRefreshMetrics(s.refreshMetrics),
		coordinator.WithCatalogMetrics(s.catalogMetrics),
	)
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id.String()
}

// Kind returns the catalog this session browses
func (s *Session) Kind() catalog.Kind {
	return s.kind
}

// Start loads the seen set, fetches the catalog once and starts the periodic
// refresh. A failed fetch is returned as a *sync.Error but leaves the session
// running on an empty snapshot, so callers may report it and carry on.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	if s.running {
		s.lifecycleMu.Unlock()
		return fmt.Errorf("session %s already started", s.id)
	}
	s.running = true
	coord := s.coordinator
	s.lifecycleMu.Unlock()

	slog.InfoContext(ctx, "Starting browse session", "kind", s.kind, "session_id", s.id)

	if s.tracker != nil {
		if err := s.tracker.Load(ctx); err != nil {
			slog.WarnContext(ctx, "Seen set unavailable, every entry will be flagged as new",
				"kind", s.kind,
				"error", err)
		}
	}

	refreshErr := coord.RefreshNow(ctx)

	if s.backgroundRefresh {
		loopCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		s.lifecycleMu.Lock()
		s.cancelLoop = cancel
		s.loopDone = done
		s.lifecycleMu.Unlock()
		go func() {
			defer close(done)
			if err := coord.Start(loopCtx); err != nil {
				slog.Error("Refresh coordinator failed", "kind", s.kind, "error", err)
			}
		}()
	}

	return refreshErr
}

// Stop ends the session: background refresh stops and, unless disabled with
// WithCommitOnStop, the latest snapshot is committed to the seen set. The
// session may be started again afterwards.
func (s *Session) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	if !s.running {
		s.lifecycleMu.Unlock()
		return nil
	}
	coord := s.coordinator
	cancel := s.cancelLoop
	done := s.loopDone
	s.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := coord.Stop(); err != nil {
		slog.WarnContext(ctx, "Failed to stop refresh coordinator", "kind", s.kind, "error", err)
	}
	if done != nil {
		<-done
	}

	var commitErr error
	if s.tracker != nil && s.commitOnStop {
		commitErr = s.tracker.Commit(ctx)
		if errors.Is(commitErr, pkgsync.ErrNothingToCommit) {
			commitErr = nil
		}
	}

	s.lifecycleMu.Lock()
	s.running = false
	s.cancelLoop = nil
	s.loopDone = nil
	s.coordinator = s.newCoordinator()
	s.lifecycleMu.Unlock()

	if commitErr != nil {
		return fmt.Errorf("failed to commit seen set: %w", commitErr)
	}
	slog.InfoContext(ctx, "Browse session ended", "kind", s.kind, "session_id", s.id)
	return nil
}

// Acknowledge commits the current snapshot to the seen set without ending
// the session. The new flags clear immediately.
func (s *Session) Acknowledge(ctx context.Context) error {
	if s.tracker == nil {
		return ErrTrackingDisabled
	}
	if err := s.tracker.Commit(ctx); err != nil {
		return fmt.Errorf("failed to acknowledge changes: %w", err)
	}
	slog.InfoContext(ctx, "Changes acknowledged", "kind", s.kind, "session_id", s.id)
	return nil
}

// Reload fetches the catalog now. It is stamped like every other fetch.
func (s *Session) Reload(ctx context.Context) error {
	s.lifecycleMu.Lock()
	coord := s.coordinator
	s.lifecycleMu.Unlock()
	return coord.RefreshNow(ctx)
}

// Refresh fetches and applies one snapshot. It implements coordinator.Refresher.
func (s *Session) Refresh(ctx context.Context) (*pkgsync.Result, *pkgsync.Error) {
	stamp := s.stamps.Add(1)

	ctx, span := otel.StartSpan(ctx, s.tracer, "session.Refresh",
		otel.CatalogAttributes(s.kind, s.id.String()))
	defer span.End()

	result, syncErr := s.manager.PerformSync(ctx, s.kind, s.catalogCfg)
	if syncErr != nil {
		otel.MarkFailed(span, syncErr)
		return nil, syncErr
	}

	if !s.apply(stamp, result) {
		s.refreshMetrics.RecordStaleDiscarded(ctx, s.kind)
		current := s.Snapshot()
		slog.InfoContext(ctx, "Discarding stale snapshot",
			"kind", s.kind,
			"stamp", stamp,
			"applied_stamp", current.Seq)
		return &pkgsync.Result{
			Kind:     s.kind,
			Entries:  current.Entries,
			Hash:     current.Hash,
			Count:    len(current.Entries),
			NewCount: s.NewCount(),
		}, nil
	}

	result.NewCount = s.NewCount()
	span.SetAttributes(
		otel.AttrResultCount.Int(result.Count),
		otel.AttrNewCount.Int(result.NewCount),
	)
	return result, nil
}

// apply publishes result unless a newer stamp has already been applied
func (s *Session) apply(stamp uint64, result *pkgsync.Result) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if stamp < s.snapshot.Load().Seq {
		return false
	}

	s.snapshot.Store(&Snapshot{
		Entries:   result.Entries,
		Hash:      result.Hash,
		Seq:       stamp,
		FetchedAt: time.Now(),
	})
	if s.tracker != nil {
		s.tracker.Observe(stamp, catalog.IDs(result.Entries))
	}
	return true
}

// Snapshot returns the currently applied snapshot, never nil
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// View ranks the snapshot when query is non-empty and sorts it by mode otherwise
func (s *Session) View(ctx context.Context, query string, mode sorting.Mode) (_ []Item, retErr error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "session.View",
		otel.CatalogAttributes(s.kind, s.id.String()),
		trace.WithAttributes(otel.AttrQueryLength.Int(len(query))),
	)
	defer otel.Finish(span, &retErr)

	start := time.Now()
	snap := s.Snapshot()

	var (
		results []ranking.Result
		label   string
	)
	if strings.TrimSpace(query) != "" {
		ranked, err := s.ranker.RankResults(query, snap.Entries)
		if err != nil {
			return nil, err
		}
		results = ranked
		label = viewModeRank
	} else {
		sorted, err := s.sorter.SortBy(mode, snap.Entries)
		if err != nil {
			return nil, err
		}
		results = make([]ranking.Result, len(sorted))
		for i, entry := range sorted {
			results[i] = ranking.Result{Entry: entry}
		}
		label = string(mode)
	}

	items := make([]Item, len(results))
	for i, r := range results {
		installed := s.installed.IsInstalled(r.Entry.ID())
		items[i] = Item{
			Entry:     r.Entry,
			Score:     r.Score,
			New:       s.IsNew(r.Entry.ID()),
			Installed: installed,
			Action:    catalog.ActionFor(r.Entry, installed),
		}
	}

	span.SetAttributes(
		otel.AttrSortMode.String(label),
		otel.AttrResultCount.Int(len(items)),
		attribute.Bool("view.ranked", label == viewModeRank),
	)
	s.viewMetrics.RecordView(ctx, s.kind, label, time.Since(start))
	return items, nil
}

// IsNew reports whether the entry is flagged as new since the last session
func (s *Session) IsNew(id string) bool {
	if s.tracker == nil {
		return false
	}
	return s.tracker.IsNew(catalog.Canonicalize(id))
}

// NewIDs returns the identifiers flagged as new, in snapshot order
func (s *Session) NewIDs() []string {
	if s.tracker == nil {
		return []string{}
	}
	return s.tracker.NewIDs()
}

// NewCount returns how many entries are flagged as new
func (s *Session) NewCount() int {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.NewCount()
}

// IsInstalled reports whether the host has the entry installed
func (s *Session) IsInstalled(id string) bool {
	return s.installed.IsInstalled(id)
}

// Lookup returns the entry with the given install URL from the current snapshot
func (s *Session) Lookup(id string) (catalog.Entry, bool) {
	id = catalog.Canonicalize(id)
	for _, entry := range s.Snapshot().Entries {
		if entry.ID() == id {
			return entry, true
		}
	}
	return nil, false
}

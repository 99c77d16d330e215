package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/otel"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	"github.com/stacklok/toolhive-catalog-browser/internal/storage"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
	syncmocks "github.com/stacklok/toolhive-catalog-browser/internal/sync/mocks"
)

var testCatalogConfig = &config.CatalogConfig{URL: "https://cat.dev/extensions.json"}

func ext(name string, st catalog.Status, installURL string) *catalog.Extension {
	return &catalog.Extension{
		Meta:   catalog.Meta{Name: name, InstallURL: installURL},
		Status: st,
	}
}

func result(hash string, entries ...catalog.Entry) *pkgsync.Result {
	return &pkgsync.Result{
		Kind:    catalog.KindExtension,
		Entries: entries,
		Hash:    hash,
		Count:   len(entries),
	}
}

func itemNames(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Entry.Info().Name
	}
	return out
}

func newTracker(store storage.Store) *pkgsync.Tracker {
	return pkgsync.NewTracker(catalog.KindExtension, pkgsync.NewSeenStore(store))
}

func TestSession_NewSinceLastSession(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	alpha := ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")
	beta := ext("Beta", catalog.StatusBroken, "https://cat.dev/b/")

	mockManager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h1", alpha), nil),
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h2", alpha, beta), nil),
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h2", alpha, beta), nil),
	)

	seen := storage.NewMemoryStore()
	persistence := status.NewMemoryStatusPersistence()

	// First session: nothing persisted yet, nothing is new
	first := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithTracker(newTracker(seen)),
		WithStatusPersistence(persistence),
		WithBackgroundRefresh(false))
	require.NoError(t, first.Start(ctx))
	assert.Zero(t, first.NewCount())
	require.NoError(t, first.Stop(ctx))

	// Second session: Beta appeared since the committed snapshot
	second := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithTracker(newTracker(seen)),
		WithStatusPersistence(persistence),
		WithBackgroundRefresh(false))
	require.NoError(t, second.Start(ctx))
	assert.Equal(t, 1, second.NewCount())
	assert.True(t, second.IsNew("https://cat.dev/b"))
	assert.False(t, second.IsNew("https://cat.dev/a/"))
	assert.Equal(t, []string{"https://cat.dev/b/"}, second.NewIDs())

	items, err := second.View(ctx, "", sorting.NameAZ)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].New)
	assert.True(t, items[1].New)

	refreshStatus, err := persistence.LoadStatus(ctx, catalog.KindExtension)
	require.NoError(t, err)
	assert.Equal(t, status.RefreshPhaseComplete, refreshStatus.Phase)
	assert.Equal(t, 2, refreshStatus.EntryCount)
	assert.Equal(t, 1, refreshStatus.NewCount)

	// Reloading mid-session never commits
	require.NoError(t, second.Reload(ctx))
	assert.Equal(t, 1, second.NewCount())

	require.NoError(t, second.Stop(ctx))
}

func TestSession_StopWithoutCommitKeepsNewEntries(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	alpha := ext("Alpha", catalog.StatusWorking, "https://cat.dev/a")
	beta := ext("Beta", catalog.StatusWorking, "https://cat.dev/b")

	mockManager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h1", alpha), nil),
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h2", alpha, beta), nil).
			Times(2),
	)

	seen := storage.NewMemoryStore()
	newSession := func(opts ...Option) *Session {
		opts = append(opts, WithTracker(newTracker(seen)), WithBackgroundRefresh(false))
		return New(catalog.KindExtension, testCatalogConfig, mockManager, opts...)
	}

	first := newSession()
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.Stop(ctx))

	readOnly := newSession(WithCommitOnStop(false))
	require.NoError(t, readOnly.Start(ctx))
	assert.Equal(t, 1, readOnly.NewCount())
	require.NoError(t, readOnly.Stop(ctx))

	next := newSession()
	require.NoError(t, next.Start(ctx))
	assert.Equal(t, 1, next.NewCount(), "a stop without commit must not clear the new flags")
	assert.True(t, next.IsNew("https://cat.dev/b"))
	require.NoError(t, next.Stop(ctx))
}

func TestSession_StartFetchFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	fetchErr := errors.New("connection refused")
	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
		Return(nil, &pkgsync.Error{
			Err:     fetchErr,
			Message: "failed to fetch catalog: connection refused",
			Reason:  pkgsync.ReasonFetchFailed,
		})

	seen := storage.NewMemoryStore()
	s := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithTracker(newTracker(seen)),
		WithBackgroundRefresh(false))

	err := s.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)

	var syncErr *pkgsync.Error
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, pkgsync.ReasonFetchFailed, syncErr.Reason)

	// The session stays usable on an empty snapshot
	items, err := s.View(ctx, "", sorting.DefaultMode)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = s.View(ctx, "alpha", sorting.DefaultMode)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Nothing observed, so nothing is committed
	require.NoError(t, s.Stop(ctx))
	_, err = seen.Read(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSession_FailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	alpha := ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")
	mockManager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		mockManager.EXPECT().
			PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(result("h1", alpha), nil),
		mockManager.EXPECT().
			PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &pkgsync.Error{Message: "failed to parse catalog", Reason: pkgsync.ReasonParseFailed}),
	)

	s := New(catalog.KindExtension, testCatalogConfig, mockManager, WithBackgroundRefresh(false))
	require.NoError(t, s.Start(ctx))
	before := s.Snapshot()

	require.Error(t, s.Reload(ctx))
	assert.Same(t, before, s.Snapshot())
	assert.Len(t, s.Snapshot().Entries, 1)
}

func TestSession_StaleFetchIsDiscarded(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	old := ext("Old", catalog.StatusWorking, "https://cat.dev/old/")
	fresh := ext("Fresh", catalog.StatusWorking, "https://cat.dev/fresh/")

	entered := make(chan struct{})
	release := make(chan struct{})

	mockManager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		mockManager.EXPECT().
			PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, catalog.Kind, *config.CatalogConfig) (*pkgsync.Result, *pkgsync.Error) {
				close(entered)
				<-release
				return result("old", old), nil
			}),
		mockManager.EXPECT().
			PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(result("fresh", fresh), nil),
	)

	seen := storage.NewMemoryStore()
	tracker := newTracker(seen)
	require.NoError(t, tracker.Load(ctx))
	s := New(catalog.KindExtension, testCatalogConfig, mockManager, WithTracker(tracker))

	slowDone := make(chan *pkgsync.Result, 1)
	go func() {
		res, _ := s.Refresh(ctx)
		slowDone <- res
	}()
	<-entered

	// A newer fetch lands first
	res, syncErr := s.Refresh(ctx)
	require.Nil(t, syncErr)
	assert.Equal(t, "fresh", res.Hash)

	close(release)
	select {
	case slow := <-slowDone:
		require.NotNil(t, slow)
		assert.Equal(t, "fresh", slow.Hash, "stale result reports the applied snapshot")
	case <-time.After(2 * time.Second):
		t.Fatal("slow refresh did not complete")
	}

	snap := s.Snapshot()
	assert.Equal(t, "fresh", snap.Hash)
	assert.Equal(t, uint64(2), snap.Seq)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "Fresh", snap.Entries[0].Info().Name)

	// The committed seen set follows the applied snapshot
	require.NoError(t, tracker.Commit(ctx))
	ids, err := pkgsync.NewSeenStore(seen).Load(ctx, catalog.KindExtension)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cat.dev/fresh/"}, ids)
}

func TestSession_ViewRanksQuery(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	alpha := &catalog.Extension{
		Meta:   catalog.Meta{Name: "Alpha Tool", InstallURL: "https://cat.dev/1/"},
		Status: catalog.StatusWorking,
	}
	beta := &catalog.Extension{
		Meta:   catalog.Meta{Name: "Beta", InstallURL: "https://cat.dev/2/"},
		Status: catalog.StatusBroken,
	}
	gamma := &catalog.Extension{
		Meta:           catalog.Meta{Name: "Gamma", Description: "alpha feature", InstallURL: "https://cat.dev/3/"},
		Status:         catalog.StatusWarning,
		WarningMessage: "slow on large chats",
	}

	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(result("h", gamma, beta, alpha), nil)

	s := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithBackgroundRefresh(false),
		WithInstallChecker(catalog.NewStaticInstallChecker([]string{"https://cat.dev/1"})))
	require.NoError(t, s.Start(ctx))

	items, err := s.View(ctx, "alpha", sorting.DefaultMode)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Tool", "Gamma"}, itemNames(items))
	assert.Greater(t, items[0].Score, items[1].Score)

	assert.True(t, items[0].Installed)
	assert.Equal(t, catalog.ActionUninstall, items[0].Action.Label)

	assert.False(t, items[1].Installed)
	assert.Equal(t, catalog.ActionInstall, items[1].Action.Label)
	assert.True(t, items[1].Action.Confirm)
	assert.Equal(t, "slow on large chats", items[1].Action.Detail)

	sorted, err := s.View(ctx, "", sorting.BrokenFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "Alpha Tool", "Gamma"}, itemNames(sorted))
	for _, item := range sorted {
		assert.Zero(t, item.Score)
	}

	_, err = s.View(ctx, "", sorting.Mode("stars"))
	assert.ErrorIs(t, err, sorting.ErrUnknownMode)

	entry, ok := s.Lookup("https://cat.dev/2")
	require.True(t, ok)
	assert.Equal(t, "Beta", entry.Info().Name)
	assert.True(t, s.IsInstalled("https://cat.dev/1/"))
}

func TestSession_WithoutTracking(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(result("h", ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")), nil)

	s := New(catalog.KindExtension, testCatalogConfig, mockManager, WithBackgroundRefresh(false))
	require.NoError(t, s.Start(ctx))

	assert.False(t, s.IsNew("https://cat.dev/a/"))
	assert.Zero(t, s.NewCount())
	assert.Empty(t, s.NewIDs())
	require.NoError(t, s.Stop(ctx))
}

func TestSession_BackgroundRefresh(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	calls := make(chan struct{}, 100)
	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, catalog.Kind, *config.CatalogConfig) (*pkgsync.Result, *pkgsync.Error) {
			select {
			case calls <- struct{}{}:
			default:
			}
			return result("h", ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")), nil
		}).
		MinTimes(2)

	s := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithRefreshSchedule(10*time.Millisecond, 0))
	require.NoError(t, s.Start(ctx))

	// Initial fetch plus one periodic refresh
	for range 2 {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("expected a periodic refresh")
		}
	}

	report, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), report.SessionID)
	assert.NotNil(t, report.NextRefresh)
	assert.Equal(t, 1, report.EntryCount)

	require.NoError(t, s.Stop(ctx))

	// A stopped session can be started again
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
}

func TestSession_StartTwice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(result("h"), nil)

	s := New(catalog.KindExtension, testCatalogConfig, mockManager, WithBackgroundRefresh(false))
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}

func TestSession_Status(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	mockManager := syncmocks.NewMockManager(ctrl)
	tracker := newTracker(storage.NewMemoryStore())
	s := New(catalog.KindExtension, testCatalogConfig, mockManager, WithTracker(tracker))

	report, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.KindExtension, report.Kind)
	assert.True(t, report.Tracking)
	assert.Equal(t, pkgsync.PhaseIdle, report.TrackerPhase)
	assert.Nil(t, report.NextRefresh, "not scheduled before Start")
	assert.Zero(t, report.EntryCount)
}

func TestSession_Acknowledge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	alpha := ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")
	beta := ext("Beta", catalog.StatusWorking, "https://cat.dev/b/")

	t.Run("clears new flags", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockManager := syncmocks.NewMockManager(ctrl)
		mockManager.EXPECT().
			PerformSync(gomock.Any(), catalog.KindExtension, testCatalogConfig).
			Return(result("h1", alpha, beta), nil)

		seen := storage.NewMemoryStore()
		require.NoError(t, pkgsync.NewSeenStore(seen).Save(ctx, catalog.KindExtension, []string{"https://cat.dev/a/"}))

		s := New(catalog.KindExtension, testCatalogConfig, mockManager,
			WithTracker(newTracker(seen)),
			WithBackgroundRefresh(false))
		require.NoError(t, s.Start(ctx))
		t.Cleanup(func() { _ = s.Stop(ctx) })

		assert.True(t, s.IsNew("https://cat.dev/b"))
		require.NoError(t, s.Acknowledge(ctx))
		assert.Zero(t, s.NewCount())
		assert.False(t, s.IsNew("https://cat.dev/b/"))

		ids, err := pkgsync.NewSeenStore(seen).Load(ctx, catalog.KindExtension)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://cat.dev/a/", "https://cat.dev/b/"}, ids)
	})

	t.Run("fails without tracking", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		s := New(catalog.KindExtension, testCatalogConfig, syncmocks.NewMockManager(ctrl),
			WithBackgroundRefresh(false))
		assert.ErrorIs(t, s.Acknowledge(ctx), ErrTrackingDisabled)
	})
}

func TestSession_Tracing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mockManager := syncmocks.NewMockManager(ctrl)
	mockManager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(result("h", ext("Alpha", catalog.StatusWorking, "https://cat.dev/a/")), nil)

	seen := storage.NewMemoryStore()
	require.NoError(t, pkgsync.NewSeenStore(seen).Save(ctx, catalog.KindExtension, []string{"https://cat.dev/z/"}))

	s := New(catalog.KindExtension, testCatalogConfig, mockManager,
		WithBackgroundRefresh(false),
		WithTracker(newTracker(seen)),
		WithTracer(tp.Tracer("test")))
	require.NoError(t, s.Start(ctx))

	_, err := s.View(ctx, "alp", sorting.DefaultMode)
	require.NoError(t, err)
	_, err = s.View(ctx, "", sorting.Mode("stars"))
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	assert.Equal(t, "session.Refresh", spans[0].Name)
	refreshAttrs := map[string]any{}
	for _, attr := range spans[0].Attributes {
		refreshAttrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.Equal(t, "extensions", refreshAttrs[string(otel.AttrCatalogKind)])
	assert.Equal(t, s.ID(), refreshAttrs[string(otel.AttrSessionID)])
	assert.EqualValues(t, 1, refreshAttrs[string(otel.AttrResultCount)])
	assert.EqualValues(t, 1, refreshAttrs[string(otel.AttrNewCount)])

	assert.Equal(t, "session.View", spans[1].Name)
	viewAttrs := map[string]any{}
	for _, attr := range spans[1].Attributes {
		viewAttrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.EqualValues(t, 3, viewAttrs[string(otel.AttrQueryLength)])
	assert.Equal(t, "rank", viewAttrs[string(otel.AttrSortMode)])
	assert.Equal(t, codes.Unset, spans[1].Status.Code)

	assert.Equal(t, "session.View", spans[2].Name)
	assert.Equal(t, codes.Error, spans[2].Status.Code)
}

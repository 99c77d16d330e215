package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	statusmocks "github.com/stacklok/toolhive-catalog-browser/internal/status/mocks"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
)

// refresherFunc adapts a function to the Refresher interface
type refresherFunc func(ctx context.Context) (*pkgsync.Result, *pkgsync.Error)

func (f refresherFunc) Refresh(ctx context.Context) (*pkgsync.Result, *pkgsync.Error) {
	return f(ctx)
}

func succeedingRefresher(calls *atomic.Int32) Refresher {
	return refresherFunc(func(context.Context) (*pkgsync.Result, *pkgsync.Error) {
		calls.Add(1)
		return &pkgsync.Result{Kind: catalog.KindExtension, Hash: "abcdef0123456789", Count: 3, NewCount: 1}, nil
	})
}

func TestCalculateInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   time.Duration
		jitter time.Duration
	}{
		{name: "no jitter returns base", base: time.Minute, jitter: 0},
		{name: "negative jitter returns base", base: time.Minute, jitter: -time.Second},
		{name: "jitter stays within bounds", base: time.Minute, jitter: 10 * time.Second},
		{name: "jitter larger than base never goes non-positive", base: time.Second, jitter: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for range 100 {
				got := calculateInterval(tt.base, tt.jitter)
				assert.Positive(t, got)
				if tt.jitter <= 0 {
					assert.Equal(t, tt.base, got)
					continue
				}
				if tt.jitter < tt.base {
					assert.GreaterOrEqual(t, got, tt.base-tt.jitter)
					assert.Less(t, got, tt.base+tt.jitter)
				}
			}
		})
	}
}

func TestCoordinator_New(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	coordinator := New(succeedingRefresher(&calls), status.NewMemoryStatusPersistence(),
		catalog.KindExtension, time.Minute, 0)

	require.NotNil(t, coordinator)
}

func TestCoordinator_Stop_BeforeStart(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	coordinator := New(succeedingRefresher(&calls), status.NewMemoryStatusPersistence(),
		catalog.KindExtension, time.Minute, 0)

	// Stop should not panic if called before Start
	err := coordinator.Stop()
	assert.NoError(t, err)
}

func TestCoordinator_StartStop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	persistence := status.NewMemoryStatusPersistence()
	coordinator := New(succeedingRefresher(&calls), persistence,
		catalog.KindExtension, 10*time.Millisecond, 0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Start(context.Background())
	}()

	// Initial refresh plus at least one periodic tick
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, coordinator.Stop())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	refreshStatus, err := persistence.LoadStatus(context.Background(), catalog.KindExtension)
	require.NoError(t, err)
	assert.Equal(t, status.RefreshPhaseComplete, refreshStatus.Phase)
	assert.Equal(t, 3, refreshStatus.EntryCount)
	assert.Equal(t, 1, refreshStatus.NewCount)
}

func TestCoordinator_StartTwice(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	coordinator := New(succeedingRefresher(&calls), status.NewMemoryStatusPersistence(),
		catalog.KindTheme, time.Hour, 0, WithInitialRefresh(false)).(*defaultCoordinator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		coordinator.lifecycleMu.Lock()
		defer coordinator.lifecycleMu.Unlock()
		return coordinator.cancelFunc != nil
	}, time.Second, 5*time.Millisecond)

	err := coordinator.Start(ctx)
	require.EqualError(t, err, "coordinator already started")

	require.NoError(t, coordinator.Stop())
	assert.NoError(t, <-errCh)
	assert.Zero(t, calls.Load(), "initial refresh was disabled")
}

func TestCoordinator_ContextCancellationStopsLoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	coordinator := New(succeedingRefresher(&calls), status.NewMemoryStatusPersistence(),
		catalog.KindExtension, time.Hour, 0, WithInitialRefresh(false))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.Start(ctx)
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestPerformRefresh_Success(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPersistence := statusmocks.NewMockStatusPersistence(ctrl)
	previous := &status.RefreshStatus{
		Phase:        status.RefreshPhaseFailed,
		AttemptCount: 2,
		LastSyncHash: "old-hash",
	}

	gomock.InOrder(
		mockPersistence.EXPECT().
			LoadStatus(gomock.Any(), catalog.KindExtension).
			Return(previous, nil),
		mockPersistence.EXPECT().
			SaveStatus(gomock.Any(), catalog.KindExtension, gomock.Any()).
			Do(func(_ context.Context, _ catalog.Kind, refreshStatus *status.RefreshStatus) {
				assert.Equal(t, status.RefreshPhaseRefreshing, refreshStatus.Phase)
				assert.Equal(t, 3, refreshStatus.AttemptCount)
				assert.NotNil(t, refreshStatus.LastAttempt)
				assert.Equal(t, "1m0s", refreshStatus.RefreshInterval)
			}).
			Return(nil),
		mockPersistence.EXPECT().
			SaveStatus(gomock.Any(), catalog.KindExtension, gomock.Any()).
			Do(func(_ context.Context, _ catalog.Kind, refreshStatus *status.RefreshStatus) {
				assert.Equal(t, status.RefreshPhaseComplete, refreshStatus.Phase)
				assert.Equal(t, "Refresh completed successfully", refreshStatus.Message)
				assert.Equal(t, "abcdef0123456789", refreshStatus.LastSyncHash)
				assert.Equal(t, 3, refreshStatus.EntryCount)
				assert.Equal(t, 1, refreshStatus.NewCount)
				assert.Zero(t, refreshStatus.AttemptCount)
				assert.NotNil(t, refreshStatus.LastSyncTime)
			}).
			Return(nil),
	)

	var calls atomic.Int32
	coord := New(succeedingRefresher(&calls), mockPersistence, catalog.KindExtension, time.Minute, 0)

	err := coord.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPerformRefresh_Failure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPersistence := statusmocks.NewMockStatusPersistence(ctrl)
	mockPersistence.EXPECT().
		LoadStatus(gomock.Any(), catalog.KindTheme).
		Return(&status.RefreshStatus{}, nil)
	mockPersistence.EXPECT().
		SaveStatus(gomock.Any(), catalog.KindTheme, gomock.Any()).
		Return(nil)
	mockPersistence.EXPECT().
		SaveStatus(gomock.Any(), catalog.KindTheme, gomock.Any()).
		Do(func(_ context.Context, _ catalog.Kind, refreshStatus *status.RefreshStatus) {
			assert.Equal(t, status.RefreshPhaseFailed, refreshStatus.Phase)
			assert.Equal(t, "failed to fetch catalog: connection refused", refreshStatus.Message)
			assert.Equal(t, 1, refreshStatus.AttemptCount)
			assert.Nil(t, refreshStatus.LastSyncTime)
		}).
		Return(nil)

	fetchErr := errors.New("connection refused")
	refresher := refresherFunc(func(context.Context) (*pkgsync.Result, *pkgsync.Error) {
		return nil, &pkgsync.Error{
			Err:     fetchErr,
			Message: "failed to fetch catalog: connection refused",
			Reason:  pkgsync.ReasonFetchFailed,
		}
	})

	coord := New(refresher, mockPersistence, catalog.KindTheme, time.Minute, 0)

	err := coord.RefreshNow(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)

	var refreshErr *pkgsync.Error
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, pkgsync.ReasonFetchFailed, refreshErr.Reason)
}

func TestPerformRefresh_StatusLoadFailureStartsFresh(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPersistence := statusmocks.NewMockStatusPersistence(ctrl)
	mockPersistence.EXPECT().
		LoadStatus(gomock.Any(), catalog.KindExtension).
		Return(nil, errors.New("corrupt status"))
	mockPersistence.EXPECT().
		SaveStatus(gomock.Any(), catalog.KindExtension, gomock.Any()).
		Return(errors.New("disk full")).
		Times(2)

	var calls atomic.Int32
	coord := New(succeedingRefresher(&calls), mockPersistence, catalog.KindExtension, time.Minute, 0)

	// Persistence failures are logged, never surfaced
	require.NoError(t, coord.RefreshNow(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPerformRefresh_Serialized(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight atomic.Int32
	refresher := refresherFunc(func(context.Context) (*pkgsync.Result, *pkgsync.Error) {
		current := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if current <= prev || maxInFlight.CompareAndSwap(prev, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &pkgsync.Result{Hash: "h"}, nil
	})

	coord := New(refresher, status.NewMemoryStatusPersistence(), catalog.KindExtension, time.Minute, 0)

	done := make(chan struct{})
	for range 5 {
		go func() {
			_ = coord.RefreshNow(context.Background())
			done <- struct{}{}
		}()
	}
	for range 5 {
		<-done
	}

	assert.Equal(t, int32(1), maxInFlight.Load())
}

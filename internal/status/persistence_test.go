package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	require.NotNil(t, persistence)

	now := time.Now()
	testStatus := &RefreshStatus{
		Phase:           RefreshPhaseComplete,
		Message:         "Refresh completed",
		LastAttempt:     &now,
		AttemptCount:    1,
		LastSyncTime:    &now,
		LastSyncHash:    "abc123",
		EntryCount:      5,
		NewCount:        2,
		RefreshInterval: "1h",
	}

	ctx := context.Background()
	require.NoError(t, persistence.SaveStatus(ctx, catalog.KindExtension, testStatus))

	expectedPath := filepath.Join(tmpDir, string(catalog.KindExtension), StatusFileName)
	_, err := os.Stat(expectedPath)
	require.NoError(t, err)

	loaded, err := persistence.LoadStatus(ctx, catalog.KindExtension)
	require.NoError(t, err)
	require.Equal(t, testStatus.Phase, loaded.Phase)
	require.Equal(t, testStatus.Message, loaded.Message)
	require.Equal(t, testStatus.AttemptCount, loaded.AttemptCount)
	require.Equal(t, testStatus.LastSyncHash, loaded.LastSyncHash)
	require.Equal(t, testStatus.EntryCount, loaded.EntryCount)
	require.Equal(t, testStatus.NewCount, loaded.NewCount)
	require.Equal(t, testStatus.RefreshInterval, loaded.RefreshInterval)
	require.True(t, testStatus.LastSyncTime.Equal(*loaded.LastSyncTime))
}

func TestStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	for name, persistence := range map[string]StatusPersistence{
		"file":   NewFileStatusPersistence(t.TempDir()),
		"memory": NewMemoryStatusPersistence(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			loaded, err := persistence.LoadStatus(context.Background(), catalog.KindTheme)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			require.Equal(t, RefreshPhase(""), loaded.Phase)
			require.Zero(t, loaded.EntryCount)
		})
	}
}

func TestStatusPersistence_UpdateStatus(t *testing.T) {
	t.Parallel()

	persistence := NewMemoryStatusPersistence()
	ctx := context.Background()

	require.NoError(t, persistence.SaveStatus(ctx, catalog.KindTheme, &RefreshStatus{
		Phase:        RefreshPhaseRefreshing,
		AttemptCount: 1,
	}))
	require.NoError(t, persistence.SaveStatus(ctx, catalog.KindTheme, &RefreshStatus{
		Phase:        RefreshPhaseComplete,
		LastSyncHash: "def456",
		EntryCount:   10,
	}))

	loaded, err := persistence.LoadStatus(ctx, catalog.KindTheme)
	require.NoError(t, err)
	require.Equal(t, RefreshPhaseComplete, loaded.Phase)
	require.Equal(t, "def456", loaded.LastSyncHash)
	require.Equal(t, 10, loaded.EntryCount)
	require.Zero(t, loaded.AttemptCount)
}

func TestFileStatusPersistence_LoadAllStatus(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.Empty(t, result)

	require.NoError(t, persistence.SaveStatus(ctx, catalog.KindExtension, &RefreshStatus{
		Phase:      RefreshPhaseComplete,
		EntryCount: 5,
	}))

	result, err = persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, RefreshPhaseComplete, result[catalog.KindExtension].Phase)
	require.Equal(t, 5, result[catalog.KindExtension].EntryCount)
}

func TestFileStatusPersistence_CorruptFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	require.NoError(t, persistence.SaveStatus(ctx, catalog.KindExtension, &RefreshStatus{Phase: RefreshPhaseFailed}))

	themeDir := filepath.Join(tmpDir, string(catalog.KindTheme))
	require.NoError(t, os.MkdirAll(themeDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, StatusFileName), []byte("not json"), 0600))

	_, err := persistence.LoadStatus(ctx, catalog.KindTheme)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal status data for catalog 'themes'")

	result, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, RefreshPhaseFailed, result[catalog.KindExtension].Phase)
}

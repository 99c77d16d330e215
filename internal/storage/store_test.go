package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "nested", "seen.json")),
		"memory": NewMemoryStore(),
	}
}

func TestStore_ReadMissing(t *testing.T) {
	t.Parallel()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := store.Read(context.Background())
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	t.Parallel()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			require.NoError(t, store.Write(ctx, []byte(`{"a":1}`)))
			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			require.NoError(t, store.Write(ctx, []byte(`{"a":2}`)))
			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))
		})
	}
}

func TestStore_Update(t *testing.T) {
	t.Parallel()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			require.NoError(t, store.Update(ctx, func(current []byte) ([]byte, error) {
				assert.Nil(t, current)
				return []byte("first"), nil
			}))
			require.NoError(t, store.Update(ctx, func(current []byte) ([]byte, error) {
				assert.Equal(t, "first", string(current))
				return append(current, "+second"...), nil
			}))

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, "first+second", string(got))
		})
	}
}

func TestStore_UpdateErrorKeepsDocument(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			require.NoError(t, store.Write(ctx, []byte("kept")))
			err := store.Update(ctx, func([]byte) ([]byte, error) { return nil, boom })
			require.ErrorIs(t, err, boom)

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, "kept", string(got))
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	require.ErrorIs(t, store.Write(ctx, []byte("x")), context.Canceled)
	_, err := store.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Update(ctx, func(current []byte) ([]byte, error) {
						return append(current, 'x'), nil
					}))
				}()
			}
			wg.Wait()

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 10)
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "state")
	store := NewFileStore(filepath.Join(dir, "seen.json"))
	require.NoError(t, store.Write(context.Background(), []byte("{}")))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestFileStore_ReadError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory at the document path cannot be read as a file
	path := filepath.Join(dir, "seen.json")
	require.NoError(t, os.Mkdir(path, 0750))

	_, err := NewFileStore(path).Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

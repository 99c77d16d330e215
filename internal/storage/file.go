package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore implements Store on top of a single file. Writes go to a
// temporary file which is then renamed over the target.
//
// The flock guards against other processes and mu serializes callers within
// this one.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store at path. The parent directory is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the stored document
func (f *FileStore) Path() string {
	return f.path
}

// Read implements Store
func (f *FileStore) Read(ctx context.Context) ([]byte, error) {
	if err := f.ensureDir(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	locked, err := f.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, fmt.Errorf("failed to acquire read lock on %s: %w", f.path, lockErr(err))
	}
	defer func() { _ = f.lock.Unlock() }()

	return f.read()
}

// Write implements Store
func (f *FileStore) Write(ctx context.Context, data []byte) error {
	return f.Update(ctx, func([]byte) ([]byte, error) { return data, nil })
}

// Update implements Store
func (f *FileStore) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	if err := f.ensureDir(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("failed to acquire write lock on %s: %w", f.path, lockErr(err))
	}
	defer func() { _ = f.lock.Unlock() }()

	current, err := f.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	return f.write(next)
}

func (f *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

func (f *FileStore) read() ([]byte, error) {
	// #nosec G304 -- path comes from configuration, not from catalog data
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, nil
}

func (f *FileStore) write(data []byte) error {
	// Write to temporary file first for atomic operation
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}
	return nil
}

func lockErr(err error) error {
	if err != nil {
		return err
	}
	return errors.New("lock not acquired")
}

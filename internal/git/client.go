package git

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client reads files from git repositories
type Client interface {
	// ReadFile clones the repository described by config and returns the
	// content of path at the selected revision
	ReadFile(ctx context.Context, config *CloneConfig, path string) ([]byte, error)
}

// defaultClient implements Client using go-git with in-memory storage
type defaultClient struct{}

// NewDefaultClient creates a new git client
func NewDefaultClient() Client {
	return &defaultClient{}
}

// ReadFile clones into memory, reads one blob and drops the clone
func (*defaultClient) ReadFile(ctx context.Context, config *CloneConfig, path string) ([]byte, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}

	cloneOptions := &git.CloneOptions{
		URL: config.URL,
	}
	// Commits may be anywhere in history, so only ref clones are shallow
	if config.Commit == "" {
		cloneOptions.Depth = 1
		if config.Branch != "" {
			cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
			cloneOptions.SingleBranch = true
		} else if config.Tag != "" {
			cloneOptions.ReferenceName = plumbing.NewTagReferenceName(config.Tag)
			cloneOptions.SingleBranch = true
		}
	}

	storer := filesystem.NewStorage(memfs.New(), cache.NewObjectLRUDefault())

	// No worktree: blobs are read straight from the object store
	repo, err := git.CloneContext(ctx, storer, nil, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository %s: %w", catalog.RedactURL(config.URL), err)
	}

	hash, err := resolveRevision(repo, config)
	if err != nil {
		return nil, err
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	file, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	if file.Size > maxFileSize {
		return nil, fmt.Errorf("file %s is %d bytes, larger than the %d byte limit", path, file.Size, maxFileSize)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}

	slog.Debug("Read catalog from git",
		"url", catalog.RedactURL(config.URL),
		"commit", hash.String(),
		"path", path,
		"bytes", len(content))

	return []byte(content), nil
}

func resolveRevision(repo *git.Repository, config *CloneConfig) (plumbing.Hash, error) {
	if config.Commit != "" {
		return plumbing.NewHash(config.Commit), nil
	}

	ref, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	return ref.Hash(), nil
}

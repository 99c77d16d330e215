package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRepo commits each file set in order and returns the repository
// directory and the commit hashes
func createTestRepo(t *testing.T, commits ...map[string]string) (string, []plumbing.Hash) {
	t.Helper()

	repoDir := t.TempDir()
	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	author := &object.Signature{Name: "Test Author", Email: "test@example.com"}

	hashes := make([]plumbing.Hash, 0, len(commits))
	for i, files := range commits {
		for name, content := range files {
			path := filepath.Join(repoDir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := workTree.Add(name)
			require.NoError(t, err)
		}
		hash, err := workTree.Commit("Commit "+string(rune('A'+i)), &git.CommitOptions{Author: author})
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}

	return repoDir, hashes
}

func TestDefaultClient_ReadFile(t *testing.T) {
	t.Parallel()

	repoDir, hashes := createTestRepo(t,
		map[string]string{"plugins.json": `[{"name":"a"}]`},
		map[string]string{"plugins.json": `[{"name":"a"},{"name":"b"}]`, "data/themes.json": `[]`},
	)

	tests := []struct {
		name          string
		config        *CloneConfig
		path          string
		expected      string
		errorContains string
	}{
		{
			name:     "head",
			config:   &CloneConfig{URL: repoDir},
			path:     "plugins.json",
			expected: `[{"name":"a"},{"name":"b"}]`,
		},
		{
			name:     "nested path",
			config:   &CloneConfig{URL: repoDir},
			path:     "data/themes.json",
			expected: `[]`,
		},
		{
			name:     "earlier commit",
			config:   &CloneConfig{URL: repoDir, Commit: hashes[0].String()},
			path:     "plugins.json",
			expected: `[{"name":"a"}]`,
		},
		{
			name:          "file missing at commit",
			config:        &CloneConfig{URL: repoDir, Commit: hashes[0].String()},
			path:          "data/themes.json",
			errorContains: "failed to get file",
		},
		{
			name:          "unknown branch",
			config:        &CloneConfig{URL: repoDir, Branch: "does-not-exist"},
			path:          "plugins.json",
			errorContains: "failed to clone repository",
		},
		{
			name:          "missing repository",
			config:        &CloneConfig{URL: filepath.Join(t.TempDir(), "nope")},
			path:          "plugins.json",
			errorContains: "failed to clone repository",
		},
		{
			name:          "empty URL",
			config:        &CloneConfig{},
			path:          "plugins.json",
			errorContains: "cannot be empty",
		},
	}

	client := NewDefaultClient()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content, err := client.ReadFile(t.Context(), tt.config, tt.path)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(content))
		})
	}
}

func TestDefaultClient_ReadFile_Branch(t *testing.T) {
	t.Parallel()

	repoDir, _ := createTestRepo(t, map[string]string{"plugins.json": `[{"name":"main"}]`})

	repo, err := git.PlainOpen(repoDir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)

	content, err := NewDefaultClient().ReadFile(t.Context(),
		&CloneConfig{URL: repoDir, Branch: head.Name().Short()}, "plugins.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"main"}]`, string(content))
}

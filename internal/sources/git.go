package sources

import (
	"context"

	"github.com/stacklok/toolhive-catalog-browser/internal/git"
)

// gitSourceHandler reads catalog data from a file committed to a git repository
type gitSourceHandler struct {
	client git.Client
}

// NewGitSourceHandler creates a new git source handler
func NewGitSourceHandler(client git.Client) SourceHandler {
	if client == nil {
		client = git.NewDefaultClient()
	}
	return &gitSourceHandler{client: client}
}

// FetchData clones the repository named by a git+ URL and reads the catalog file
func (h *gitSourceHandler) FetchData(ctx context.Context, rawURL string) ([]byte, error) {
	loc, err := git.ParseLocation(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := h.client.ReadFile(ctx, &loc.Clone, loc.Path)
	if err != nil {
		return nil, err
	}
	return standardize(data), nil
}

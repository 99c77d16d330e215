package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/tailscale/hujson"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

// fileSourceHandler handles catalog data from local files. Files may carry
// comments and trailing commas, which are stripped before validation.
type fileSourceHandler struct{}

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() SourceHandler {
	return &fileSourceHandler{}
}

// FetchData reads the file named by a file:// URL or a plain path
func (*fileSourceHandler) FetchData(_ context.Context, rawURL string) ([]byte, error) {
	path, err := filePath(rawURL)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return standardize(data), nil
}

// standardize strips comments and trailing commas. Malformed content is
// returned unchanged so the validator reports it as a parse failure.
func standardize(data []byte) []byte {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return data
	}
	return standard
}

func filePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", catalog.RedactURL(rawURL), errors.Unwrap(err))
	}
	if u.Scheme == "" {
		return rawURL, nil
	}
	if u.Path == "" {
		return "", fmt.Errorf("file URL %q has no path", catalog.RedactURL(rawURL))
	}
	return u.Path, nil
}

package git

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

const (
	// SchemePrefix marks a catalog URL as a location inside a git repository
	SchemePrefix = "git+"

	// maxFileSize caps the catalog blob read from a repository
	maxFileSize = 16 * 1024 * 1024
)

// CloneConfig selects the repository and revision to read from. At most one of
// Branch, Tag and Commit is set; the remote HEAD is used when none is.
type CloneConfig struct {
	URL    string
	Branch string
	Tag    string
	Commit string
}

// Location is a file inside a git repository
type Location struct {
	Clone CloneConfig
	Path  string
}

// ParseLocation parses a git catalog URL of the form
//
//	git+https://host/org/repo.git?path=plugins.json&branch=main
//
// git+file URLs name a repository on the local filesystem.
func ParseLocation(rawURL string) (*Location, error) {
	safeURL := catalog.RedactURL(rawURL)
	if !strings.HasPrefix(strings.ToLower(rawURL), SchemePrefix) {
		return nil, fmt.Errorf("not a git URL: %s", safeURL)
	}
	u, err := url.Parse(rawURL[len(SchemePrefix):])
	if err != nil {
		return nil, fmt.Errorf("invalid git URL %q: %w", safeURL, errors.Unwrap(err))
	}

	query := u.Query()
	loc := &Location{
		Path: strings.TrimPrefix(query.Get("path"), "/"),
		Clone: CloneConfig{
			Branch: query.Get("branch"),
			Tag:    query.Get("tag"),
			Commit: query.Get("commit"),
		},
	}
	if loc.Path == "" {
		return nil, fmt.Errorf("git URL %q has no path parameter", safeURL)
	}

	refs := 0
	for _, ref := range []string{loc.Clone.Branch, loc.Clone.Tag, loc.Clone.Commit} {
		if ref != "" {
			refs++
		}
	}
	if refs > 1 {
		return nil, fmt.Errorf("git URL %q may set only one of branch, tag and commit", safeURL)
	}
	if loc.Clone.Commit != "" && !plumbing.IsHash(loc.Clone.Commit) {
		return nil, fmt.Errorf("git URL %q has an invalid commit hash", safeURL)
	}

	u.RawQuery = ""
	u.Fragment = ""
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("git URL %q has no host", safeURL)
		}
		loc.Clone.URL = u.String()
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("git URL %q has no repository path", safeURL)
		}
		loc.Clone.URL = u.Path
	default:
		return nil, fmt.Errorf("unsupported git transport %q", u.Scheme)
	}

	return loc, nil
}

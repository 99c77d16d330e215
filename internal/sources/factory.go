package sources

import (
	"fmt"

	"github.com/stacklok/toolhive-catalog-browser/internal/git"
	"github.com/stacklok/toolhive-catalog-browser/internal/httpclient"
)

const (
	// SchemeHTTP selects the API handler
	SchemeHTTP = "http"
	// SchemeHTTPS selects the API handler
	SchemeHTTPS = "https"
	// SchemeFile selects the file handler
	SchemeFile = "file"
	// SchemeGitHTTPS selects the git handler
	SchemeGitHTTPS = "git+https"
	// SchemeGitHTTP selects the git handler
	SchemeGitHTTP = "git+http"
	// SchemeGitFile selects the git handler for a local repository
	SchemeGitFile = "git+file"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	httpClient httpclient.Client
	gitClient  git.Client
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory. All API
// handlers share client; a default client is used when it is nil.
func NewSourceHandlerFactory(client httpclient.Client) SourceHandlerFactory {
	if client == nil {
		client = httpclient.NewDefaultClient(0)
	}
	return &defaultSourceHandlerFactory{
		httpClient: client,
		gitClient:  git.NewDefaultClient(),
	}
}

// CreateHandler creates a source handler for the given URL scheme
func (f *defaultSourceHandlerFactory) CreateHandler(scheme string) (SourceHandler, error) {
	switch scheme {
	case SchemeHTTP, SchemeHTTPS:
		return NewAPISourceHandler(f.httpClient), nil
	case SchemeGitHTTP, SchemeGitHTTPS, SchemeGitFile:
		return NewGitSourceHandler(f.gitClient), nil
	case SchemeFile, "":
		return NewFileSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source scheme: %s", scheme)
	}
}

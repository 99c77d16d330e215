package sources

import (
	"context"

	"github.com/stacklok/toolhive-catalog-browser/internal/httpclient"
)

// apiSourceHandler retrieves catalog data from HTTP(S) endpoints
type apiSourceHandler struct {
	httpClient httpclient.Client
}

// NewAPISourceHandler creates a new API source handler around client
func NewAPISourceHandler(client httpclient.Client) SourceHandler {
	if client == nil {
		client = httpclient.NewDefaultClient(0)
	}
	return &apiSourceHandler{httpClient: client}
}

// FetchData performs a cache-bypassing GET against url
func (h *apiSourceHandler) FetchData(ctx context.Context, url string) ([]byte, error) {
	return h.httpClient.Get(ctx, url)
}

package app

import (
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncManager fetches and filters catalogs for every session
	SyncManager pkgsync.Manager

	// Sessions holds one browse session per enabled catalog, in config order
	Sessions []*session.Session

	// CatalogService exposes the sessions to the API and the CLI
	CatalogService service.CatalogService
}

// Session returns the session browsing kind
func (c *AppComponents) Session(kind catalog.Kind) (*session.Session, bool) {
	for _, s := range c.Sessions {
		if s.Kind() == kind {
			return s, true
		}
	}
	return nil, false
}

// Package session implements a browse session over one catalog.
//
// A Session owns all mutable state of a catalog view: the immutable snapshot
// currently displayed, the change tracker and the background refresh
// coordinator. Its lifecycle follows the browse view:
//
//	s := session.New(catalog.KindExtension, catalogCfg, manager,
//		session.WithTracker(tracker))
//	if err := s.Start(ctx); err != nil {
//		// the catalog could not be fetched; the session stays usable
//	}
//	items, err := s.View(ctx, "search", sorting.DefaultMode)
//	...
//	err = s.Stop(ctx) // commits the seen set
//
// Every fetch is stamped with a sequence number. A fetch that lands after a
// newer one has been applied is discarded, so out-of-order completion never
// moves the visible snapshot backwards.
package session

// Package coordinator provides background refresh coordination for one catalog.
//
// It sits on top of a Refresher (in practice a browse session, which fetches
// through sync.Manager and applies the snapshot) and handles:
//
//   - Periodic refresh scheduling using time.Ticker with jitter
//   - An optional initial refresh on startup
//   - Manual refreshes serialized with periodic ones
//   - Refresh status persistence at each phase transition
//   - Graceful shutdown
//
// # Usage Example
//
//	coord := coordinator.New(session, statusPersistence, catalog.KindExtension,
//		cfg.Refresh.GetInterval(), cfg.Refresh.GetJitter(),
//		coordinator.WithInitialRefresh(false))
//
//	go coord.Start(ctx)
//	defer coord.Stop()
//
//	// Force a refresh from a request handler
//	err := coord.RefreshNow(ctx)
//
// # Error Handling
//
// Failed refreshes are logged, recorded in the status as "Failed" and leave the
// previously applied snapshot untouched. The loop keeps running and the next
// attempt happens on the next tick. Status persistence errors are logged but
// never stop a refresh.
package coordinator

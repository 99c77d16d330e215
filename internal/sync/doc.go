// Package sync keeps catalog snapshots fresh and tracks which entries are new.
//
// # Core Types
//
//   - Manager: performs one fetch-and-filter pass for a catalog
//   - Tracker: compares the latest snapshot with the persisted seen set
//   - SeenStore: persists per-catalog seen sets in one storage document
//   - DataChangeDetector: compares payload hashes between refreshes
//   - RefreshScheduler: computes when the next periodic refresh is due
//
// The sync/coordinator subpackage schedules refreshes: one immediately when a
// session starts and then one per configured interval.
//
// # Change Tracking
//
// A Tracker moves through three phases within a browse session:
//
//	Idle --Observe--> Checked --Commit--> Committed --Observe--> Checked ...
//
// Observe may run many times per session. Each call replaces the latest
// snapshot unless its stamp is older than the one already applied, so a slow
// fetch landing after a newer one is discarded. The new identifiers are
//
//	newIDs = latest snapshot ids - persisted seen set
//
// Only Commit writes the seen set, and the session calls it when the browse
// view closes so that the badges stay visible while the user looks at them.
//
// When nothing was ever committed, or the committed set is empty, no entry is
// flagged. When the stored set cannot be read the tracker treats it as empty
// and flags every entry until the next successful commit.
//
// # Errors
//
// Manager failures are reported as *Error with a Reason of FetchFailed,
// ParseFailed or FilterFailed. Seen-set failures wrap ErrStorage.
package sync

package sync

import (
	"time"

	"github.com/stacklok/toolhive-catalog-browser/internal/status"
)

// DataChangeDetector detects changes in source data
type DataChangeDetector interface {
	// IsDataChanged compares a freshly fetched hash with the last recorded one
	IsDataChanged(currentHash string, refreshStatus *status.RefreshStatus) bool
}

// DefaultDataChangeDetector implements DataChangeDetector
type DefaultDataChangeDetector struct{}

// IsDataChanged checks if source data has changed by comparing hashes.
// Without a recorded hash the data counts as changed.
func (*DefaultDataChangeDetector) IsDataChanged(currentHash string, refreshStatus *status.RefreshStatus) bool {
	if refreshStatus == nil || refreshStatus.LastSyncHash == "" {
		return true
	}
	return currentHash != refreshStatus.LastSyncHash
}

// RefreshScheduler answers when the next periodic refresh is due
type RefreshScheduler interface {
	// NextRefresh returns whether a refresh is due at now, and the time of the next one
	NextRefresh(interval time.Duration, refreshStatus *status.RefreshStatus, now time.Time) (bool, time.Time)
}

// DefaultRefreshScheduler implements RefreshScheduler
type DefaultRefreshScheduler struct{}

// NextRefresh checks if a refresh is needed based on the last attempt.
// The returned time is always in the future when a refresh is due now.
func (*DefaultRefreshScheduler) NextRefresh(
	interval time.Duration, refreshStatus *status.RefreshStatus, now time.Time,
) (bool, time.Time) {
	if interval <= 0 {
		return false, time.Time{}
	}

	var lastAttempt *time.Time
	if refreshStatus != nil {
		lastAttempt = refreshStatus.LastAttempt
	}
	if lastAttempt == nil {
		return true, now.Add(interval)
	}

	next := lastAttempt.Add(interval)
	if !now.Before(next) {
		return true, now.Add(interval)
	}
	return false, next
}

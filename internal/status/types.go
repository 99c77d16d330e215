package status

import "time"

// RefreshPhase represents the current phase of a catalog refresh
type RefreshPhase string

const (
	// RefreshPhaseRefreshing means a refresh is currently in progress
	RefreshPhaseRefreshing RefreshPhase = "Refreshing"

	// RefreshPhaseComplete means the last refresh completed successfully
	RefreshPhaseComplete RefreshPhase = "Complete"

	// RefreshPhaseFailed means the last refresh failed
	RefreshPhaseFailed RefreshPhase = "Failed"
)

// RefreshStatus represents the current state of one catalog's refreshes
type RefreshStatus struct {
	// Phase represents the current refresh phase
	Phase RefreshPhase `json:"phase"`

	// Message provides additional information about the refresh status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last refresh attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of refresh attempts since last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful refresh
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastSyncHash is the hash of the last successfully fetched payload
	// Used to detect changes in source data
	LastSyncHash string `json:"lastSyncHash,omitempty"`

	// EntryCount is the number of visible entries after filtering
	EntryCount int `json:"entryCount"`

	// NewCount is the number of entries flagged as new after the last refresh
	NewCount int `json:"newCount"`

	// RefreshInterval is the configured interval (e.g., "30m", "1h")
	RefreshInterval string `json:"refreshInterval,omitempty"`
}

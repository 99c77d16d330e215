package coordinator

import (
	"math/rand/v2"
	"time"
)

// calculateInterval returns base with a random offset within ±jitter applied.
// A non-positive result falls back to base.
func calculateInterval(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for refresh jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	interval := base + offset
	if interval <= 0 {
		return base
	}
	return interval
}

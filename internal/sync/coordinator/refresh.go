package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/toolhive-catalog-browser/internal/status"
)

type trigger string

const (
	triggerInitial  trigger = "initial"
	triggerPeriodic trigger = "periodic"
	triggerManual   trigger = "manual"
)

// performRefresh executes one refresh and persists the status transitions
func (c *defaultCoordinator) performRefresh(ctx context.Context, trig trigger) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refreshStatus, err := c.statusPersistence.LoadStatus(ctx, c.kind)
	if err != nil {
		slog.Warn("Failed to load refresh status, starting fresh",
			"kind", c.kind,
			"error", err)
		refreshStatus = &status.RefreshStatus{}
	}
	previousHash := refreshStatus.LastSyncHash

	// Set a default failure in case the refresh is interrupted unexpectedly.
	// The deferred save always persists whatever the final state is.
	startTime := time.Now()
	refreshStatus.Phase = status.RefreshPhaseRefreshing
	refreshStatus.Message = "Refresh in progress"
	refreshStatus.LastAttempt = &startTime
	refreshStatus.AttemptCount++
	refreshStatus.RefreshInterval = c.interval.String()
	if err := c.statusPersistence.SaveStatus(ctx, c.kind, refreshStatus); err != nil {
		slog.Warn("Failed to persist refreshing status", "kind", c.kind, "error", err)
	}
	refreshStatus.Phase = status.RefreshPhaseFailed
	refreshStatus.Message = fmt.Sprintf("Unexpected failure while refreshing catalog %s", c.kind)

	defer func() {
		// The refresh context may already be cancelled on shutdown
		saveCtx := context.WithoutCancel(ctx)
		if err := c.statusPersistence.SaveStatus(saveCtx, c.kind, refreshStatus); err != nil {
			slog.Error("Error updating refresh status",
				"kind", c.kind,
				"error", err)
		}
	}()

	slog.Info("Starting refresh",
		"kind", c.kind,
		"trigger", trig,
		"attempt", refreshStatus.AttemptCount)

	result, refreshErr := c.refresher.Refresh(ctx)
	duration := time.Since(startTime)

	if refreshErr != nil {
		refreshStatus.Phase = status.RefreshPhaseFailed
		refreshStatus.Message = refreshErr.Message
		c.refreshMetrics.RecordRefreshDuration(ctx, c.kind, duration, false)
		slog.Error("Refresh failed",
			"kind", c.kind,
			"trigger", trig,
			"reason", refreshErr.Reason,
			"error", refreshErr.Message)
		return refreshErr
	}

	changed := c.changeDetector.IsDataChanged(result.Hash, &status.RefreshStatus{LastSyncHash: previousHash})

	now := time.Now()
	refreshStatus.Phase = status.RefreshPhaseComplete
	refreshStatus.Message = "Refresh completed successfully"
	refreshStatus.LastSyncTime = &now
	refreshStatus.LastSyncHash = result.Hash
	refreshStatus.EntryCount = result.Count
	refreshStatus.NewCount = result.NewCount
	refreshStatus.AttemptCount = 0

	c.refreshMetrics.RecordRefreshDuration(ctx, c.kind, duration, true)
	c.catalogMetrics.RecordEntriesTotal(ctx, c.kind, int64(result.Count))
	c.catalogMetrics.RecordNewEntries(ctx, c.kind, int64(result.NewCount))

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	slog.Info("Refresh completed successfully",
		"kind", c.kind,
		"trigger", trig,
		"entry_count", result.Count,
		"new_count", result.NewCount,
		"data_changed", changed,
		"hash", hashPreview,
		"duration", duration)

	return nil
}

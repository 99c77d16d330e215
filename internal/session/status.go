package session

import (
	"context"
	"fmt"
	"time"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/status"
	pkgsync "github.com/stacklok/toolhive-catalog-browser/internal/sync"
)

// StatusReport summarizes a session for status displays
type StatusReport struct {
	Kind         catalog.Kind          `json:"kind"`
	SessionID    string                `json:"sessionId"`
	Refresh      *status.RefreshStatus `json:"refresh"`
	Tracking     bool                  `json:"tracking"`
	TrackerPhase pkgsync.Phase         `json:"trackerPhase,omitempty"`
	EntryCount   int                   `json:"entryCount"`
	NewCount     int                   `json:"newCount"`
	NextRefresh  *time.Time            `json:"nextRefresh,omitempty"`
}

// Status reports the persisted refresh status together with live session state
func (s *Session) Status(ctx context.Context) (*StatusReport, error) {
	refreshStatus, err := s.statusPersistence.LoadStatus(ctx, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh status: %w", err)
	}

	report := &StatusReport{
		Kind:       s.kind,
		SessionID:  s.ID(),
		Refresh:    refreshStatus,
		Tracking:   s.tracker != nil,
		EntryCount: len(s.Snapshot().Entries),
		NewCount:   s.NewCount(),
	}
	if s.tracker != nil {
		report.TrackerPhase = s.tracker.Phase()
	}

	s.lifecycleMu.Lock()
	scheduled := s.running && s.backgroundRefresh
	s.lifecycleMu.Unlock()
	if scheduled {
		_, next := s.scheduler.NextRefresh(s.interval, refreshStatus, time.Now())
		if !next.IsZero() {
			report.NextRefresh = &next
		}
	}
	return report, nil
}

// Package trial manages the premium trial record: a single time-boxed
// elevation to the top tier, stored on the singleton session row. The
// record only remembers where to revert and when; applying the elevation or
// the revert is the session's job.
package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
)

// Duration is the fixed length of a premium trial.
const Duration = time.Hour

// Record is an active trial: the plan to restore and the elevation's end.
type Record struct {
	OriginalPlan plans.Name `json:"originalPlan"`
	Expiry       time.Time  `json:"expiry"`
}

// Expired reports whether the trial has ended as of now.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.Expiry)
}

// Remaining returns the time left; zero or negative once expired.
func (r Record) Remaining(now time.Time) time.Duration {
	return r.Expiry.Sub(now)
}

// Manager reads and writes the trial record.
type Manager struct {
	db  *gorm.DB
	now func() time.Time
}

// NewManager constructs a Manager; now may be nil for the wall clock.
func NewManager(db *gorm.DB, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{db: db, now: now}
}

// Start records a trial expiring one Duration from now. A running trial is
// overwritten: trials never stack.
func (m *Manager) Start(ctx context.Context, originalPlan plans.Name) (Record, error) {
	rec := Record{
		OriginalPlan: originalPlan,
		Expiry:       m.now().Add(Duration),
	}
	if errSave := m.db.WithContext(ctx).Model(&models.SessionState{}).
		Where("id = ?", models.SessionStateID).
		Updates(map[string]any{
			"trial_original_plan": rec.OriginalPlan,
			"trial_expiry":        rec.Expiry,
		}).Error; errSave != nil {
		return Record{}, fmt.Errorf("trial: save record: %w", errSave)
	}
	return rec, nil
}

// Get returns the stored trial record; nil when none is active.
func (m *Manager) Get(ctx context.Context) (*Record, error) {
	var state models.SessionState
	if errFind := m.db.WithContext(ctx).First(&state, models.SessionStateID).Error; errFind != nil {
		return nil, fmt.Errorf("trial: load state: %w", errFind)
	}
	if state.TrialExpiry == nil {
		return nil, nil
	}
	return &Record{
		OriginalPlan: state.TrialOriginalPlan,
		Expiry:       *state.TrialExpiry,
	}, nil
}

// Clear removes the trial record unconditionally.
func (m *Manager) Clear(ctx context.Context) error {
	if errClear := m.db.WithContext(ctx).Model(&models.SessionState{}).
		Where("id = ?", models.SessionStateID).
		Updates(map[string]any{
			"trial_original_plan": "",
			"trial_expiry":        nil,
		}).Error; errClear != nil {
		return fmt.Errorf("trial: clear record: %w", errClear)
	}
	return nil
}

package models

import (
	"time"

	"github.com/5399ai/backend/internal/plans"
	"gorm.io/datatypes"
)

// SessionStateID is the primary key of the single session row. The store
// models one browser profile, so session identity and the premium trial are
// process-wide singletons rather than per-user rows.
const SessionStateID = 1

// SessionState persists the current-session markers: the logged-in user
// snapshot and the premium trial record. CurrentUser is a JSON snapshot of
// the User taken at login time; it may lag the users table and is
// re-synchronized on plan updates and reloads.
type SessionState struct {
	ID uint64 `gorm:"primaryKey"` // Always SessionStateID.

	CurrentUser datatypes.JSON `gorm:"type:text"` // User snapshot, empty when logged out.

	TrialOriginalPlan plans.Name `gorm:"type:text"` // Plan to revert to when the trial ends.
	TrialExpiry       *time.Time ``                 // Trial end instant, nil when no trial.
}

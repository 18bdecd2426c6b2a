// Package credits implements the per-user daily allowance ledger. Entries
// are reset lazily: Load replaces anything allotted on a previous calendar
// day, and Use only ever decrements what Load left behind.
package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resource is a consumable generation type.
type Resource string

// Resources tracked by the ledger. Chat and images are not metered.
const (
	Video Resource = "video"
	Audio Resource = "audio"
)

// ValidResource reports whether r is a metered resource.
func ValidResource(r Resource) bool {
	return r == Video || r == Audio
}

// Ledger reads and mutates UserCredits rows.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedger constructs a Ledger; now may be nil for the wall clock. The
// clock's zone anchors the calendar-day comparison.
func NewLedger(db *gorm.DB, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{db: db, now: now}
}

// sameDay reports whether a and b fall on the same calendar day in b's
// location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Load returns the user's ledger entry, allotting a fresh one when none
// exists or the stored one predates today. Unlimited plans carry no entry:
// they never consult the ledger.
func (l *Ledger) Load(ctx context.Context, user *models.User) (*models.UserCredits, error) {
	if user == nil {
		return nil, nil
	}
	if plans.IsUnlimited(user.Plan) {
		return nil, nil
	}

	now := l.now()

	var entry models.UserCredits
	errFind := l.db.WithContext(ctx).First(&entry, "user_id = ?", user.ID).Error
	if errFind == nil && sameDay(entry.LastReset, now) {
		return &entry, nil
	}
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("credits: load entry: %w", errFind)
	}

	allowance := plans.AllowanceFor(user.Plan)
	entry = models.UserCredits{
		UserID:    user.ID,
		Video:     allowance.Video,
		Audio:     allowance.Audio,
		LastReset: now,
	}
	if errSave := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"video", "audio", "last_reset"}),
	}).Create(&entry).Error; errSave != nil {
		return nil, fmt.Errorf("credits: allot entry: %w", errSave)
	}
	return &entry, nil
}

// Entry returns the stored ledger row without resetting it; nil when the
// user has none.
func (l *Ledger) Entry(ctx context.Context, userID string) (*models.UserCredits, error) {
	var entry models.UserCredits
	errFind := l.db.WithContext(ctx).First(&entry, "user_id = ?", userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("credits: load entry: %w", errFind)
	}
	return &entry, nil
}

// Use consumes one credit of the resource. It fails closed (false, no
// mutation) without a user or a loaded entry; unlimited plans always
// succeed without touching the ledger; an exhausted counter answers false,
// which is the ordinary out-of-credits signal rather than an error.
func (l *Ledger) Use(ctx context.Context, user *models.User, resource Resource) (bool, error) {
	if user == nil || !ValidResource(resource) {
		return false, nil
	}
	if plans.IsUnlimited(user.Plan) {
		return true, nil
	}

	entry, errEntry := l.Entry(ctx, user.ID)
	if errEntry != nil {
		return false, errEntry
	}
	if entry == nil {
		return false, nil
	}

	remaining := entry.Video
	if resource == Audio {
		remaining = entry.Audio
	}
	if remaining <= 0 {
		return false, nil
	}

	column := "video"
	if resource == Audio {
		column = "audio"
	}
	if errSave := l.db.WithContext(ctx).Model(&models.UserCredits{}).
		Where("user_id = ?", user.ID).
		Update(column, remaining-1).Error; errSave != nil {
		return false, fmt.Errorf("credits: decrement %s: %w", resource, errSave)
	}
	return true, nil
}

// Replace overwrites the user's ledger row, used by account restore.
func (l *Ledger) Replace(ctx context.Context, entry *models.UserCredits) error {
	if entry == nil || entry.UserID == "" {
		return fmt.Errorf("credits: empty entry")
	}
	if errSave := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"video", "audio", "last_reset"}),
	}).Create(entry).Error; errSave != nil {
		return fmt.Errorf("credits: replace entry: %w", errSave)
	}
	return nil
}

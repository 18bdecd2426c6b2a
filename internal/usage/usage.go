// Package usage persists a log of generation requests so the operator can
// see what the upstream spend goes to.
package usage

import (
	"context"
	"time"

	"github.com/5399ai/backend/internal/plans"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Record is one logged generation request.
type Record struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string     `gorm:"type:text;index" json:"user_id"`
	Kind       string     `gorm:"type:text;index" json:"kind"`
	Model      string     `gorm:"type:text" json:"model"`
	Plan       plans.Name `gorm:"type:text" json:"plan"`
	DurationMS int64      `json:"duration_ms"`
	Success    bool       `json:"success"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName sets the table name for usage records.
func (Record) TableName() string { return "generation_records" }

// Recorder writes generation records.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder constructs a Recorder; now may be nil for the wall clock.
func NewRecorder(db *gorm.DB, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{db: db, now: now}
}

// Log persists one generation record. Failures are logged, not returned:
// accounting must never fail a generation that already happened.
func (r *Recorder) Log(ctx context.Context, record Record) {
	if r == nil || r.db == nil {
		return
	}
	record.ID = 0
	record.CreatedAt = r.now().UTC()
	if errCreate := r.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		log.WithError(errCreate).Warn("record generation usage failed")
	}
}

// List returns the newest records first, capped at limit.
func (r *Recorder) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []Record
	if errFind := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

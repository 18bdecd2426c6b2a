package models

import (
	"time"

	"github.com/5399ai/backend/internal/plans"
)

// PaymentReceipt records a manually submitted proof of payment for a plan
// upgrade. There is no processor integration: the receipt file is kept for
// the operator and the upgrade is applied on submission.
type PaymentReceipt struct {
	ID          string     `gorm:"type:text;primaryKey"`  // Receipt UUID.
	UserID      string     `gorm:"type:text;not null;index"` // Paying user.
	Plan        plans.Name `gorm:"type:text;not null"`    // Plan purchased.
	Filename    string     `gorm:"type:text;not null"`    // Original upload name.
	StoredPath  string     `gorm:"type:text;not null"`    // Path under the uploads dir.
	SizeBytes   int64      `gorm:"not null"`              // Upload size.
	SubmittedAt time.Time  `gorm:"not null"`              // Submission instant.
}

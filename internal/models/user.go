package models

import "github.com/5399ai/backend/internal/plans"

// User represents an account row. IDs are derived from the creation instant
// (RFC 3339), which the existing backup files rely on; they are never
// regenerated.
type User struct {
	ID    string     `gorm:"type:text;primaryKey" json:"id"`       // Creation-timestamp derived identifier.
	Email string     `gorm:"type:text;not null;uniqueIndex" json:"email"` // Unique login email.
	Plan  plans.Name `gorm:"type:text;not null" json:"plan"`       // Active subscription tier.
}

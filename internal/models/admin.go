package models

import "time"

// Admin is the operator account guarding the administrative endpoints. Its
// password is bcrypt hashed: the operator credential is not part of the
// account export format, so it carries no plaintext compatibility burden.
type Admin struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`       // Primary key.
	Username  string    `gorm:"type:text;not null;uniqueIndex"` // Operator login name.
	Password  string    `gorm:"type:text;not null"`             // Bcrypt hash.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`        // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`        // Last update timestamp.
}

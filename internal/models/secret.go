package models

// UserSecret stores an account password keyed by user id, in its own table
// so the User row can travel without it. The secret is kept verbatim: the
// account export format carries it as-is and already-issued backup files
// must keep restoring, so hashing here would break the interchange contract.
type UserSecret struct {
	UserID string `gorm:"type:text;primaryKey"` // Owning user id.
	Secret string `gorm:"type:text;not null"`   // Raw password, by compatibility contract.
}

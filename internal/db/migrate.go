package db

import (
	"fmt"

	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/usage"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date and guarantees the singleton session
// row exists so callers can read-modify-write it unconditionally.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.UserSecret{},
		&models.UserCredits{},
		&models.SessionState{},
		&models.PaymentReceipt{},
		&usage.Record{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: auto migrate: %w", errAutoMigrate)
	}

	state := models.SessionState{ID: models.SessionStateID}
	if errSeed := conn.FirstOrCreate(&state, models.SessionState{ID: models.SessionStateID}).Error; errSeed != nil {
		return fmt.Errorf("db: seed session state: %w", errSeed)
	}
	return nil
}

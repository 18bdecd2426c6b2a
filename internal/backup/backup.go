// Package backup implements the portable account export and its restore
// path. The document layout (field names included) is fixed by the files
// users already hold, so it is reproduced exactly: the password travels as
// the raw secret under the historical "password_hash" key.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Restore failures, localized for direct display.
var (
	// ErrInvalidBackup signals a document missing the user or the secret.
	ErrInvalidBackup = errors.New("Arquivo de backup inválido.")
	// ErrAccountConflict signals that the backup's email already belongs to
	// a different stored account.
	ErrAccountConflict = errors.New("Uma conta com este e-mail já pertence a outro usuário.")
)

// Document is the point-in-time export of one account.
type Document struct {
	User         *models.User        `json:"user"`
	PasswordHash string              `json:"password_hash"`
	Credits      *models.UserCredits `json:"credits,omitempty"`
}

// Codec exports and restores account state against the durable store.
type Codec struct {
	db *gorm.DB
}

// NewCodec constructs a Codec.
func NewCodec(db *gorm.DB) *Codec {
	return &Codec{db: db}
}

// Export assembles the account document for userID; nil when the user or
// its secret is missing. The result contains the plaintext secret and must
// be treated as sensitive.
func (c *Codec) Export(ctx context.Context, userID string) (*Document, error) {
	var user models.User
	errUser := c.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errUser != nil {
		if errors.Is(errUser, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: load user: %w", errUser)
	}

	var secret models.UserSecret
	errSecret := c.db.WithContext(ctx).First(&secret, "user_id = ?", userID).Error
	if errSecret != nil {
		if errors.Is(errSecret, gorm.ErrRecordNotFound) {
			// A user without a secret is an incomplete account; refuse to
			// produce a document that would fail its own validation.
			return nil, nil
		}
		return nil, fmt.Errorf("backup: load secret: %w", errSecret)
	}

	doc := Document{User: &user, PasswordHash: secret.Secret}

	var credits models.UserCredits
	errCredits := c.db.WithContext(ctx).First(&credits, "user_id = ?", userID).Error
	switch {
	case errCredits == nil:
		doc.Credits = &credits
	case errors.Is(errCredits, gorm.ErrRecordNotFound):
		// No ledger entry yet; the document simply omits it.
	default:
		return nil, fmt.Errorf("backup: load credits: %w", errCredits)
	}
	return &doc, nil
}

// Decode parses an uploaded backup file.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if errUnmarshal := json.Unmarshal(data, &doc); errUnmarshal != nil {
		return nil, ErrInvalidBackup
	}
	return &doc, nil
}

// Encode renders the document as the downloadable JSON file.
func Encode(doc *Document) ([]byte, error) {
	data, errMarshal := json.MarshalIndent(doc, "", "  ")
	if errMarshal != nil {
		return nil, fmt.Errorf("backup: encode document: %w", errMarshal)
	}
	return data, nil
}

// Restore validates the document and writes it into the store: the user is
// upserted by id, the secret and (when present) the ledger entry are fully
// overwritten, and the restored account becomes the session identity.
// Pre-existing local credit state is not merged.
func (c *Codec) Restore(ctx context.Context, doc *Document) (*models.User, error) {
	if doc == nil || doc.User == nil || doc.User.ID == "" || doc.PasswordHash == "" {
		return nil, ErrInvalidBackup
	}

	var existing models.User
	errFind := c.db.WithContext(ctx).Where("email = ?", doc.User.Email).First(&existing).Error
	if errFind == nil && existing.ID != doc.User.ID {
		return nil, ErrAccountConflict
	}
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("backup: check email: %w", errFind)
	}

	restored := *doc.User
	if errTx := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errUser := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "plan"}),
		}).Create(&restored).Error; errUser != nil {
			return fmt.Errorf("backup: upsert user: %w", errUser)
		}

		secret := models.UserSecret{UserID: restored.ID, Secret: doc.PasswordHash}
		if errSecret := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"secret"}),
		}).Create(&secret).Error; errSecret != nil {
			return fmt.Errorf("backup: overwrite secret: %w", errSecret)
		}

		if doc.Credits != nil {
			entry := *doc.Credits
			entry.UserID = restored.ID
			if errCredits := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"video", "audio", "last_reset"}),
			}).Create(&entry).Error; errCredits != nil {
				return fmt.Errorf("backup: overwrite credits: %w", errCredits)
			}
		}

		return account.SetSessionUser(ctx, tx, &restored)
	}); errTx != nil {
		return nil, errTx
	}
	return &restored, nil
}

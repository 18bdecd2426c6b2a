package account

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/5399ai/backend/internal/models"
	"gorm.io/gorm"
)

// SetSessionUser writes the current-session identity snapshot onto the
// singleton session row.
func SetSessionUser(ctx context.Context, db *gorm.DB, u *models.User) error {
	snapshot, errMarshal := json.Marshal(u)
	if errMarshal != nil {
		return fmt.Errorf("account: marshal session user: %w", errMarshal)
	}
	if errSave := db.WithContext(ctx).Model(&models.SessionState{}).
		Where("id = ?", models.SessionStateID).
		Update("current_user", snapshot).Error; errSave != nil {
		return fmt.Errorf("account: save session user: %w", errSave)
	}
	return nil
}

// ClearSessionUser removes the current-session identity snapshot.
func ClearSessionUser(ctx context.Context, db *gorm.DB) error {
	if errClear := db.WithContext(ctx).Model(&models.SessionState{}).
		Where("id = ?", models.SessionStateID).
		Update("current_user", nil).Error; errClear != nil {
		return fmt.Errorf("account: clear session user: %w", errClear)
	}
	return nil
}

// SessionUser reads the current-session identity snapshot; nil when logged
// out. The snapshot may lag the users table (it is refreshed on plan updates
// and reloads), which is exactly the contract callers get.
func SessionUser(ctx context.Context, db *gorm.DB) (*models.User, error) {
	var state models.SessionState
	if errFind := db.WithContext(ctx).First(&state, models.SessionStateID).Error; errFind != nil {
		return nil, fmt.Errorf("account: load session state: %w", errFind)
	}
	if len(state.CurrentUser) == 0 {
		return nil, nil
	}
	var u models.User
	if errUnmarshal := json.Unmarshal(state.CurrentUser, &u); errUnmarshal != nil {
		return nil, fmt.Errorf("account: decode session user: %w", errUnmarshal)
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

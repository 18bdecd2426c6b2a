// Package account implements the credential store: registration, login,
// session identity, plan updates and password recovery over the durable
// store. All writes keep the users table and the session snapshot
// consistent; the store is the only writer of both.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
)

// Store persists user records and their secrets.
type Store struct {
	db      *gorm.DB
	latency time.Duration
	now     func() time.Time
}

// NewStore constructs a Store. latency simulates the remote identity
// provider's round trip on register/login/recover (zero disables it); now
// may be nil for the wall clock.
func NewStore(db *gorm.DB, latency time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, latency: latency, now: now}
}

// delay suspends the caller for the simulated network latency.
func (s *Store) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Register creates an account on the free tier and marks it as the current
// session identity. The id is derived from the creation instant, the scheme
// existing backup files are keyed by.
func (s *Store) Register(ctx context.Context, email, password string) (*models.User, error) {
	if errDelay := s.delay(ctx); errDelay != nil {
		return nil, errDelay
	}

	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; errCount != nil {
		return nil, fmt.Errorf("account: check email: %w", errCount)
	}
	if count > 0 {
		return nil, ErrDuplicateAccount
	}

	user := models.User{
		ID:    s.now().UTC().Format(time.RFC3339Nano),
		Email: email,
		Plan:  plans.Gratuito,
	}

	if errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return fmt.Errorf("account: create user: %w", errCreate)
		}
		secret := models.UserSecret{UserID: user.ID, Secret: password}
		if errSecret := tx.Create(&secret).Error; errSecret != nil {
			return fmt.Errorf("account: store secret: %w", errSecret)
		}
		return SetSessionUser(ctx, tx, &user)
	}); errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// Login validates the credentials and marks the account as the current
// session identity.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	if errDelay := s.delay(ctx); errDelay != nil {
		return nil, errDelay
	}

	var user models.User
	errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("account: find user: %w", errFind)
	}

	var secret models.UserSecret
	errSecret := s.db.WithContext(ctx).First(&secret, "user_id = ?", user.ID).Error
	if errSecret != nil {
		if errors.Is(errSecret, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("account: load secret: %w", errSecret)
	}
	if secret.Secret != password {
		return nil, ErrInvalidCredentials
	}

	if errSession := SetSessionUser(ctx, s.db, &user); errSession != nil {
		return nil, errSession
	}
	return &user, nil
}

// Logout clears the current-session identity. It never fails on a missing
// session.
func (s *Store) Logout(ctx context.Context) error {
	return ClearSessionUser(ctx, s.db)
}

// CurrentUser returns the session identity snapshot; nil when logged out.
func (s *Store) CurrentUser(ctx context.Context) (*models.User, error) {
	return SessionUser(ctx, s.db)
}

// UpdateUserPlan changes the stored plan of userID and refreshes the session
// snapshot when it points at the same account. An unknown id is not an
// error: callers get nil and decide what that means.
func (s *Store) UpdateUserPlan(ctx context.Context, userID string, newPlan plans.Name) (*models.User, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("account: find user: %w", errFind)
	}

	user.Plan = newPlan
	if errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errSave := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("plan", newPlan).Error; errSave != nil {
			return fmt.Errorf("account: update plan: %w", errSave)
		}
		current, errCurrent := SessionUser(ctx, tx)
		if errCurrent != nil {
			return errCurrent
		}
		if current != nil && current.ID == userID {
			current.Plan = newPlan
			return SetSessionUser(ctx, tx, current)
		}
		return nil
	}); errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// RecoverPassword confirms that reset instructions were dispatched for a
// known email. The actual mail delivery is outside this store.
func (s *Store) RecoverPassword(ctx context.Context, email string) (string, error) {
	if errDelay := s.delay(ctx); errDelay != nil {
		return "", errDelay
	}

	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; errCount != nil {
		return "", fmt.Errorf("account: check email: %w", errCount)
	}
	if count == 0 {
		return "", ErrAccountNotFound
	}
	return RecoveryConfirmation, nil
}

// Package session composes the credential store, the credit ledger and the
// trial manager into the logged-in/logged-out lifecycle. The Session is an
// explicit context object: all derived state (effective plan, ledger entry,
// trial countdown) is re-computed by Reload whenever identity or plan
// changes, instead of the destructive page reload the product used.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/backup"
	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"github.com/5399ai/backend/internal/trial"
	log "github.com/sirupsen/logrus"
)

// Session is the single entry point the presentation layer talks to. It is
// the exclusive mutator of current-session state; the store and ledger own
// the durable records.
type Session struct {
	store  *account.Store
	ledger *credits.Ledger
	trials *trial.Manager
	codec  *backup.Codec
	now    func() time.Time

	onTick func(remaining time.Duration)

	mu          sync.Mutex
	user        *models.User
	entry       *models.UserCredits
	trialExpiry *time.Time
	countdown   *countdown
}

// New constructs a Session; now may be nil for the wall clock. Call Reload
// before first use so a persisted identity is reconciled, and Close on
// teardown.
func New(store *account.Store, ledger *credits.Ledger, trials *trial.Manager, codec *backup.Codec, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		store:  store,
		ledger: ledger,
		trials: trials,
		codec:  codec,
		now:    now,
	}
}

// SetCountdownHandler registers a callback invoked at 1 Hz with the time
// remaining on an active trial. A running countdown keeps the handler it
// started with; set it before Reload.
func (s *Session) SetCountdownHandler(onTick func(remaining time.Duration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = onTick
}

// Reload re-derives the whole session from the durable store: current
// identity, trial reconciliation, effective plan and ledger entry. It is
// invoked on startup and after every operation that changes identity or
// plan.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Session) reloadLocked(ctx context.Context) error {
	user, errCurrent := s.store.CurrentUser(ctx)
	if errCurrent != nil {
		return errCurrent
	}
	if user == nil {
		s.user = nil
		s.entry = nil
		s.trialExpiry = nil
		s.stopCountdownLocked()
		return nil
	}

	rec, errTrial := s.trials.Get(ctx)
	if errTrial != nil {
		return errTrial
	}
	s.trialExpiry = nil
	if rec != nil {
		if rec.Expired(s.now()) {
			reverted, errRevert := s.store.UpdateUserPlan(ctx, user.ID, rec.OriginalPlan)
			if errRevert != nil {
				return errRevert
			}
			if reverted != nil {
				user = reverted
			}
			if errClear := s.trials.Clear(ctx); errClear != nil {
				return errClear
			}
			log.WithField("plan", user.Plan).Info("premium trial expired, plan reverted")
		} else {
			// Elevated for the rest of the trial; the stored plan is
			// untouched until expiry.
			user.Plan = plans.PREMIUM
			expiry := rec.Expiry
			s.trialExpiry = &expiry
		}
	}

	entry, errLoad := s.ledger.Load(ctx, user)
	if errLoad != nil {
		return errLoad
	}

	s.user = user
	s.entry = entry
	s.syncCountdownLocked()
	return nil
}

// Login authenticates and fully re-derives the session.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, errLogin := s.store.Login(ctx, email, password); errLogin != nil {
		return nil, errLogin
	}
	if errReload := s.reloadLocked(ctx); errReload != nil {
		return nil, errReload
	}
	return s.userCopyLocked(), nil
}

// Register creates the account and derives the fresh session state.
func (s *Session) Register(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, errRegister := s.store.Register(ctx, email, password); errRegister != nil {
		return nil, errRegister
	}
	if errReload := s.reloadLocked(ctx); errReload != nil {
		return nil, errReload
	}
	return s.userCopyLocked(), nil
}

// Logout clears the session identity. The trial record, if any, stays put
// and is re-checked on the next load.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errLogout := s.store.Logout(ctx); errLogout != nil {
		return errLogout
	}
	s.user = nil
	s.entry = nil
	s.trialExpiry = nil
	s.stopCountdownLocked()
	return nil
}

// UpgradePlan moves the logged-in account to a new tier and re-derives the
// session. Without a logged-in user it is a no-op returning nil.
func (s *Session) UpgradePlan(ctx context.Context, plan plans.Name) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	updated, errUpdate := s.store.UpdateUserPlan(ctx, s.user.ID, plan)
	if errUpdate != nil {
		return nil, errUpdate
	}
	if updated == nil {
		return nil, nil
	}
	if errReload := s.reloadLocked(ctx); errReload != nil {
		return nil, errReload
	}
	return s.userCopyLocked(), nil
}

// RecoverPassword relays the recovery confirmation for a known email.
func (s *Session) RecoverPassword(ctx context.Context, email string) (string, error) {
	return s.store.RecoverPassword(ctx, email)
}

// Backup exports the logged-in account; nil when logged out.
func (s *Session) Backup(ctx context.Context) (*backup.Document, error) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return nil, nil
	}
	return s.codec.Export(ctx, user.ID)
}

// Restore imports a backup document, makes it the session identity and
// fully re-derives the session.
func (s *Session) Restore(ctx context.Context, doc *backup.Document) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, errRestore := s.codec.Restore(ctx, doc); errRestore != nil {
		return nil, errRestore
	}
	if errReload := s.reloadLocked(ctx); errReload != nil {
		return nil, errReload
	}
	log.Info("account restored from backup")
	return s.userCopyLocked(), nil
}

// StartPremiumTrial elevates the logged-in account to the top tier for the
// trial duration. Accounts already on the top tier (bought or elevated) are
// left alone.
func (s *Session) StartPremiumTrial(ctx context.Context) (*trial.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.Plan == plans.PREMIUM {
		return nil, nil
	}
	rec, errStart := s.trials.Start(ctx, s.user.Plan)
	if errStart != nil {
		return nil, errStart
	}
	if _, errElevate := s.store.UpdateUserPlan(ctx, s.user.ID, plans.PREMIUM); errElevate != nil {
		return nil, errElevate
	}
	if errReload := s.reloadLocked(ctx); errReload != nil {
		return nil, errReload
	}
	log.WithField("until", rec.Expiry).Info("premium trial started")
	return &rec, nil
}

// UseCredit consumes one generation credit for the effective plan; false
// means out of credits (or no session), which callers surface as an
// upgrade prompt, not an error.
func (s *Session) UseCredit(ctx context.Context, resource credits.Resource) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, errUse := s.ledger.Use(ctx, s.user, resource)
	if errUse != nil {
		return false, errUse
	}
	if ok && s.user != nil && !plans.IsUnlimited(s.user.Plan) {
		entry, errEntry := s.ledger.Entry(ctx, s.user.ID)
		if errEntry != nil {
			return true, errEntry
		}
		s.entry = entry
	}
	return ok, nil
}

// User returns a copy of the session's effective user; nil when logged out.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userCopyLocked()
}

func (s *Session) userCopyLocked() *models.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Credits returns a copy of the loaded ledger entry; nil for unlimited
// plans or logged-out sessions.
func (s *Session) Credits() *models.UserCredits {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return nil
	}
	entry := *s.entry
	return &entry
}

// TrialActive reports whether the session runs on an elevated trial plan.
func (s *Session) TrialActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.Plan == plans.PREMIUM && s.trialExpiry != nil
}

// TrialExpiry returns the trial end instant; nil when no trial is active.
func (s *Session) TrialExpiry() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trialExpiry == nil {
		return nil
	}
	expiry := *s.trialExpiry
	return &expiry
}

// Close tears the session down, stopping the countdown timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
}

// FormatRemaining renders a trial countdown as mm:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

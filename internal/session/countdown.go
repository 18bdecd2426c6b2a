package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// countdown is the 1 Hz trial timer. It only observes: the authoritative
// expiry lives on the session row, and the timer's sole job is to publish
// the remaining time and trigger a reload once it sees the deadline pass.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (s *Session) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// syncCountdownLocked aligns the timer with the reconciled trial state:
// restarted on every reload that finds an active trial so an overwritten
// expiry takes effect, stopped otherwise.
func (s *Session) syncCountdownLocked() {
	s.stopCountdownLocked()
	if s.trialExpiry == nil {
		return
	}
	c := &countdown{stop: make(chan struct{})}
	s.countdown = c
	// The handler is captured here, under the lock, so the goroutine never
	// reads s.onTick concurrently with SetCountdownHandler.
	go s.runCountdown(c, *s.trialExpiry, s.onTick)
}

func (s *Session) runCountdown(c *countdown, expiry time.Time, onTick func(time.Duration)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			remaining := expiry.Sub(s.now())
			if remaining <= 0 {
				c.Stop()
				if errReload := s.Reload(context.Background()); errReload != nil {
					log.WithError(errReload).Error("failed to reconcile expired trial")
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/5399ai/backend/internal/session"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// TrialHandler serves the premium trial endpoints.
type TrialHandler struct {
	sess *session.Session
	now  func() time.Time
}

// NewTrialHandler constructs a TrialHandler.
func NewTrialHandler(sess *session.Session, now func() time.Time) *TrialHandler {
	if now == nil {
		now = time.Now
	}
	return &TrialHandler{sess: sess, now: now}
}

// Start begins the one-hour trial for the logged-in account.
func (h *TrialHandler) Start(c *gin.Context) {
	rec, errStart := h.sess.StartPremiumTrial(c.Request.Context())
	if errStart != nil {
		log.WithError(errStart).Error("start trial failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "start trial failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "plan already covers the top tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":        true,
		"original_plan": rec.OriginalPlan,
		"expiry":        rec.Expiry,
		"remaining":     session.FormatRemaining(rec.Remaining(h.now())),
	})
}

// Status reports the trial state for the logged-in account.
func (h *TrialHandler) Status(c *gin.Context) {
	if !h.sess.TrialActive() {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	expiry := h.sess.TrialExpiry()
	c.JSON(http.StatusOK, gin.H{
		"active":    true,
		"expiry":    expiry,
		"remaining": session.FormatRemaining(expiry.Sub(h.now())),
	})
}

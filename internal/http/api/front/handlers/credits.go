package handlers

import (
	"net/http"

	"github.com/5399ai/backend/internal/plans"
	"github.com/5399ai/backend/internal/session"
	"github.com/gin-gonic/gin"
)

// CreditsHandler reports the session's credit state.
type CreditsHandler struct {
	sess *session.Session
}

// NewCreditsHandler constructs a CreditsHandler.
func NewCreditsHandler(sess *session.Session) *CreditsHandler {
	return &CreditsHandler{sess: sess}
}

// Get returns today's remaining credits; unlimited plans report no counts.
func (h *CreditsHandler) Get(c *gin.Context) {
	user := h.sess.User()
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"credits":   h.sess.Credits(),
		"unlimited": plans.IsUnlimited(user.Plan),
	})
}

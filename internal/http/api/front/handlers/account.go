package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/config"
	"github.com/5399ai/backend/internal/security"
	"github.com/5399ai/backend/internal/session"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AccountHandler serves the account lifecycle endpoints.
type AccountHandler struct {
	sess   *session.Session
	jwtCfg config.JWT
	now    func() time.Time
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(sess *session.Session, jwtCfg config.JWT, now func() time.Time) *AccountHandler {
	if now == nil {
		now = time.Now
	}
	return &AccountHandler{sess: sess, jwtCfg: jwtCfg, now: now}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) sessionPayload(token string) gin.H {
	out := gin.H{
		"user":    h.sess.User(),
		"credits": h.sess.Credits(),
	}
	if token != "" {
		out["token"] = token
	}
	if h.sess.TrialActive() {
		out["trial_expiry"] = h.sess.TrialExpiry()
	}
	return out
}

func (h *AccountHandler) issueToken(c *gin.Context) (string, bool) {
	user := h.sess.User()
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not established"})
		return "", false
	}
	token, errSign := security.SignUserToken(h.jwtCfg.Secret, user.ID, user.Email, h.jwtCfg.Expiry, h.now())
	if errSign != nil {
		log.WithError(errSign).Error("sign session token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return "", false
	}
	return token, true
}

// Register creates an account and opens its session.
func (h *AccountHandler) Register(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	if _, errRegister := h.sess.Register(c.Request.Context(), body.Email, body.Password); errRegister != nil {
		if errors.Is(errRegister, account.ErrDuplicateAccount) {
			c.JSON(http.StatusConflict, gin.H{"error": errRegister.Error()})
			return
		}
		log.WithError(errRegister).Error("register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	token, ok := h.issueToken(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, h.sessionPayload(token))
}

// Login authenticates and opens the account session.
func (h *AccountHandler) Login(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if _, errLogin := h.sess.Login(c.Request.Context(), strings.TrimSpace(body.Email), body.Password); errLogin != nil {
		if errors.Is(errLogin, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errLogin.Error()})
			return
		}
		log.WithError(errLogin).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, ok := h.issueToken(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.sessionPayload(token))
}

// Logout closes the account session.
func (h *AccountHandler) Logout(c *gin.Context) {
	if errLogout := h.sess.Logout(c.Request.Context()); errLogout != nil {
		log.WithError(errLogout).Error("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me returns the session's effective user and derived state.
func (h *AccountHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionPayload(""))
}

type recoverRequest struct {
	Email string `json:"email"`
}

// Recover relays the password recovery confirmation for a known email.
func (h *AccountHandler) Recover(c *gin.Context) {
	var body recoverRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	message, errRecover := h.sess.RecoverPassword(c.Request.Context(), strings.TrimSpace(body.Email))
	if errRecover != nil {
		if errors.Is(errRecover, account.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errRecover.Error()})
			return
		}
		log.WithError(errRecover).Error("recover password failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recover failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

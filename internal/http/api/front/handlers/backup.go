package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/5399ai/backend/internal/backup"
	"github.com/5399ai/backend/internal/config"
	"github.com/5399ai/backend/internal/security"
	"github.com/5399ai/backend/internal/session"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const maxBackupSize = 1 << 20 // uploaded backup documents

// BackupHandler serves account export and restore.
type BackupHandler struct {
	sess   *session.Session
	jwtCfg config.JWT
	now    func() time.Time
}

// NewBackupHandler constructs a BackupHandler.
func NewBackupHandler(sess *session.Session, jwtCfg config.JWT, now func() time.Time) *BackupHandler {
	if now == nil {
		now = time.Now
	}
	return &BackupHandler{sess: sess, jwtCfg: jwtCfg, now: now}
}

// Download exports the logged-in account as the portable backup document.
func (h *BackupHandler) Download(c *gin.Context) {
	doc, errExport := h.sess.Backup(c.Request.Context())
	if errExport != nil {
		log.WithError(errExport).Error("export backup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing to export"})
		return
	}
	encoded, errEncode := backup.Encode(doc)
	if errEncode != nil {
		log.WithError(errEncode).Error("encode backup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	filename := fmt.Sprintf("5399ai_backup_%s.json", doc.User.Email)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", encoded)
}

// Restore imports a backup document and makes it the session identity.
func (h *BackupHandler) Restore(c *gin.Context) {
	raw, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxBackupSize))
	if errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	doc, errDecode := backup.Decode(raw)
	if errDecode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": backup.ErrInvalidBackup.Error()})
		return
	}

	user, errRestore := h.sess.Restore(c.Request.Context(), doc)
	if errRestore != nil {
		switch {
		case errors.Is(errRestore, backup.ErrInvalidBackup):
			c.JSON(http.StatusBadRequest, gin.H{"error": errRestore.Error()})
		case errors.Is(errRestore, backup.ErrAccountConflict):
			c.JSON(http.StatusConflict, gin.H{"error": errRestore.Error()})
		default:
			log.WithError(errRestore).Error("restore backup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		}
		return
	}
	// The restored identity replaces the one the caller's token names, so
	// a fresh token comes back with it.
	token, errSign := security.SignUserToken(h.jwtCfg.Secret, user.ID, user.Email, h.jwtCfg.Expiry, h.now())
	if errSign != nil {
		log.WithError(errSign).Error("sign session token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "credits": h.sess.Credits(), "token": token})
}

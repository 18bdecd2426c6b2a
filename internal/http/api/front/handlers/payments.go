package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"github.com/5399ai/backend/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxReceiptSize = 10 << 20

// PaymentHandler serves the manual proof-of-payment plan upgrade.
type PaymentHandler struct {
	db         *gorm.DB
	sess       *session.Session
	uploadsDir string
	now        func() time.Time
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, sess *session.Session, uploadsDir string, now func() time.Time) *PaymentHandler {
	if now == nil {
		now = time.Now
	}
	return &PaymentHandler{db: db, sess: sess, uploadsDir: uploadsDir, now: now}
}

// Create stores the payment receipt and upgrades the account to the chosen
// plan. The upgrade is immediate; receipts exist for the operator to audit.
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	plan := plans.Name(c.PostForm("plan"))
	if !plans.Valid(plan) || plan == plans.Gratuito {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}

	file, errFile := c.FormFile("receipt")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt file is required"})
		return
	}
	if file.Size > maxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt too large"})
		return
	}

	if errMkdir := os.MkdirAll(h.uploadsDir, 0o755); errMkdir != nil {
		log.WithError(errMkdir).Error("create uploads dir failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store receipt failed"})
		return
	}
	receiptID := uuid.NewString()
	storedPath := filepath.Join(h.uploadsDir, receiptID+filepath.Ext(file.Filename))
	if errSave := c.SaveUploadedFile(file, storedPath); errSave != nil {
		log.WithError(errSave).Error("save receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store receipt failed"})
		return
	}

	receipt := models.PaymentReceipt{
		ID:          receiptID,
		UserID:      userID,
		Plan:        plan,
		Filename:    filepath.Base(file.Filename),
		StoredPath:  storedPath,
		SizeBytes:   file.Size,
		SubmittedAt: h.now().UTC(),
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&receipt).Error; errCreate != nil {
		log.WithError(errCreate).Error("record receipt failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store receipt failed"})
		return
	}

	user, errUpgrade := h.sess.UpgradePlan(c.Request.Context(), plan)
	if errUpgrade != nil {
		log.WithError(errUpgrade).Error("upgrade plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upgrade failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"receipt_id": receipt.ID,
		"user":       user,
		"credits":    h.sess.Credits(),
	})
}

// List returns the logged-in account's submitted receipts.
func (h *PaymentHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var rows []models.PaymentReceipt
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list receipts failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":           row.ID,
			"plan":         row.Plan,
			"filename":     row.Filename,
			"size_bytes":   row.SizeBytes,
			"submitted_at": row.SubmittedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"receipts": out})
}

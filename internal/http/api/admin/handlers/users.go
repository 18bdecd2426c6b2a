package handlers

import (
	"errors"
	"net/http"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserHandler serves operator views over accounts.
type UserHandler struct {
	db     *gorm.DB
	store  *account.Store
	ledger *credits.Ledger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, store *account.Store, ledger *credits.Ledger) *UserHandler {
	return &UserHandler{db: db, store: store, ledger: ledger}
}

// List returns all accounts.
func (h *UserHandler) List(c *gin.Context) {
	var users []models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("id ASC").
		Find(&users).Error; errFind != nil {
		log.WithError(errFind).Error("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Get returns one account.
func (h *UserHandler) Get(c *gin.Context) {
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ?", c.Param("id")).
		First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.WithError(errFind).Error("query user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Credits returns an account's stored ledger entry; unlimited plans have
// none.
func (h *UserHandler) Credits(c *gin.Context) {
	entry, errEntry := h.ledger.Entry(c.Request.Context(), c.Param("id"))
	if errEntry != nil {
		log.WithError(errEntry).Error("query credits failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query credits failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": entry})
}

type updatePlanRequest struct {
	Plan plans.Name `json:"plan"`
}

// UpdatePlan overrides an account's plan.
func (h *UserHandler) UpdatePlan(c *gin.Context) {
	var body updatePlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !plans.Valid(body.Plan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}

	user, errUpdate := h.store.UpdateUserPlan(c.Request.Context(), c.Param("id"), body.Plan)
	if errUpdate != nil {
		log.WithError(errUpdate).Error("update plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update plan failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Receipts returns all submitted payment receipts, newest first.
func (h *UserHandler) Receipts(c *gin.Context) {
	var rows []models.PaymentReceipt
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("submitted_at DESC").
		Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Error("list receipts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list receipts failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": rows})
}

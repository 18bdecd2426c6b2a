package handlers

import (
	"net/http"
	"time"

	"github.com/5399ai/backend/internal/plans"
	"github.com/gin-gonic/gin"
)

// PlanFrontHandler serves the plan catalog.
type PlanFrontHandler struct {
	now func() time.Time
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(now func() time.Time) *PlanFrontHandler {
	if now == nil {
		now = time.Now
	}
	return &PlanFrontHandler{now: now}
}

// List returns the catalog priced for the current date.
func (h *PlanFrontHandler) List(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"plans":       plans.Current(now),
		"sale_active": now.Weekday() == plans.DiscountDay,
	})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/5399ai/backend/internal/usage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UsageHandler serves the generation log.
type UsageHandler struct {
	recorder *usage.Recorder
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(recorder *usage.Recorder) *UsageHandler {
	return &UsageHandler{recorder: recorder}
}

// List returns the most recent generation records, newest first. The
// optional "limit" query parameter caps the page size.
func (h *UsageHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, errList := h.recorder.List(c.Request.Context(), limit)
	if errList != nil {
		log.WithError(errList).Error("list generation records failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list usage failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

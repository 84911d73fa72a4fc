package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minniexp/expense-backend/internal/models"
	"github.com/minniexp/expense-backend/internal/repository"
)

type CheckpointHandler struct {
	checkpoints *repository.CheckpointRepository
}

func NewCheckpointHandler(checkpoints *repository.CheckpointRepository) *CheckpointHandler {
	return &CheckpointHandler{checkpoints: checkpoints}
}

func (h *CheckpointHandler) Get(c *gin.Context) {
	cp, err := h.checkpoints.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Checkpoint not set"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, cp)
}

// Set initializes or resets the ingestion cursor. Reserved for advanced
// users: moving it backwards re-ingests history.
func (h *CheckpointHandler) Set(c *gin.Context) {
	var req struct {
		LastDate       string `json:"last_date"`
		LastExternalID string `json:"last_external_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.LastDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last_date is required"})
		return
	}

	lastDate, err := time.Parse("2006-01-02", req.LastDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid last_date %q, want YYYY-MM-DD", req.LastDate)})
		return
	}

	if err := h.checkpoints.Set(c.Request.Context(), lastDate, req.LastExternalID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"last_date":        req.LastDate,
		"last_external_id": req.LastExternalID,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minniexp/expense-backend/internal/config"
	"github.com/minniexp/expense-backend/internal/ingest"
	"github.com/minniexp/expense-backend/internal/teller"
)

type TellerHandler struct {
	pipeline *ingest.Pipeline
	cfg      config.TellerConfig
}

func NewTellerHandler(pipeline *ingest.Pipeline, cfg config.TellerConfig) *TellerHandler {
	return &TellerHandler{pipeline: pipeline, cfg: cfg}
}

// Enrollment returns what the frontend needs to start a bank enrollment.
func (h *TellerHandler) Enrollment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"application_id": h.cfg.ApplicationID,
		"environment":    h.cfg.Environment,
	})
}

// credentials builds a per-request credential object. A caller-supplied
// token takes precedence over the configured one; nothing is cached across
// requests.
func (h *TellerHandler) credentials(c *gin.Context) (teller.Credentials, bool) {
	token := c.GetHeader("X-Teller-Token")
	if token == "" {
		token = h.cfg.AccessToken
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No access token available. Please connect a bank account first.",
		})
		return teller.Credentials{}, false
	}
	return teller.Credentials{AccessToken: token}, true
}

// Preview fetches and classifies the latest feed transactions without
// persisting anything. Duplicates are included and flagged.
func (h *TellerHandler) Preview(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	batch, err := h.pipeline.Preview(c.Request.Context(), creds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Sync runs the full ingestion pipeline and returns the newly persisted
// transactions.
func (h *TellerHandler) Sync(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	persisted, err := h.pipeline.Run(c.Request.Context(), creds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"persisted":    len(persisted),
		"transactions": persisted,
	})
}

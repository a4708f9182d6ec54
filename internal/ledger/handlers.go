package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reliefnet/aidledger/internal/validation"
)

// Handler provides HTTP endpoints for reading the transaction log.
type Handler struct {
	log    *Log
	logger *slog.Logger
}

// NewHandler creates a transaction log handler.
func NewHandler(log *Log, logger *slog.Logger) *Handler {
	return &Handler{log: log, logger: logger}
}

// RegisterRoutes sets up transaction log routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/spending/:sender", h.GetHistory)
}

// GetHistory handles GET /spending/:sender
func (h *Handler) GetHistory(c *gin.Context) {
	sender := validation.SanitizeAddress(c.Param("sender"))
	if !validation.IsValidAddress(sender) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_sender", "message": "sender must be a valid address"})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	txs, err := h.log.History(c.Request.Context(), sender, limit)
	if err != nil {
		h.logger.Error("failed to load spending history", "sender", sender, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_error", "message": "could not load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sender":       sender,
		"transactions": txs,
		"count":        len(txs),
	})
}

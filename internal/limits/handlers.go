package limits

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reliefnet/aidledger/internal/validation"
)

// Handler provides admin HTTP endpoints for category limit management.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a category limit handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes sets up limit administration routes. Reads are open;
// the admin middleware guards every mutation.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	r.GET("/limits", h.List)
	r.GET("/limits/:category", h.Get)
	r.PUT("/limits/:category", admin, h.Put)
	r.POST("/limits/:category/override", admin, h.ActivateOverride)
	r.DELETE("/limits/:category/override", admin, h.DeactivateOverride)
}

// categoryParam returns the normalized :category URL parameter, or "" after
// writing a 400 response for malformed names.
func categoryParam(c *gin.Context) string {
	category := validation.SanitizeAddress(c.Param("category"))
	if !validation.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category", "message": "category must be a valid category name"})
		return ""
	}
	return category
}

// List handles GET /limits
func (h *Handler) List(c *gin.Context) {
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list limits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "limits_error", "message": "could not list limits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"limits": all, "count": len(all)})
}

// Get handles GET /limits/:category
func (h *Handler) Get(c *gin.Context) {
	category := categoryParam(c)
	if category == "" {
		return
	}
	limit, err := h.store.GetActive(c.Request.Context(), category)
	if err != nil {
		h.logger.Error("failed to load limit", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "limits_error", "message": "could not load limit"})
		return
	}
	if limit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no limits configured for category"})
		return
	}
	c.JSON(http.StatusOK, limit)
}

type putLimitRequest struct {
	DailyLimit          string `json:"dailyLimit"`
	WeeklyLimit         string `json:"weeklyLimit"`
	MonthlyLimit        string `json:"monthlyLimit"`
	PerTransactionLimit string `json:"perTransactionLimit"`
}

// Put handles PUT /limits/:category
func (h *Handler) Put(c *gin.Context) {
	category := categoryParam(c)
	if category == "" {
		return
	}

	var req putLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	limit := &CategoryLimit{
		Category:            category,
		DailyLimit:          req.DailyLimit,
		WeeklyLimit:         req.WeeklyLimit,
		MonthlyLimit:        req.MonthlyLimit,
		PerTransactionLimit: req.PerTransactionLimit,
	}
	if err := limit.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit", "message": err.Error()})
		return
	}

	if err := h.store.Upsert(c.Request.Context(), limit); err != nil {
		h.logger.Error("failed to upsert limit", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "limits_error", "message": "could not save limit"})
		return
	}

	h.logger.Info("category limit updated", "category", category, "daily", limit.DailyLimit)
	c.JSON(http.StatusOK, limit)
}

type overrideRequest struct {
	ExpiresAt string `json:"expiresAt"` // RFC3339; empty = no deadline
}

// ActivateOverride handles POST /limits/:category/override
func (h *Handler) ActivateOverride(c *gin.Context) {
	category := categoryParam(c)
	if category == "" {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	var expiry time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_expiry", "message": "expiresAt must be RFC3339"})
			return
		}
		if !parsed.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_expiry", "message": "expiresAt must be in the future"})
			return
		}
		expiry = parsed
	}

	if err := h.store.SetOverride(c.Request.Context(), category, true, expiry); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no limits configured for category"})
			return
		}
		h.logger.Error("failed to activate override", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "limits_error", "message": "could not activate override"})
		return
	}

	h.logger.Warn("emergency override activated", "category", category, "expires_at", req.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"category": category, "overrideActive": true, "expiresAt": req.ExpiresAt})
}

// DeactivateOverride handles DELETE /limits/:category/override
func (h *Handler) DeactivateOverride(c *gin.Context) {
	category := categoryParam(c)
	if category == "" {
		return
	}

	if err := h.store.SetOverride(c.Request.Context(), category, false, time.Time{}); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no limits configured for category"})
			return
		}
		h.logger.Error("failed to deactivate override", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "limits_error", "message": "could not deactivate override"})
		return
	}

	h.logger.Info("emergency override deactivated", "category", category)
	c.JSON(http.StatusOK, gin.H{"category": category, "overrideActive": false})
}

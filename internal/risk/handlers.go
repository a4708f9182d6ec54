package risk

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reliefnet/aidledger/internal/ledger"
	"github.com/reliefnet/aidledger/internal/metrics"
	"github.com/reliefnet/aidledger/internal/syncutil"
	"github.com/reliefnet/aidledger/internal/validation"
)

// Handler provides HTTP endpoints for scoring and audit reporting.
type Handler struct {
	engine   *Engine
	reporter *Reporter
	store    Store
	log      *ledger.Log
	logger   *slog.Logger

	// Serializes evaluate-then-record per sender so concurrent spends
	// cannot both read history before either is written, slipping past
	// frequency and daily-limit checks.
	senderLocks *syncutil.KeyMutex

	// Defaults applied when the report query omits days/top.
	reportDays int
	reportTopN int
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithReportDefaults sets the window and top-N used when a report request
// omits the days/top query parameters. Non-positive values keep the
// package defaults.
func WithReportDefaults(days, topN int) HandlerOption {
	return func(h *Handler) {
		if days > 0 {
			h.reportDays = days
		}
		if topN > 0 {
			h.reportTopN = topN
		}
	}
}

// NewHandler creates a risk handler. The ledger log is the destination for
// validated spending transactions that pass through the scoring path.
func NewHandler(engine *Engine, reporter *Reporter, store Store, log *ledger.Log, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:      engine,
		reporter:    reporter,
		store:       store,
		log:         log,
		logger:      logger,
		senderLocks: syncutil.NewKeyMutex(),
		reportDays:  DefaultReportDays,
		reportTopN:  DefaultReportTopN,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes sets up scoring and reporting routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/spending", h.RecordSpending)
	r.POST("/risk/evaluate", h.Evaluate)
	r.GET("/risk/report", h.Report)
	r.GET("/risk/assessments/:sender", h.ListAssessments)
}

type spendingRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Category  string `json:"category"`
	Amount    string `json:"amount"`
}

// candidate validates the request and builds the candidate transaction.
// Malformed input never reaches the engine.
func (r *spendingRequest) candidate() (*ledger.Transaction, validation.ValidationErrors) {
	errs := validation.Validate(
		validation.Required("sender", r.Sender),
		validation.Required("recipient", r.Recipient),
		validation.Required("category", r.Category),
		validation.Required("amount", r.Amount),
		validation.ValidAddress("sender", r.Sender),
		validation.ValidAddress("recipient", r.Recipient),
		validation.ValidCategory("category", r.Category),
		validation.ValidAmount("amount", r.Amount),
	)
	if len(errs) > 0 {
		return nil, errs
	}
	return &ledger.Transaction{
		Sender:    validation.SanitizeAddress(r.Sender),
		Recipient: validation.SanitizeAddress(r.Recipient),
		Category:  strings.ToLower(strings.TrimSpace(r.Category)),
		Amount:    strings.TrimSpace(r.Amount),
		Type:      ledger.TypeSpending,
	}, nil
}

// RecordSpending handles POST /spending: score the candidate, then record it.
// A flagged transaction is recorded as pending review rather than rejected;
// release is a human decision.
func (h *Handler) RecordSpending(c *gin.Context) {
	var req spendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	tx, errs := req.candidate()
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": errs})
		return
	}

	ctx := c.Request.Context()
	unlock, err := h.senderLocks.Lock(ctx, tx.Sender)
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request_cancelled", "message": "request cancelled while queued"})
		return
	}
	defer unlock()

	assessment := h.engine.Evaluate(ctx, tx)

	tx.Status = ledger.StatusConfirmed
	if assessment.RequiresReview {
		tx.Status = ledger.StatusPendingReview
	}
	tx.Timestamp = assessment.EvaluatedAt

	if err := h.log.Record(ctx, tx); err != nil {
		h.logger.Error("failed to record spending", "sender", tx.Sender, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger_error", "message": "could not record transaction"})
		return
	}
	metrics.SpendingRecordedTotal.WithLabelValues(string(tx.Status)).Inc()

	// Best-effort audit trail; assessment loss must not fail the spend.
	if err := h.store.Record(ctx, assessment); err != nil {
		h.logger.Error("failed to persist assessment", "id", assessment.ID, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": tx,
		"assessment":  assessment,
	})
}

// Evaluate handles POST /risk/evaluate: a dry run that scores a candidate
// without recording anything.
func (h *Handler) Evaluate(c *gin.Context) {
	var req spendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	tx, errs := req.candidate()
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "details": errs})
		return
	}

	c.JSON(http.StatusOK, h.engine.Evaluate(c.Request.Context(), tx))
}

// Report handles GET /risk/report?days=30&top=5
func (h *Handler) Report(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(h.reportDays)))
	top, _ := strconv.Atoi(c.DefaultQuery("top", strconv.Itoa(h.reportTopN)))

	report, err := h.reporter.Report(c.Request.Context(), days, top)
	if err != nil {
		h.logger.Error("failed to generate fraud report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_error", "message": "could not generate report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListAssessments handles GET /risk/assessments/:sender?limit=N
func (h *Handler) ListAssessments(c *gin.Context) {
	sender := validation.SanitizeAddress(c.Param("sender"))
	if !validation.IsValidAddress(sender) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_sender", "message": "sender must be a valid address"})
		return
	}
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	assessments, err := h.store.ListBySender(c.Request.Context(), sender, limit)
	if err != nil {
		h.logger.Error("failed to list assessments", "sender", sender, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assessments_error", "message": "could not list assessments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sender": sender, "assessments": assessments, "count": len(assessments)})
}

package risk

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reliefnet/aidledger/internal/idgen"
	"github.com/reliefnet/aidledger/internal/ledger"
	"github.com/reliefnet/aidledger/internal/limits"
	"github.com/reliefnet/aidledger/internal/metrics"
	"github.com/reliefnet/aidledger/internal/traces"
)

// historyWindow covers the longest lookback any detector needs (60 days for
// behavior drift); shorter windows are sliced from the same snapshot.
const historyWindow = behaviorWindow

// Engine evaluates candidate transactions. It holds only immutable
// collaborators; all per-evaluation state lives in the snapshot, so a single
// Engine value is safe for concurrent use.
type Engine struct {
	history ledger.History
	limits  limits.Provider
	logger  *slog.Logger
	nowFn   func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock injects the evaluation clock. Tests use this to pin "now".
func WithClock(nowFn func() time.Time) Option {
	return func(e *Engine) { e.nowFn = nowFn }
}

// NewEngine creates a risk scoring engine over the given collaborators.
func NewEngine(history ledger.History, limitProvider limits.Provider, opts ...Option) *Engine {
	e := &Engine{
		history: history,
		limits:  limitProvider,
		logger:  slog.Default(),
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores a candidate spending transaction. It never returns an
// error: when a collaborator is unreachable the result is a degraded
// assessment at level unknown, because a scoring outage must not block
// legitimate aid disbursement. The caller persists the assessment alongside
// the transaction record.
func (e *Engine) Evaluate(ctx context.Context, candidate *ledger.Transaction) *Assessment {
	now := e.nowFn().UTC()

	ctx, span := traces.StartSpan(ctx, "risk.Evaluate",
		traces.Sender(candidate.Sender),
		traces.Category(candidate.Category),
	)
	defer span.End()

	timer := time.Now()
	snap, err := e.gather(ctx, candidate, now)
	if err != nil {
		metrics.ScoringFailuresTotal.Inc()
		e.logger.Error("risk scoring degraded",
			"sender", candidate.Sender,
			"category", candidate.Category,
			"error", err,
		)
		return e.degraded(candidate, now, err)
	}

	findings := make([]*Finding, len(detectors))
	g := new(errgroup.Group)
	for i, d := range detectors {
		g.Go(func() error {
			findings[i] = d.fn(snap)
			return nil
		})
	}
	_ = g.Wait() // detectors are pure and never error

	assessment := &Assessment{
		ID:          idgen.WithPrefix("risk_"),
		Sender:      candidate.Sender,
		Recipient:   candidate.Recipient,
		Category:    candidate.Category,
		Amount:      candidate.Amount,
		Findings:    make([]Finding, 0, len(detectors)),
		EvaluatedAt: now,
	}
	for _, f := range findings {
		if f == nil {
			continue
		}
		assessment.TotalScore += f.Score
		assessment.Findings = append(assessment.Findings, *f)
		metrics.FindingsTotal.WithLabelValues(string(f.Pattern)).Inc()
	}
	assessment.Level = LevelForScore(assessment.TotalScore)
	assessment.RequiresReview = assessment.Level == LevelHigh || assessment.Level == LevelCritical

	metrics.EvaluationsTotal.WithLabelValues(string(assessment.Level)).Inc()
	metrics.EvaluationDuration.Observe(time.Since(timer).Seconds())

	if assessment.RequiresReview {
		e.logger.Warn("spending flagged for review",
			"sender", candidate.Sender,
			"category", candidate.Category,
			"level", assessment.Level,
			"score", assessment.TotalScore,
			"findings", len(assessment.Findings),
		)
	}
	return assessment
}

// gather performs every collaborator read for one evaluation up front, so the
// detectors run against a single consistent snapshot.
func (e *Engine) gather(ctx context.Context, candidate *ledger.Transaction, now time.Time) (*snapshot, error) {
	amount, ok := candidate.AmountUnits()
	if !ok {
		// The boundary rejects malformed candidates before they reach the
		// engine; treat a slip-through like any other unscorable input.
		return nil, ledger.ErrInvalidAmount
	}

	sender := strings.ToLower(candidate.Sender)
	history, err := e.history.ListBySender(ctx, sender, now.Add(-historyWindow))
	if err != nil {
		return nil, err
	}

	limit, err := e.limits.GetActive(ctx, candidate.Category)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		now:       now,
		candidate: candidate,
		amount:    amount,
		history:   history,
		limit:     limit,
	}

	// The global category average is only a baseline for senders with no
	// personal history in the category; skip the query otherwise.
	if !hasCategoryHistory(snap) {
		avg, err := e.history.CategoryAverage(ctx, candidate.Category, now.Add(-personalAverageWindow))
		if err != nil {
			return nil, err
		}
		snap.globalAverage = avg
	}
	return snap, nil
}

func hasCategoryHistory(s *snapshot) bool {
	for _, tx := range s.window(personalAverageWindow) {
		if tx.Category == s.candidate.Category {
			return true
		}
	}
	return false
}

// degraded builds the unknown-level assessment for the failure path. Total
// score stays zero and review is not required: auditors see these as scoring
// gaps, not as flagged transactions.
func (e *Engine) degraded(candidate *ledger.Transaction, now time.Time, cause error) *Assessment {
	return &Assessment{
		ID:        idgen.WithPrefix("risk_"),
		Sender:    candidate.Sender,
		Recipient: candidate.Recipient,
		Category:  candidate.Category,
		Amount:    candidate.Amount,
		Level:     LevelUnknown,
		Findings: []Finding{{
			Pattern:     PatternScoringUnavailable,
			Severity:    SeverityLow,
			Score:       0,
			Description: "risk scoring unavailable; transaction was not blocked",
			Detail:      &UnavailableDetail{Reason: cause.Error()},
		}},
		RequiresReview: false,
		EvaluatedAt:    now,
	}
}

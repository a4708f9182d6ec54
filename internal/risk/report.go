package risk

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
	"github.com/reliefnet/aidledger/internal/traces"
)

// Report defaults.
const (
	DefaultReportDays = 30
	DefaultReportTopN = 5
)

// CategoryBreakdown summarizes flagged activity within one category.
type CategoryBreakdown struct {
	Category      string        `json:"category"`
	FlaggedCount  int           `json:"flaggedCount"`
	FlaggedAmount string        `json:"flaggedAmount"`
	Levels        map[Level]int `json:"levels"`
}

// CategoryCount pairs a category with its flagged-transaction count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// FraudReport is the audit-facing aggregation over persisted assessments.
// Degraded assessments (level unknown) are excluded from flagged totals and
// reported separately as scoring gaps.
type FraudReport struct {
	WindowDays    int                  `json:"windowDays"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	TotalFlagged  int                  `json:"totalFlagged"`
	ScoringGaps   int                  `json:"scoringGaps"`
	ByCategory    []*CategoryBreakdown `json:"byCategory"`
	TopCategories []CategoryCount      `json:"topCategories"`
}

// Reporter derives fraud statistics from previously persisted assessments.
// It adds no scoring logic of its own, only grouping and summation.
type Reporter struct {
	store Store
	nowFn func() time.Time
}

// ReporterOption configures the reporter.
type ReporterOption func(*Reporter)

// WithReportClock injects the reporting clock for deterministic tests.
func WithReportClock(nowFn func() time.Time) ReporterOption {
	return func(r *Reporter) { r.nowFn = nowFn }
}

// NewReporter creates a reporter over the given assessment store.
func NewReporter(store Store, opts ...ReporterOption) *Reporter {
	r := &Reporter{store: store, nowFn: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report aggregates flagged activity over the trailing windowDays, returning
// the topN categories by flagged count. Zero or negative arguments fall back
// to the defaults. An empty window yields zero-valued aggregates, not an
// error.
func (r *Reporter) Report(ctx context.Context, windowDays, topN int) (*FraudReport, error) {
	if windowDays <= 0 {
		windowDays = DefaultReportDays
	}
	if topN <= 0 {
		topN = DefaultReportTopN
	}

	ctx, span := traces.StartSpan(ctx, "risk.Report")
	defer span.End()

	now := r.nowFn().UTC()
	assessments, err := r.store.ListSince(ctx, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}

	report := &FraudReport{
		WindowDays:    windowDays,
		GeneratedAt:   now,
		ByCategory:    []*CategoryBreakdown{},
		TopCategories: []CategoryCount{},
	}

	byCategory := make(map[string]*CategoryBreakdown)
	amounts := make(map[string]*big.Int)
	for _, a := range assessments {
		if a.Level == LevelUnknown {
			report.ScoringGaps++
			continue
		}
		if !a.Flagged() {
			continue
		}
		report.TotalFlagged++

		b := byCategory[a.Category]
		if b == nil {
			b = &CategoryBreakdown{Category: a.Category, Levels: make(map[Level]int)}
			byCategory[a.Category] = b
			amounts[a.Category] = new(big.Int)
		}
		b.FlaggedCount++
		b.Levels[a.Level]++
		if units, ok := aidunit.Parse(a.Amount); ok {
			amounts[a.Category].Add(amounts[a.Category], units)
		}
	}

	for cat, b := range byCategory {
		b.FlaggedAmount = aidunit.Format(amounts[cat])
		report.ByCategory = append(report.ByCategory, b)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		if report.ByCategory[i].FlaggedCount != report.ByCategory[j].FlaggedCount {
			return report.ByCategory[i].FlaggedCount > report.ByCategory[j].FlaggedCount
		}
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})

	for _, b := range report.ByCategory {
		if len(report.TopCategories) >= topN {
			break
		}
		report.TopCategories = append(report.TopCategories, CategoryCount{
			Category: b.Category,
			Count:    b.FlaggedCount,
		})
	}
	return report, nil
}

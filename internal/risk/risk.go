// Package risk implements category-aware spending risk scoring for aid
// disbursement.
//
// Every proposed spending transaction is evaluated against 7 independent
// anomaly detectors: burst frequency, unusual amount, cross-category velocity,
// vendor concentration, time-of-day deviation, daily-limit violation, and
// behavioral drift. Detector scores are summed and mapped to a discrete risk
// level; assessments at high or critical require manual review before the
// spend is confirmed. A scoring outage never blocks disbursement: evaluation
// degrades to an "unknown" assessment instead of failing.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Severity grades a single finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Level is the discrete classification of a whole assessment.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
	LevelUnknown  Level = "unknown"
)

// Total-score thresholds for risk levels.
const (
	ThresholdLow      = 5
	ThresholdMedium   = 15
	ThresholdHigh     = 30
	ThresholdCritical = 50
)

// LevelForScore maps a summed detector score to its risk level.
func LevelForScore(total float64) Level {
	switch {
	case total >= ThresholdCritical:
		return LevelCritical
	case total >= ThresholdHigh:
		return LevelHigh
	case total >= ThresholdMedium:
		return LevelMedium
	case total >= ThresholdLow:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// Pattern identifies which detector produced a finding.
type Pattern string

const (
	PatternHighFrequency       Pattern = "high_frequency"
	PatternUnusualAmount       Pattern = "unusual_amount"
	PatternCrossCategory       Pattern = "cross_category_velocity"
	PatternVendorConcentration Pattern = "vendor_concentration"
	PatternTimeAnomaly         Pattern = "time_pattern"
	PatternLimitViolation      Pattern = "limit_violation"
	PatternNewCategory         Pattern = "new_category"
	PatternFrequencyAnomaly    Pattern = "frequency_anomaly"
	PatternScoringUnavailable  Pattern = "scoring_unavailable"
)

// Detail is the typed metadata payload of a finding. The set of
// implementations is closed: one per Pattern, so consumers can switch on the
// pattern tag without runtime type probing.
type Detail interface {
	isDetail()
}

// FrequencyDetail accompanies high_frequency findings.
type FrequencyDetail struct {
	Count         int `json:"count"`
	WindowMinutes int `json:"windowMinutes"`
}

// AmountDetail accompanies unusual_amount findings. BaselineKind records
// whether the baseline came from the sender's own history or the global
// category average.
type AmountDetail struct {
	Ratio        float64 `json:"ratio"`
	Baseline     string  `json:"baseline"`
	BaselineKind string  `json:"baselineKind"` // "personal" or "global"
}

// VelocityDetail accompanies cross_category_velocity findings.
type VelocityDetail struct {
	Categories []string `json:"categories"`
}

// ConcentrationDetail accompanies vendor_concentration findings.
type ConcentrationDetail struct {
	Recipient  string  `json:"recipient"`
	Fraction   float64 `json:"fraction"`
	TotalSpent string  `json:"totalSpent"`
}

// TimeDetail accompanies time_pattern findings.
type TimeDetail struct {
	Hour     int     `json:"hour"`
	Fraction float64 `json:"fraction"`
}

// LimitDetail accompanies limit_violation findings. Amounts are decimal
// token strings.
type LimitDetail struct {
	DailyLimit string `json:"dailyLimit"`
	SpentToday string `json:"spentToday"` // confirmed same-day spend before this transaction
	Overflow   string `json:"overflow"`   // amount by which the day total would exceed the limit
}

// BehaviorDetail accompanies new_category and frequency_anomaly findings.
type BehaviorDetail struct {
	PriorInCategory  int     `json:"priorInCategory"`
	PriorTotal       int     `json:"priorTotal"`
	MeanIntervalDays float64 `json:"meanIntervalDays,omitempty"`
	SinceLastDays    float64 `json:"sinceLastDays,omitempty"`
}

// UnavailableDetail accompanies the synthetic scoring_unavailable finding on
// the degraded path.
type UnavailableDetail struct {
	Reason string `json:"reason"`
}

func (FrequencyDetail) isDetail()     {}
func (AmountDetail) isDetail()        {}
func (VelocityDetail) isDetail()      {}
func (ConcentrationDetail) isDetail() {}
func (TimeDetail) isDetail()          {}
func (LimitDetail) isDetail()         {}
func (BehaviorDetail) isDetail()      {}
func (UnavailableDetail) isDetail()   {}

// Finding is the structured output of one triggered detector.
type Finding struct {
	Pattern     Pattern  `json:"pattern"`
	Severity    Severity `json:"severity"`
	Score       float64  `json:"score"`
	Description string   `json:"description"`
	Detail      Detail   `json:"detail,omitempty"`
}

// findingJSON mirrors Finding with a raw detail for two-phase decoding.
type findingJSON struct {
	Pattern     Pattern         `json:"pattern"`
	Severity    Severity        `json:"severity"`
	Score       float64         `json:"score"`
	Description string          `json:"description"`
	Detail      json.RawMessage `json:"detail,omitempty"`
}

// UnmarshalJSON decodes the detail payload into the concrete type selected by
// the pattern tag.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var raw findingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Pattern = raw.Pattern
	f.Severity = raw.Severity
	f.Score = raw.Score
	f.Description = raw.Description
	f.Detail = nil
	if len(raw.Detail) == 0 {
		return nil
	}

	var detail Detail
	switch raw.Pattern {
	case PatternHighFrequency:
		detail = &FrequencyDetail{}
	case PatternUnusualAmount:
		detail = &AmountDetail{}
	case PatternCrossCategory:
		detail = &VelocityDetail{}
	case PatternVendorConcentration:
		detail = &ConcentrationDetail{}
	case PatternTimeAnomaly:
		detail = &TimeDetail{}
	case PatternLimitViolation:
		detail = &LimitDetail{}
	case PatternNewCategory, PatternFrequencyAnomaly:
		detail = &BehaviorDetail{}
	case PatternScoringUnavailable:
		detail = &UnavailableDetail{}
	default:
		return fmt.Errorf("risk: unknown finding pattern %q", raw.Pattern)
	}
	if err := json.Unmarshal(raw.Detail, detail); err != nil {
		return err
	}
	f.Detail = detail
	return nil
}

// Assessment is the immutable result of evaluating one candidate transaction.
// A later re-evaluation produces a new assessment; it never mutates this one.
type Assessment struct {
	ID             string    `json:"id"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Category       string    `json:"category"`
	Amount         string    `json:"amount"`
	Level          Level     `json:"riskLevel"`
	TotalScore     float64   `json:"totalScore"`
	Findings       []Finding `json:"findings"`
	RequiresReview bool      `json:"requiresReview"`
	EvaluatedAt    time.Time `json:"evaluatedAt"`
}

// Flagged reports whether the assessment represents detected risk, as opposed
// to a clean result or a scoring gap (level unknown).
func (a *Assessment) Flagged() bool {
	return a.Level != LevelUnknown && len(a.Findings) > 0
}

// Store persists assessments for review queues and audit reporting.
type Store interface {
	Record(ctx context.Context, a *Assessment) error
	ListBySender(ctx context.Context, sender string, limit int) ([]*Assessment, error)
	ListSince(ctx context.Context, since time.Time) ([]*Assessment, error)
}

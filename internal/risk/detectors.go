package risk

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/reliefnet/aidledger/internal/aidunit"
	"github.com/reliefnet/aidledger/internal/ledger"
	"github.com/reliefnet/aidledger/internal/limits"
)

// Detector tuning. Windows and thresholds are fixed; categories with
// different risk appetites are handled through limits, not detector knobs.
const (
	frequencyWindow = time.Hour
	frequencyMin    = 10
	frequencyCap    = 20

	amountTrigger      = 5.0
	personalMultiplier = 2.0
	personalCap        = 20.0
	personalHighRatio  = 8.0
	globalMultiplier   = 3.0
	globalCap          = 25.0
	globalHighRatio    = 10.0

	velocityWindow       = time.Hour
	velocityMinCats      = 3
	velocityWeight       = 5.0
	concentrationWindow  = 24 * time.Hour
	concentrationTrigger = 0.8
	concentrationWeight  = 15.0

	timeBaselineMin  = 5
	timeRareFraction = 0.1
	businessStart    = 9  // 09:00 inclusive
	businessEnd      = 18 // 18:00 exclusive
	timeAnomalyScore = 8.0

	limitViolationScore = 25.0

	behaviorWindow        = 60 * 24 * time.Hour
	behaviorBaselineMin   = 10
	newCategoryMinOther   = 5
	newCategoryScore      = 10.0
	frequencyAnomalyScore = 12.0
	intervalRareFraction  = 0.1

	personalAverageWindow = 30 * 24 * time.Hour
)

// snapshot is the immutable view of the world a single evaluation sees.
// All collaborator reads happen before any detector runs, so every detector
// agrees on "now" and on the history it is scoring against.
type snapshot struct {
	now           time.Time
	candidate     *ledger.Transaction
	amount        *big.Int                        // candidate amount, base units
	history       []*ledger.Transaction           // trailing 60d confirmed spending, ascending
	limit         *limits.CategoryLimit           // nil when unconfigured
	globalAverage *big.Int                        // trailing 30d category mean across all senders, nil when none
}

// window returns history entries with Timestamp after now-d.
func (s *snapshot) window(d time.Duration) []*ledger.Transaction {
	cutoff := s.now.Add(-d)
	// History is ascending; find the first entry inside the window.
	i := sort.Search(len(s.history), func(i int) bool {
		return s.history[i].Timestamp.After(cutoff)
	})
	return s.history[i:]
}

// detectorFunc is a pure function over the snapshot. A nil return means the
// detector did not trigger; detectors with an unestablishable baseline must
// return nil rather than guessing (absence of data is not evidence of fraud).
type detectorFunc func(*snapshot) *Finding

var detectors = []struct {
	name string
	fn   detectorFunc
}{
	{"high_frequency", detectHighFrequency},
	{"unusual_amount", detectUnusualAmount},
	{"cross_category_velocity", detectCrossCategory},
	{"vendor_concentration", detectVendorConcentration},
	{"time_pattern", detectTimeAnomaly},
	{"limit_violation", detectLimitViolation},
	{"behavior_anomaly", detectBehaviorAnomaly},
}

// detectHighFrequency flags bursts of same-category spending: 10 or more
// transactions in the trailing hour.
func detectHighFrequency(s *snapshot) *Finding {
	count := 0
	for _, tx := range s.window(frequencyWindow) {
		if tx.Category == s.candidate.Category {
			count++
		}
	}
	if count < frequencyMin {
		return nil
	}
	return &Finding{
		Pattern:     PatternHighFrequency,
		Severity:    SeverityMedium,
		Score:       min(float64(count)*2, frequencyCap),
		Description: fmt.Sprintf("%d %s transactions in the last hour", count, s.candidate.Category),
		Detail:      &FrequencyDetail{Count: count, WindowMinutes: 60},
	}
}

// detectUnusualAmount compares the candidate against the sender's own
// trailing-30d category average, falling back to the global category average
// for senders with no personal history. The two baselines score differently:
// a deviation from your own habits is weighted lower than an outlier against
// the whole population.
func detectUnusualAmount(s *snapshot) *Finding {
	var personal []*ledger.Transaction
	for _, tx := range s.window(personalAverageWindow) {
		if tx.Category == s.candidate.Category {
			personal = append(personal, tx)
		}
	}

	if len(personal) > 0 {
		avg := meanAmount(personal)
		ratio := aidunit.Ratio(s.amount, avg)
		if ratio < amountTrigger {
			return nil
		}
		severity := SeverityMedium
		if ratio >= personalHighRatio {
			severity = SeverityHigh
		}
		return &Finding{
			Pattern:     PatternUnusualAmount,
			Severity:    severity,
			Score:       min(ratio*personalMultiplier, personalCap),
			Description: fmt.Sprintf("amount is %.1fx the sender's 30-day %s average", ratio, s.candidate.Category),
			Detail:      &AmountDetail{Ratio: ratio, Baseline: aidunit.Format(avg), BaselineKind: "personal"},
		}
	}

	if s.globalAverage == nil || s.globalAverage.Sign() == 0 {
		return nil
	}
	ratio := aidunit.Ratio(s.amount, s.globalAverage)
	if ratio < amountTrigger {
		return nil
	}
	severity := SeverityMedium
	if ratio >= globalHighRatio {
		severity = SeverityHigh
	}
	return &Finding{
		Pattern:     PatternUnusualAmount,
		Severity:    severity,
		Score:       min(ratio*globalMultiplier, globalCap),
		Description: fmt.Sprintf("amount is %.1fx the global %s average", ratio, s.candidate.Category),
		Detail:      &AmountDetail{Ratio: ratio, Baseline: aidunit.Format(s.globalAverage), BaselineKind: "global"},
	}
}

// detectCrossCategory flags senders touching 3+ distinct categories within
// the trailing hour, the candidate's category included.
func detectCrossCategory(s *snapshot) *Finding {
	cats := map[string]bool{s.candidate.Category: true}
	for _, tx := range s.window(velocityWindow) {
		cats[tx.Category] = true
	}
	if len(cats) < velocityMinCats {
		return nil
	}
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)
	return &Finding{
		Pattern:     PatternCrossCategory,
		Severity:    SeverityMedium,
		Score:       float64(len(cats)) * velocityWeight,
		Description: fmt.Sprintf("%d distinct categories in the last hour", len(cats)),
		Detail:      &VelocityDetail{Categories: names},
	}
}

// detectVendorConcentration flags a sender funneling 80%+ of their trailing
// 24h spend, candidate included, to a single recipient. A sender with no
// trailing-24h history has no spend distribution to concentrate, so the
// detector stays silent.
func detectVendorConcentration(s *snapshot) *Finding {
	recent := s.window(concentrationWindow)
	if len(recent) == 0 {
		return nil
	}

	total := new(big.Int).Set(s.amount)
	toRecipient := new(big.Int).Set(s.amount)
	for _, tx := range recent {
		units, ok := tx.AmountUnits()
		if !ok {
			continue
		}
		total.Add(total, units)
		if tx.Recipient == s.candidate.Recipient {
			toRecipient.Add(toRecipient, units)
		}
	}
	fraction := aidunit.Ratio(toRecipient, total)
	if fraction < concentrationTrigger {
		return nil
	}
	return &Finding{
		Pattern:     PatternVendorConcentration,
		Severity:    SeverityMedium,
		Score:       fraction * concentrationWeight,
		Description: fmt.Sprintf("%.0f%% of 24h spend directed at one vendor", fraction*100),
		Detail: &ConcentrationDetail{
			Recipient:  s.candidate.Recipient,
			Fraction:   fraction,
			TotalSpent: aidunit.Format(total),
		},
	}
}

// detectTimeAnomaly flags spending at an hour the sender rarely uses, but
// only outside business hours: a rare 11:00 purchase is unremarkable, a rare
// 03:00 one is not. Needs at least 5 trailing-24h transactions for a baseline.
func detectTimeAnomaly(s *snapshot) *Finding {
	recent := s.window(concentrationWindow)
	if len(recent) < timeBaselineMin {
		return nil
	}

	hour := s.now.Hour()
	inHour := 0
	for _, tx := range recent {
		if tx.Timestamp.Hour() == hour {
			inHour++
		}
	}
	fraction := float64(inHour) / float64(len(recent))
	if fraction >= timeRareFraction {
		return nil
	}
	if hour >= businessStart && hour < businessEnd {
		return nil
	}
	return &Finding{
		Pattern:     PatternTimeAnomaly,
		Severity:    SeverityLow,
		Score:       timeAnomalyScore,
		Description: fmt.Sprintf("spending at %02d:00, an unusual hour for this sender", hour),
		Detail:      &TimeDetail{Hour: hour, Fraction: fraction},
	}
}

// detectLimitViolation flags a candidate that would push the sender's
// confirmed same-day category spend past the configured daily limit, unless
// an emergency override is in effect.
func detectLimitViolation(s *snapshot) *Finding {
	if s.limit == nil {
		return nil
	}
	dailyLimit, ok := s.limit.DailyLimitUnits()
	if !ok {
		return nil
	}

	dayStart := time.Date(s.now.Year(), s.now.Month(), s.now.Day(), 0, 0, 0, 0, time.UTC)
	spentToday := new(big.Int)
	for _, tx := range s.history {
		if tx.Category != s.candidate.Category || tx.Timestamp.Before(dayStart) {
			continue
		}
		if units, ok := tx.AmountUnits(); ok {
			spentToday.Add(spentToday, units)
		}
	}

	dayTotal := new(big.Int).Add(spentToday, s.amount)
	if dayTotal.Cmp(dailyLimit) <= 0 {
		return nil
	}
	if s.limit.OverrideInEffect(s.now) {
		return nil
	}

	overflow := new(big.Int).Sub(dayTotal, dailyLimit)
	return &Finding{
		Pattern:     PatternLimitViolation,
		Severity:    SeverityHigh,
		Score:       limitViolationScore,
		Description: fmt.Sprintf("daily %s limit exceeded by %s", s.candidate.Category, aidunit.Format(overflow)),
		Detail: &LimitDetail{
			DailyLimit: aidunit.Format(dailyLimit),
			SpentToday: aidunit.Format(spentToday),
			Overflow:   aidunit.Format(overflow),
		},
	}
}

// detectBehaviorAnomaly flags drift from the sender's established habits.
// Needs 10+ transactions over the trailing 60 days for a baseline. Two
// sub-cases, at most one of which fires: a first-ever purchase in a category
// by an otherwise active sender, or a same-category purchase arriving far
// sooner than the sender's usual cadence. The new-category case wins when
// both would apply.
func detectBehaviorAnomaly(s *snapshot) *Finding {
	if len(s.history) < behaviorBaselineMin {
		return nil
	}

	var sameCat []*ledger.Transaction
	for _, tx := range s.history {
		if tx.Category == s.candidate.Category {
			sameCat = append(sameCat, tx)
		}
	}
	others := len(s.history) - len(sameCat)

	if len(sameCat) == 0 {
		if others <= newCategoryMinOther {
			return nil
		}
		return &Finding{
			Pattern:     PatternNewCategory,
			Severity:    SeverityMedium,
			Score:       newCategoryScore,
			Description: fmt.Sprintf("first %s purchase for an otherwise active sender", s.candidate.Category),
			Detail:      &BehaviorDetail{PriorInCategory: 0, PriorTotal: len(s.history)},
		}
	}

	if len(sameCat) < 2 {
		return nil // one prior transaction gives no interval baseline
	}
	span := sameCat[len(sameCat)-1].Timestamp.Sub(sameCat[0].Timestamp)
	meanDays := span.Hours() / 24 / float64(len(sameCat)-1)
	if meanDays <= 0 {
		return nil
	}
	sinceLastDays := s.now.Sub(sameCat[len(sameCat)-1].Timestamp).Hours() / 24
	if sinceLastDays >= meanDays*intervalRareFraction {
		return nil
	}
	return &Finding{
		Pattern:     PatternFrequencyAnomaly,
		Severity:    SeverityMedium,
		Score:       frequencyAnomalyScore,
		Description: fmt.Sprintf("%s purchase %.1f days after the last, against a %.1f-day cadence", s.candidate.Category, sinceLastDays, meanDays),
		Detail: &BehaviorDetail{
			PriorInCategory:  len(sameCat),
			PriorTotal:       len(s.history),
			MeanIntervalDays: meanDays,
			SinceLastDays:    sinceLastDays,
		},
	}
}

// meanAmount returns the mean base-unit amount of the given transactions.
func meanAmount(txs []*ledger.Transaction) *big.Int {
	sum := new(big.Int)
	count := 0
	for _, tx := range txs {
		if units, ok := tx.AmountUnits(); ok {
			sum.Add(sum, units)
			count++
		}
	}
	if count == 0 {
		return new(big.Int)
	}
	return sum.Div(sum, big.NewInt(int64(count)))
}

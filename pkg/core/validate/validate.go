// Package validate checks a normalized record for internal consistency: the
// balance-sheet identity and suspicious period-over-period swings. Findings
// never block the pipeline; they are carried on the analysis context as
// warnings.
package validate

import (
	"fmt"
	"math"

	"finaudit/pkg/core/normalize"
)

// Default thresholds. The balance tolerance absorbs rounding between
// consolidated statement sections; the outlier threshold flags swings no
// ordinary business year produces.
const (
	// BalanceTolerancePct is the allowed |A - (L+E)| as a fraction of assets.
	BalanceTolerancePct = 0.01
	// OutlierThresholdPct flags year-over-year changes beyond this magnitude.
	OutlierThresholdPct = 300.0
)

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      int64 `json:"total_assets"`
	TotalLiabilities int64 `json:"total_liabilities"`
	TotalEquity      int64 `json:"total_equity"`
	ComputedAssets   int64 `json:"computed_assets"` // L + E
	Difference       int64 `json:"difference"`
	IsBalanced       bool  `json:"is_balanced"`
	Tolerance        int64 `json:"tolerance"`
}

// CheckBalanceEquation validates A = L + E within tolerance.
func CheckBalanceEquation(assets, liabilities, equity, tolerance int64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	abs := diff
	if abs < 0 {
		abs = -abs
	}
	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       abs <= tolerance,
		Tolerance:        tolerance,
	}
}

// YoYChange calculates year-over-year change between two values.
// Returns percentage change: (current - prior) / prior * 100
func YoYChange(current, prior int64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(current-prior) / math.Abs(float64(prior)) * 100
}

// OutlierCheck identifies suspicious values.
type OutlierCheck struct {
	Item       string  `json:"item"`
	Value      int64   `json:"value"`
	PriorValue int64   `json:"prior_value"`
	ChangePct  float64 `json:"change_pct"`
	IsOutlier  bool    `json:"is_outlier"`
	Reason     string  `json:"reason,omitempty"`
	Threshold  float64 `json:"threshold"`
}

// CheckForOutlier identifies if a value change is suspicious.
func CheckForOutlier(item string, current, prior int64, thresholdPct float64) *OutlierCheck {
	changePct := YoYChange(current, prior)

	check := &OutlierCheck{
		Item:       item,
		Value:      current,
		PriorValue: prior,
		ChangePct:  changePct,
		Threshold:  thresholdPct,
	}

	// Zero against a non-zero prior is more likely a matching failure than a
	// real collapse.
	if current == 0 && prior > 0 {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("%s dropped to zero against a non-zero prior period", item)
		return check
	}

	if math.Abs(changePct) > thresholdPct {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("%s changed %.1f%%, beyond the %.0f%% threshold", item, changePct, thresholdPct)
		return check
	}
	return check
}

// Report collects the consistency findings for one record.
type Report struct {
	Balance  *BalanceCheck  `json:"balance,omitempty"`
	Outliers []OutlierCheck `json:"outliers,omitempty"`
}

// Clean reports whether no finding was raised.
func (r *Report) Clean() bool {
	if r.Balance != nil && !r.Balance.IsBalanced {
		return false
	}
	return len(r.Outliers) == 0
}

// Warnings renders the findings as human-readable lines.
func (r *Report) Warnings() []string {
	var out []string
	if r.Balance != nil && !r.Balance.IsBalanced {
		out = append(out, fmt.Sprintf(
			"balance identity violated: assets %d vs liabilities+equity %d (diff %d)",
			r.Balance.TotalAssets, r.Balance.ComputedAssets, r.Balance.Difference))
	}
	for _, o := range r.Outliers {
		if o.IsOutlier {
			out = append(out, o.Reason)
		}
	}
	return out
}

// outlierFields are the fields screened against the prior period.
var outlierFields = []string{
	normalize.FieldRevenue,
	normalize.FieldNetIncome,
	normalize.FieldTotalAssets,
}

// CheckRecord screens a normalized record, optionally against its prior
// period. The balance check is skipped when any balance-sheet field is
// unmatched; outlier checks are skipped without a prior record.
func CheckRecord(rec, prior *normalize.Record) *Report {
	report := &Report{}
	if rec == nil {
		return report
	}

	if !rec.Flagged(normalize.FieldTotalAssets) &&
		!rec.Flagged(normalize.FieldTotalLiabilities) &&
		!rec.Flagged(normalize.FieldTotalEquity) {
		tolerance := int64(math.Abs(float64(rec.TotalAssets)) * BalanceTolerancePct)
		report.Balance = CheckBalanceEquation(rec.TotalAssets, rec.TotalLiabilities, rec.TotalEquity, tolerance)
	}

	if prior != nil {
		for _, field := range outlierFields {
			if rec.Flagged(field) || prior.Flagged(field) {
				continue
			}
			if check := CheckForOutlier(field, rec.Get(field), prior.Get(field), OutlierThresholdPct); check.IsOutlier {
				report.Outliers = append(report.Outliers, *check)
			}
		}
	}
	return report
}

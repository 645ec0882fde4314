// Package calc provides the deterministic scoring engines: financial ratios
// and heuristic fraud-risk indicators. Both are pure functions over canonical
// records; missing inputs produce defined defaults plus low-confidence flags,
// never errors.
package calc

import (
	"finaudit/pkg/core/normalize"
)

// Ratio names, percentage scale unless noted.
const (
	RatioROE             = "ROE"
	RatioROA             = "ROA"
	RatioOperatingMargin = "operating_margin"
	RatioNetMargin       = "net_margin"
	RatioDebtRatio       = "debt_ratio"
	RatioEquityRatio     = "equity_ratio"
	RatioRevenueGrowth   = "revenue_growth"
	RatioNetIncomeGrowth = "net_income_growth"
)

// RatioSet holds the computed profitability, leverage and growth ratios.
// Growth ratios are only meaningful when HasGrowth is true.
type RatioSet struct {
	ROE             float64 `json:"roe"`
	ROA             float64 `json:"roa"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
	DebtRatio       float64 `json:"debt_ratio"`
	EquityRatio     float64 `json:"equity_ratio"`

	RevenueGrowth   float64 `json:"revenue_growth"`
	NetIncomeGrowth float64 `json:"net_income_growth"`
	HasGrowth       bool    `json:"has_growth"`

	// LowConfidence names ratios whose inputs carried parse-ambiguity flags,
	// so a computed 0% margin can be annotated instead of presented as fact.
	LowConfidence []string `json:"low_confidence,omitempty"`
}

// ratioInputs maps each ratio to the canonical fields it divides. Used to
// propagate unmatched-field warnings onto derived values.
var ratioInputs = map[string][]string{
	RatioROE:             {normalize.FieldNetIncome, normalize.FieldTotalEquity},
	RatioROA:             {normalize.FieldNetIncome, normalize.FieldTotalAssets},
	RatioOperatingMargin: {normalize.FieldOperatingIncome, normalize.FieldRevenue},
	RatioNetMargin:       {normalize.FieldNetIncome, normalize.FieldRevenue},
	RatioDebtRatio:       {normalize.FieldTotalLiabilities, normalize.FieldTotalEquity},
	RatioEquityRatio:     {normalize.FieldTotalEquity, normalize.FieldTotalAssets},
}

// ratioOrder fixes the reporting order of the point-in-time ratios.
var ratioOrder = []string{
	RatioROE, RatioROA, RatioOperatingMargin, RatioNetMargin,
	RatioDebtRatio, RatioEquityRatio,
}

// Ratios computes the ratio set for one period. prior may be nil; growth
// ratios are then omitted. All divisions are safe: a zero denominator yields
// the documented default of 0.
func Ratios(cur *normalize.Record, prior *normalize.Record) *RatioSet {
	rs := &RatioSet{}
	if cur == nil {
		cur = &normalize.Record{Unmatched: append([]string{}, normalize.FieldNames...)}
	}

	rs.ROE = safeDiv(float64(cur.NetIncome), float64(cur.TotalEquity)) * 100
	rs.ROA = safeDiv(float64(cur.NetIncome), float64(cur.TotalAssets)) * 100
	rs.OperatingMargin = safeDiv(float64(cur.OperatingIncome), float64(cur.Revenue)) * 100
	rs.NetMargin = safeDiv(float64(cur.NetIncome), float64(cur.Revenue)) * 100
	rs.DebtRatio = safeDiv(float64(cur.TotalLiabilities), float64(cur.TotalEquity)) * 100
	rs.EquityRatio = safeDiv(float64(cur.TotalEquity), float64(cur.TotalAssets)) * 100

	if prior != nil {
		rs.HasGrowth = true
		rs.RevenueGrowth = safeDiv(float64(cur.Revenue-prior.Revenue), float64(prior.Revenue)) * 100
		rs.NetIncomeGrowth = safeDiv(float64(cur.NetIncome-prior.NetIncome), float64(prior.NetIncome)) * 100
	}

	for _, name := range ratioOrder {
		for _, field := range ratioInputs[name] {
			if cur.Flagged(field) {
				rs.LowConfidence = append(rs.LowConfidence, name)
				break
			}
		}
	}

	// Growth ratios divide across both periods, so either record's flags taint
	// them.
	if prior != nil {
		for _, g := range []struct{ name, field string }{
			{RatioRevenueGrowth, normalize.FieldRevenue},
			{RatioNetIncomeGrowth, normalize.FieldNetIncome},
		} {
			if cur.Flagged(g.field) || prior.Flagged(g.field) {
				rs.LowConfidence = append(rs.LowConfidence, g.name)
			}
		}
	}
	return rs
}

// Get returns a ratio by name; unknown names return 0.
func (rs *RatioSet) Get(name string) float64 {
	switch name {
	case RatioROE:
		return rs.ROE
	case RatioROA:
		return rs.ROA
	case RatioOperatingMargin:
		return rs.OperatingMargin
	case RatioNetMargin:
		return rs.NetMargin
	case RatioDebtRatio:
		return rs.DebtRatio
	case RatioEquityRatio:
		return rs.EquityRatio
	case RatioRevenueGrowth:
		return rs.RevenueGrowth
	case RatioNetIncomeGrowth:
		return rs.NetIncomeGrowth
	}
	return 0
}

// AsMap renders the point-in-time ratios (plus growth when present) keyed by
// canonical ratio name.
func (rs *RatioSet) AsMap() map[string]float64 {
	m := make(map[string]float64, 8)
	for _, name := range ratioOrder {
		m[name] = rs.Get(name)
	}
	if rs.HasGrowth {
		m[RatioRevenueGrowth] = rs.RevenueGrowth
		m[RatioNetIncomeGrowth] = rs.NetIncomeGrowth
	}
	return m
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

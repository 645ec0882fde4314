package calc

import (
	"math"
	"testing"

	"finaudit/pkg/core/normalize"
)

func TestRatios_ReferenceRecord(t *testing.T) {
	rec := &normalize.Record{
		Revenue:          1_000_000,
		NetIncome:        100_000,
		TotalEquity:      500_000,
		TotalLiabilities: 300_000,
	}

	rs := Ratios(rec, nil)

	if rs.ROE != 20.0 {
		t.Errorf("ROE = %v, want 20.0", rs.ROE)
	}
	if rs.DebtRatio != 60.0 {
		t.Errorf("DebtRatio = %v, want 60.0", rs.DebtRatio)
	}
	if rs.NetMargin != 10.0 {
		t.Errorf("NetMargin = %v, want 10.0", rs.NetMargin)
	}
	if rs.HasGrowth {
		t.Error("HasGrowth should be false without a prior record")
	}
}

func TestRatios_ZeroDenominators(t *testing.T) {
	rs := Ratios(&normalize.Record{NetIncome: 100}, nil)

	// equity=0, assets=0, revenue=0: every ratio must default to 0, finitely.
	for name, v := range rs.AsMap() {
		if v != 0 {
			t.Errorf("ratio %s = %v, want 0", name, v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("ratio %s is not finite: %v", name, v)
		}
	}
}

func TestRatios_Growth(t *testing.T) {
	cur := &normalize.Record{Revenue: 1_100_000, NetIncome: 90_000}
	prior := &normalize.Record{Revenue: 1_000_000, NetIncome: 100_000}

	rs := Ratios(cur, prior)

	if !rs.HasGrowth {
		t.Fatal("HasGrowth should be true")
	}
	if math.Abs(rs.RevenueGrowth-10.0) > 1e-9 {
		t.Errorf("RevenueGrowth = %v, want 10.0", rs.RevenueGrowth)
	}
	if math.Abs(rs.NetIncomeGrowth-(-10.0)) > 1e-9 {
		t.Errorf("NetIncomeGrowth = %v, want -10.0", rs.NetIncomeGrowth)
	}
}

func TestRatios_GrowthZeroPriorRevenue(t *testing.T) {
	rs := Ratios(&normalize.Record{Revenue: 500}, &normalize.Record{})
	if rs.RevenueGrowth != 0 {
		t.Errorf("RevenueGrowth = %v, want 0 for zero prior revenue", rs.RevenueGrowth)
	}
}

func TestRatios_GrowthLowConfidence(t *testing.T) {
	cur := &normalize.Record{Revenue: 1_100_000, NetIncome: 90_000}
	prior := &normalize.Record{
		NetIncome: 100_000,
		Unmatched: []string{normalize.FieldRevenue},
	}

	rs := Ratios(cur, prior)

	got := map[string]bool{}
	for _, name := range rs.LowConfidence {
		got[name] = true
	}
	if !got[RatioRevenueGrowth] {
		t.Errorf("revenue_growth should be flagged when the prior revenue is unmatched, got %v", rs.LowConfidence)
	}
	if got[RatioNetIncomeGrowth] {
		t.Errorf("net_income_growth should not be flagged, got %v", rs.LowConfidence)
	}

	// A flag on the current record taints the growth ratio the same way.
	cur = &normalize.Record{Revenue: 1_100_000, Unmatched: []string{normalize.FieldNetIncome}}
	prior = &normalize.Record{Revenue: 1_000_000, NetIncome: 100_000}
	rs = Ratios(cur, prior)
	found := false
	for _, name := range rs.LowConfidence {
		if name == RatioNetIncomeGrowth {
			found = true
		}
	}
	if !found {
		t.Errorf("net_income_growth should be flagged via the current record, got %v", rs.LowConfidence)
	}
}

func TestRatios_LowConfidencePropagation(t *testing.T) {
	rec := &normalize.Record{
		Revenue:     1_000_000,
		TotalAssets: 2_000_000,
		TotalEquity: 800_000,
		Unmatched:   []string{normalize.FieldNetIncome},
	}

	rs := Ratios(rec, nil)

	wantFlagged := map[string]bool{RatioROE: true, RatioROA: true, RatioNetMargin: true}
	got := map[string]bool{}
	for _, name := range rs.LowConfidence {
		got[name] = true
	}
	for name := range wantFlagged {
		if !got[name] {
			t.Errorf("ratio %s should be flagged low-confidence, got %v", name, rs.LowConfidence)
		}
	}
	if got[RatioEquityRatio] {
		t.Errorf("equity_ratio should not be flagged, got %v", rs.LowConfidence)
	}
}

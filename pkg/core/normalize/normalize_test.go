package normalize

import (
	"testing"

	"finaudit/pkg/core/dart"
)

func item(section dart.StatementSection, account, amount string) dart.RawLineItem {
	return dart.RawLineItem{Section: section, Account: account, Amount: amount}
}

func TestStatement_ExactMatchWins(t *testing.T) {
	items := []dart.RawLineItem{
		item(dart.SectionIncome, "매출액", "1,000,000"),
		item(dart.SectionIncome, "영업수익", "999"), // lower priority synonym, must lose
		item(dart.SectionIncome, "영업이익", "200,000"),
		item(dart.SectionIncome, "당기순이익", "100,000"),
		item(dart.SectionBalance, "자산총계", "5,000,000"),
		item(dart.SectionBalance, "부채총계", "3,000,000"),
		item(dart.SectionBalance, "자본총계", "2,000,000"),
		item(dart.SectionBalance, "현금및현금성자산", "400,000"),
		item(dart.SectionBalance, "매출채권", "150,000"),
		item(dart.SectionBalance, "재고자산", "80,000"),
	}

	rec := Statement(items)

	if rec.Revenue != 1000000 {
		t.Errorf("Revenue = %d, want 1000000", rec.Revenue)
	}
	if rec.OperatingIncome != 200000 {
		t.Errorf("OperatingIncome = %d, want 200000", rec.OperatingIncome)
	}
	if rec.NetIncome != 100000 {
		t.Errorf("NetIncome = %d, want 100000", rec.NetIncome)
	}
	if len(rec.Unmatched) != 0 {
		t.Errorf("Unmatched = %v, want none", rec.Unmatched)
	}
}

func TestStatement_PartialMatchOnlyWhenUnbound(t *testing.T) {
	items := []dart.RawLineItem{
		// No exact synonym matches this label; it only binds through the
		// substring pass against 순이익.
		item(dart.SectionIncome, "지배주주지분순이익", "70,000"),
		item(dart.SectionIncome, "수익(매출액)", "900,000"),
	}

	rec := Statement(items)

	if rec.NetIncome != 70000 {
		t.Errorf("NetIncome = %d, want 70000 via partial match", rec.NetIncome)
	}
	// 수익(매출액) cleans to 수익, an exact synonym of revenue.
	if rec.Revenue != 900000 {
		t.Errorf("Revenue = %d, want 900000", rec.Revenue)
	}
}

func TestStatement_UnmatchedFieldsAreZeroAndFlagged(t *testing.T) {
	rec := Statement([]dart.RawLineItem{
		item(dart.SectionIncome, "매출액", "1,000"),
	})

	for _, field := range FieldNames {
		if field == FieldRevenue {
			continue
		}
		if rec.Get(field) != 0 {
			t.Errorf("field %s = %d, want 0", field, rec.Get(field))
		}
		if !rec.Flagged(field) {
			t.Errorf("field %s should carry an unmatched flag", field)
		}
	}
	if rec.Flagged(FieldRevenue) {
		t.Error("revenue should not be flagged")
	}
}

func TestStatement_IgnoresCashFlowSection(t *testing.T) {
	rec := Statement([]dart.RawLineItem{
		item(dart.SectionCashFlow, "매출액", "500"),
	})
	if rec.Revenue != 0 {
		t.Errorf("Revenue = %d, want 0 (cash-flow section must be ignored)", rec.Revenue)
	}
}

func TestStatement_Deterministic(t *testing.T) {
	items := []dart.RawLineItem{
		item(dart.SectionIncome, "영업수익", "300"),
		item(dart.SectionIncome, "매출", "200"),
	}
	first := Statement(items)
	for i := 0; i < 10; i++ {
		again := Statement(items)
		if again.Revenue != first.Revenue {
			t.Fatalf("normalization not deterministic: %d vs %d", again.Revenue, first.Revenue)
		}
	}
	// 영업수익 outranks 매출 in the synonym table regardless of item order.
	if first.Revenue != 300 {
		t.Errorf("Revenue = %d, want 300 (synonym priority)", first.Revenue)
	}
}

func TestPriorStatement(t *testing.T) {
	items := []dart.RawLineItem{
		{Section: dart.SectionIncome, Account: "매출액", Amount: "1,000,000", PriorAmount: "900,000"},
		{Section: dart.SectionIncome, Account: "당기순이익", Amount: "100,000", PriorAmount: "80,000"},
	}

	prior := PriorStatement(items)
	if prior == nil {
		t.Fatal("expected a prior record")
	}
	if prior.Revenue != 900000 {
		t.Errorf("prior Revenue = %d, want 900000", prior.Revenue)
	}
	if prior.NetIncome != 80000 {
		t.Errorf("prior NetIncome = %d, want 80000", prior.NetIncome)
	}
	if !prior.Flagged(FieldTotalAssets) {
		t.Error("prior total_assets should carry an unmatched flag")
	}
}

func TestPriorStatement_NoPriorPeriod(t *testing.T) {
	// A first-year filing reports no comparison amounts; an all-zero record
	// here would read as 0% growth downstream.
	items := []dart.RawLineItem{
		{Section: dart.SectionIncome, Account: "매출액", Amount: "1,000,000", PriorAmount: "-"},
		{Section: dart.SectionIncome, Account: "당기순이익", Amount: "100,000", PriorAmount: ""},
		{Section: dart.SectionBalance, Account: "자산총계", Amount: "5,000,000", PriorAmount: "-"},
	}

	if prior := PriorStatement(items); prior != nil {
		t.Errorf("PriorStatement = %+v, want nil for a filing without prior amounts", prior)
	}
}

func TestCashFlowStatement(t *testing.T) {
	cf := CashFlowStatement([]dart.RawLineItem{
		item(dart.SectionCashFlow, "영업활동으로인한현금흐름", "120,000"),
		item(dart.SectionCashFlow, "투자활동현금흐름", "-50,000"),
	})

	if cf.Operating != 120000 {
		t.Errorf("Operating = %d, want 120000", cf.Operating)
	}
	if cf.Investing != -50000 {
		t.Errorf("Investing = %d, want -50000", cf.Investing)
	}
	if cf.Financing != 0 {
		t.Errorf("Financing = %d, want 0", cf.Financing)
	}
	if len(cf.Unmatched) != 1 || cf.Unmatched[0] != "financing_cash_flow" {
		t.Errorf("Unmatched = %v, want [financing_cash_flow]", cf.Unmatched)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1,234,567", 1234567},
		{"-2,500", -2500},
		{"", 0},
		{"-", 0},
		{"0", 0},
		{"nan", 0},
		{"NaN", 0},
		{" 42 ", 42},
		{"12.9", 12},
		{"garbage", 0},
	}
	for _, c := range cases {
		if got := ParseAmount(c.in); got != c.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCleanLabel(t *testing.T) {
	if got := CleanLabel("영업이익(손실)"); got != "영업이익" {
		t.Errorf("CleanLabel = %q, want 영업이익", got)
	}
	if got := CleanLabel("[구 기준] 매출액"); got != "매출액" {
		t.Errorf("CleanLabel = %q, want 매출액", got)
	}
}

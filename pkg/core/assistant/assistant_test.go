package assistant

import (
	"context"
	"testing"
	"time"

	"finaudit/pkg/core/calc"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/intent"
	"finaudit/pkg/core/normalize"
	"finaudit/pkg/core/store"
)

// stubRunner serves canned analysis contexts and records invocations.
type stubRunner struct {
	calls    int
	lastYear string
	result   *store.AnalysisContext
	err      error
}

func (s *stubRunner) RunFullAnalysisForYear(ctx context.Context, entityName, year string) (*store.AnalysisContext, error) {
	s.calls++
	s.lastYear = year
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func analyzedContext(name string) *store.AnalysisContext {
	return &store.AnalysisContext{
		EntityName: name,
		FiscalYear: "2023",
		Record: &normalize.Record{
			Revenue: 1_000_000_000_000, OperatingIncome: 150_000_000_000,
			NetIncome: 100_000_000_000, TotalAssets: 2_000_000_000_000,
			TotalLiabilities: 800_000_000_000, TotalEquity: 1_200_000_000_000,
		},
		Ratios: &calc.RatioSet{
			ROE: 20, ROA: 5, OperatingMargin: 15, NetMargin: 10,
			DebtRatio: 66.7, EquityRatio: 60,
			HasGrowth: true, RevenueGrowth: 11.1, NetIncomeGrowth: 25,
		},
		Fraud: &calc.FraudIndicators{
			CashFlowToNetIncome: 1.1, ReceivablesToRevenue: 5,
			RiskScore: 0, RiskLevel: calc.RiskMinimal,
		},
		FraudConsensus: &deliberation.ConsensusResult{
			Topic: deliberation.TopicFraudRisk, Grade: deliberation.GradeA, Confidence: 80,
		},
		FinalConsensus: &deliberation.ConsensusResult{
			Topic: deliberation.TopicFinalOpinion, Grade: deliberation.GradeA, Confidence: 90,
			FinalText: "우수한 재무 구조입니다. grade: A",
		},
		CreatedAt: time.Now(),
	}
}

func testAssistant(t *testing.T) (*Assistant, *store.ContextCache, *stubRunner) {
	t.Helper()
	cache := store.NewContextCache()
	runner := &stubRunner{result: analyzedContext("삼성전자")}
	// Nil manager: the explanation and general handlers answer from cached
	// material instead of calling a backend.
	return New(cache, runner, nil), cache, runner
}

func TestHandleQuery_FullAnalysisDelegatesToRunner(t *testing.T) {
	a, _, runner := testAssistant(t)

	resp, err := a.HandleQuery(context.Background(), "삼성전자 결산 분석해줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
	if resp.Type != TypeAnalysisComplete {
		t.Errorf("type = %s, want %s", resp.Type, TypeAnalysisComplete)
	}
	if resp.Grade != deliberation.GradeA || resp.Confidence != 90 {
		t.Errorf("grade/confidence = %v/%d, want A/90", resp.Grade, resp.Confidence)
	}
	if a.CurrentEntity() != "삼성전자" {
		t.Errorf("current entity = %q", a.CurrentEntity())
	}
	if len(resp.Suggestions) == 0 {
		t.Error("expected follow-up suggestions")
	}
}

func TestHandleQuery_FullAnalysisForwardsYear(t *testing.T) {
	a, _, runner := testAssistant(t)

	if _, err := a.HandleQuery(context.Background(), "2023년 삼성전자 결산 분석해줘"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.lastYear != "2023" {
		t.Errorf("runner year = %q, want 2023", runner.lastYear)
	}

	// No period in the query: the runner picks its default year.
	if _, err := a.HandleQuery(context.Background(), "삼성전자 분석해줘"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.lastYear != "" {
		t.Errorf("runner year = %q, want empty for runner default", runner.lastYear)
	}
}

func TestHandleQuery_FullAnalysisWithoutEntity(t *testing.T) {
	a, _, runner := testAssistant(t)

	resp, err := a.HandleQuery(context.Background(), "분석해줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeCompanyRequest {
		t.Errorf("type = %s, want %s", resp.Type, TypeCompanyRequest)
	}
	if runner.calls != 0 {
		t.Error("runner must not run without an entity")
	}
}

func TestHandleQuery_RatioNeedsAnalysisFirst(t *testing.T) {
	a, _, _ := testAssistant(t)
	a.SetEntity("삼성전자")

	resp, err := a.HandleQuery(context.Background(), "부채비율 알려줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeAnalysisNeeded {
		t.Errorf("type = %s, want %s", resp.Type, TypeAnalysisNeeded)
	}
}

func TestHandleQuery_RatioFiltersRequested(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "ROE 알려줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeRatio {
		t.Fatalf("type = %s, want %s", resp.Type, TypeRatio)
	}
	if len(resp.Ratios) != 1 {
		t.Fatalf("ratios = %v, want only ROE", resp.Ratios)
	}
	if resp.Ratios[calc.RatioROE] != "20.00%" {
		t.Errorf("ROE = %s, want 20.00%%", resp.Ratios[calc.RatioROE])
	}
	if resp.Message == "" {
		t.Error("expected explanation message")
	}
}

func TestHandleQuery_FraudSummary(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "부정 위험 있어?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeFraud {
		t.Fatalf("type = %s, want %s", resp.Type, TypeFraud)
	}
	if resp.Grade != deliberation.GradeA {
		t.Errorf("grade = %v, want A from fraud consensus", resp.Grade)
	}
}

func TestHandleQuery_IndustryComparison(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "업계평균과 비교해줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeComparison {
		t.Fatalf("type = %s, want %s", resp.Type, TypeComparison)
	}
	if len(resp.Comparison) != 5 {
		t.Fatalf("comparison rows = %d, want 5", len(resp.Comparison))
	}

	byRatio := map[string]RatioComparison{}
	for _, c := range resp.Comparison {
		byRatio[c.Ratio] = c
	}
	if c := byRatio[calc.RatioROE]; !c.Favorable {
		t.Error("ROE 20 vs benchmark 12.5 must be favorable")
	}
	if c := byRatio[calc.RatioROA]; c.Favorable {
		t.Error("ROA 5 vs benchmark 8.3 must be unfavorable")
	}
	if c := byRatio[calc.RatioDebtRatio]; !c.Favorable {
		t.Error("debt ratio below benchmark must be favorable")
	}
}

func TestHandleQuery_YearComparison(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "전년 대비 어때")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeComparison {
		t.Fatalf("type = %s, want %s", resp.Type, TypeComparison)
	}
}

func TestHandleQuery_VisualizationDescriptor(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "막대 그래프로 보여줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeArtifactRequest {
		t.Fatalf("type = %s, want %s", resp.Type, TypeArtifactRequest)
	}
	if resp.Request == nil || resp.Request.Kind != "chart" || resp.Request.ChartType != "bar" {
		t.Errorf("request = %+v, want bar chart", resp.Request)
	}
}

func TestHandleQuery_ReportDescriptor(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "엑셀 보고서 만들어줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Request == nil || resp.Request.Kind != "report" {
		t.Fatalf("request = %+v, want report", resp.Request)
	}
	if len(resp.Request.Formats) != 1 || resp.Request.Formats[0] != "xlsx" {
		t.Errorf("formats = %v, want [xlsx]", resp.Request.Formats)
	}
}

func TestHandleQuery_ExplanationFallsBackToConsensus(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "왜 그런 등급이 나왔는지 설명해줘")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeExplanation {
		t.Fatalf("type = %s, want %s", resp.Type, TypeExplanation)
	}
	if resp.Message != "우수한 재무 구조입니다. grade: A" {
		t.Errorf("message = %q, want consensus text", resp.Message)
	}
}

func TestHandleQuery_DataSource(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	resp, err := a.HandleQuery(context.Background(), "몇년 기준 데이터야")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != TypeDataSource {
		t.Fatalf("type = %s, want %s", resp.Type, TypeDataSource)
	}
}

func TestHandleQuery_HistoryAccumulates(t *testing.T) {
	a, cache, _ := testAssistant(t)
	a.SetEntity("삼성전자")
	cache.Put(analyzedContext("삼성전자"))

	queries := []string{"부채비율 알려줘", "부정 위험은?", "업계평균 비교"}
	for _, q := range queries {
		if _, err := a.HandleQuery(context.Background(), q); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}

	history := a.History(0)
	if len(history) != 3 {
		t.Fatalf("history = %d turns, want 3", len(history))
	}
	if history[0].Category != intent.RatioQuery {
		t.Errorf("first turn category = %v", history[0].Category)
	}

	last := a.History(1)
	if len(last) != 1 || last[0].Query != "업계평균 비교" {
		t.Errorf("History(1) = %+v", last)
	}

	a.ClearHistory()
	if len(a.History(0)) != 0 {
		t.Error("history must be empty after clear")
	}
	if a.CurrentEntity() != "삼성전자" {
		t.Error("clearing history must keep the entity")
	}
}

func TestHandleQuery_EntitySwitchMidConversation(t *testing.T) {
	a, cache, _ := testAssistant(t)
	cache.Put(analyzedContext("삼성전자"))
	cache.Put(analyzedContext("카카오"))
	a.SetEntity("삼성전자")

	resp, err := a.HandleQuery(context.Background(), "카카오 부채비율은?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Entity != "카카오" {
		t.Errorf("entity = %s, want 카카오", resp.Entity)
	}
	if a.CurrentEntity() != "카카오" {
		t.Errorf("current entity = %s, want 카카오", a.CurrentEntity())
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{1_500_000_000_000, "1.5조원"},
		{250_000_000_000, "2500억원"},
		{300_000_000, "3억원"},
		{50_000, "5만원"},
		{9_999, "9,999원"},
		{0, "0원"},
		{-1_500_000_000_000, "-1.5조원"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.amount); got != tc.want {
			t.Errorf("FormatCurrency(%d) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestRequestedRatios(t *testing.T) {
	got := requestedRatios("ROE랑 부채비율 알려줘")
	if len(got) != 2 || got[0] != calc.RatioROE || got[1] != calc.RatioDebtRatio {
		t.Errorf("requestedRatios = %v", got)
	}
	if got := requestedRatios("전반적으로 어때"); len(got) != 0 {
		t.Errorf("expected no specific ratios, got %v", got)
	}
}

package assistant

import (
	"fmt"
	"sort"
	"strings"

	"finaudit/pkg/core/calc"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/prompt"
	"finaudit/pkg/core/store"
)

// systemPrompt prefers a registry override over the built-in default.
func systemPrompt(id, fallback string) string {
	if sp, err := prompt.Get().GetSystemPrompt(id); err == nil && sp != "" {
		return sp
	}
	return fallback
}

// ratioKeywords maps query keywords onto canonical ratio names. Ordered so
// responses list ratios in a stable sequence.
var ratioKeywords = []struct {
	ratio    string
	keywords []string
}{
	{calc.RatioROE, []string{"roe", "자기자본수익률", "자본수익률"}},
	{calc.RatioROA, []string{"roa", "총자산수익률", "자산수익률"}},
	{calc.RatioOperatingMargin, []string{"영업이익률", "operating_margin"}},
	{calc.RatioNetMargin, []string{"순이익률", "net_margin"}},
	{calc.RatioDebtRatio, []string{"부채비율", "debt_ratio"}},
	{calc.RatioEquityRatio, []string{"자기자본비율", "equity_ratio"}},
	{calc.RatioRevenueGrowth, []string{"매출성장률", "성장률", "growth"}},
}

// requestedRatios extracts the specific ratios a query asks about; empty means
// the caller should present the full set.
func requestedRatios(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, rk := range ratioKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, rk.ratio)
				break
			}
		}
	}
	return out
}

// ratioExplanation builds the assessment lines for the selected ratios, using
// the customary Korean market thresholds.
func ratioExplanation(ratios map[string]float64) string {
	if len(ratios) == 0 {
		return "요청하신 비율 정보를 찾을 수 없습니다."
	}

	names := make([]string, 0, len(ratios))
	for name := range ratios {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		v := ratios[name]
		switch name {
		case calc.RatioROE:
			switch {
			case v > 15:
				lines = append(lines, fmt.Sprintf("ROE %.1f%%는 우수한 수준입니다.", v))
			case v > 8:
				lines = append(lines, fmt.Sprintf("ROE %.1f%%는 양호한 수준입니다.", v))
			default:
				lines = append(lines, fmt.Sprintf("ROE %.1f%%는 개선이 필요합니다.", v))
			}
		case calc.RatioDebtRatio:
			switch {
			case v > 200:
				lines = append(lines, fmt.Sprintf("부채비율 %.1f%%는 높은 편입니다.", v))
			case v > 100:
				lines = append(lines, fmt.Sprintf("부채비율 %.1f%%는 보통 수준입니다.", v))
			default:
				lines = append(lines, fmt.Sprintf("부채비율 %.1f%%는 안정적입니다.", v))
			}
		}
	}
	if len(lines) == 0 {
		return "분석된 비율을 확인해주세요."
	}
	return strings.Join(lines, " ")
}

// comparisonTarget resolves what the query wants to compare against.
func comparisonTarget(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "업계") || strings.Contains(lower, "평균") || strings.Contains(lower, "industry"):
		return "industry"
	case strings.Contains(lower, "작년") || strings.Contains(lower, "전년") || strings.Contains(lower, "previous"):
		return "previous_year"
	default:
		return "unknown"
	}
}

// industryBenchmarks are the reference averages used for positioning, all in
// percent. Static placeholders until a sector data source is wired in.
var industryBenchmarks = map[string]float64{
	calc.RatioROE:             12.5,
	calc.RatioROA:             8.3,
	calc.RatioDebtRatio:       85.2,
	calc.RatioOperatingMargin: 8.7,
	calc.RatioNetMargin:       6.4,
}

// benchmarkOrder fixes the comparison listing order.
var benchmarkOrder = []string{
	calc.RatioROE, calc.RatioROA, calc.RatioDebtRatio,
	calc.RatioOperatingMargin, calc.RatioNetMargin,
}

// industryComparison positions the entity's ratios against the benchmarks.
// For the debt ratio lower is favorable; for the rest higher is.
func industryComparison(actx *store.AnalysisContext) []RatioComparison {
	out := make([]RatioComparison, 0, len(benchmarkOrder))
	for _, name := range benchmarkOrder {
		company := actx.Ratios.Get(name)
		bench := industryBenchmarks[name]
		diff := company - bench
		favorable := diff > 0
		if name == calc.RatioDebtRatio {
			favorable = diff < 0
		}
		out = append(out, RatioComparison{
			Ratio:      name,
			Company:    company,
			Benchmark:  bench,
			Difference: diff,
			Favorable:  favorable,
		})
	}
	return out
}

// chartType resolves the requested visualization, defaulting to the full
// dashboard.
func chartType(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "막대") || strings.Contains(lower, "bar"):
		return "bar"
	case strings.Contains(lower, "선그래프") || strings.Contains(lower, "추세") || strings.Contains(lower, "line") || strings.Contains(lower, "trend"):
		return "line"
	case strings.Contains(lower, "파이") || strings.Contains(lower, "pie") || strings.Contains(lower, "비중") || strings.Contains(lower, "구성"):
		return "pie"
	case strings.Contains(lower, "레이더") || strings.Contains(lower, "radar"):
		return "radar"
	default:
		return "dashboard"
	}
}

// reportFormats resolves the requested document formats, defaulting to all.
func reportFormats(query string) []string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "excel") || strings.Contains(lower, "엑셀") || strings.Contains(lower, "xlsx"):
		return []string{"xlsx"}
	case strings.Contains(lower, "word") || strings.Contains(lower, "워드") || strings.Contains(lower, "docx"):
		return []string{"docx"}
	case strings.Contains(lower, "pdf"):
		return []string{"pdf"}
	default:
		return []string{"docx", "xlsx", "pdf"}
	}
}

// contextSummary renders the deterministic figures as prompt material.
func contextSummary(actx *store.AnalysisContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- 매출액: %s\n", FormatCurrency(actx.Record.Revenue))
	fmt.Fprintf(&b, "- 영업이익: %s\n", FormatCurrency(actx.Record.OperatingIncome))
	fmt.Fprintf(&b, "- 순이익: %s\n", FormatCurrency(actx.Record.NetIncome))
	fmt.Fprintf(&b, "- ROE: %s, 부채비율: %s\n", FormatPercent(actx.Ratios.ROE), FormatPercent(actx.Ratios.DebtRatio))
	fmt.Fprintf(&b, "- 부정위험 점수: %d점 (%s)", actx.Fraud.RiskScore, actx.Fraud.RiskLevel)
	return b.String()
}

func gradeOf(c *deliberation.ConsensusResult) deliberation.Grade {
	if c == nil {
		return ""
	}
	return c.Grade
}

func confidenceOf(c *deliberation.ConsensusResult) int {
	if c == nil {
		return 0
	}
	return c.Confidence
}

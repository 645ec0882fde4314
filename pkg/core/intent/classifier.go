// Package intent classifies free-form user queries into the handler categories
// the assistant dispatches on, and extracts company names from query text.
// Classification is deterministic keyword scoring; no model call is involved.
package intent

import (
	"strings"
)

// Category is a query intent the assistant knows how to handle.
type Category string

const (
	FullAnalysis  Category = "full_analysis"
	RatioQuery    Category = "ratio_query"
	FraudQuery    Category = "fraud_query"
	Comparison    Category = "comparison"
	Visualization Category = "visualization"
	Explanation   Category = "explanation"
	DataSource    Category = "data_source"
	Report        Category = "report"
	General       Category = "general"
)

// categoryOrder fixes registration order; ties resolve to the earlier entry.
var categoryOrder = []Category{
	FullAnalysis, RatioQuery, FraudQuery, Comparison,
	Visualization, Explanation, DataSource, Report,
}

// categoryKeywords maps each category to its trigger keywords. Matching is a
// case-insensitive substring test, so multi-character Korean tokens and short
// English tokens like "roe" both work without tokenization.
var categoryKeywords = map[Category][]string{
	FullAnalysis: {
		"결산", "감사", "분석해줘", "검토해줘", "분석하자", "결산처리",
		"전체분석", "종합분석", "완전분석",
	},
	RatioQuery: {
		"비율", "ratio", "roe", "roa", "부채비율", "유동비율", "영업이익률",
		"순이익률", "자기자본비율", "매출성장률", "회전율",
	},
	FraudQuery: {
		"부정", "이상", "특이", "위험", "fraud", "의심", "문제",
		"조작", "부정회계", "회계조작",
	},
	Comparison: {
		"비교", "대비", "vs", "차이", "compared", "업계평균", "경쟁사",
		"작년", "전년", "동종업계",
	},
	Visualization: {
		"그래프", "차트", "시각화", "graph", "chart", "plot", "보여줘",
		"그림", "도표", "막대그래프", "선그래프",
	},
	Explanation: {
		"설명", "이유", "왜", "어떻게", "explain", "why", "how",
		"자세히", "구체적으로", "detail",
	},
	DataSource: {
		"언제", "몇년", "년도", "데이터", "자료", "출처", "source",
		"기준", "시점", "when",
	},
	Report: {
		"보고서", "문서", "정리", "요약", "report", "document",
		"파일", "저장", "다운로드", "출력", "내보내기", "export",
		"워드", "엑셀", "pdf", "docx", "xlsx", "word", "excel",
	},
}

// Classify scores the query against every category's keywords and returns the
// highest-scoring category. Score ties resolve in registration order; a query
// matching nothing classifies as General.
func Classify(query string) Category {
	lower := strings.ToLower(query)

	best := General
	bestScore := 0
	for _, cat := range categoryOrder {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	return best
}

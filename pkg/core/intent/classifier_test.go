package intent

import (
	"strconv"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Category
	}{
		{"full analysis korean", "삼성전자 결산 분석해줘", FullAnalysis},
		{"ratio by name", "ROE가 어느 정도야", RatioQuery},
		{"ratio korean", "부채비율 알려줘", RatioQuery},
		{"fraud", "회계조작 의심 정황 있어?", FraudQuery},
		{"comparison", "업계평균 대비 어때", Comparison},
		{"visualization", "차트로 보여줘", Visualization},
		{"explanation english", "explain why the margin dropped", Explanation},
		{"data source", "몇년 기준 데이터야?", DataSource},
		{"report", "보고서로 정리해서 pdf로 저장해줘", Report},
		{"no keywords", "안녕하세요", General},
		{"empty", "", General},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.query); got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestClassify_HighestScoreWins(t *testing.T) {
	// One fraud keyword (의심) against two report keywords (보고서, 요약).
	got := Classify("의심 정황을 보고서로 요약해줘")
	if got != Report {
		t.Errorf("got %v, want report to win 2-1", got)
	}
}

func TestClassify_TieBreaksInRegistrationOrder(t *testing.T) {
	// 비율 scores ratio_query, 비교 scores comparison, one keyword each.
	// Ratio is registered earlier so it must win the tie.
	got := Classify("비율 비교")
	if got != RatioQuery {
		t.Errorf("got %v, want ratio_query on tie", got)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if got := Classify("show me the ROE"); got != RatioQuery {
		t.Errorf("got %v, want ratio_query", got)
	}
}

func TestExtractCompany(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"삼성전자 분석해줘", "삼성전자"},
		{"카카오 위험도 어때", "카카오"},
		{"한화자동차 결산", "한화자동차"},
		{"미래기업 보고서", "미래기업"},
		{"분석해줘", ""},
	}
	for _, tc := range cases {
		if got := ExtractCompany(tc.query); got != tc.want {
			t.Errorf("ExtractCompany(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractYear(t *testing.T) {
	thisYear := time.Now().Year()
	cases := []struct {
		query string
		want  string
	}{
		{"2023년 결산 분석", "2023"},
		{"작년 실적 어때", strconv.Itoa(thisYear - 1)},
		{"재작년이랑 비교해줘", strconv.Itoa(thisYear - 2)},
		{"올해 전망은", strconv.Itoa(thisYear)},
		{"그냥 분석해줘", ""},
	}
	for _, tc := range cases {
		if got := ExtractYear(tc.query); got != tc.want {
			t.Errorf("ExtractYear(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

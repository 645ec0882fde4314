package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Company-name extraction patterns, tried in order. The well-known-names
// pattern wins over the generic industry-suffix and corporate-suffix patterns
// so "삼성전자 분석해줘" resolves to the exact listed name.
var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(삼성전자|LG전자|현대자동차|SK하이닉스|네이버|카카오|포스코|KT|LG화학)`),
	regexp.MustCompile(`([A-Za-z가-힣]+(?:전자|자동차|화학|통신|바이오|제약|건설|중공업|생명과학))`),
	regexp.MustCompile(`([A-Za-z가-힣]+(?:회사|기업|그룹|코퍼레이션))`),
}

// ExtractCompany pulls a company name out of free-form query text. Returns
// the empty string when no pattern matches; callers then fall back to the
// session's current company.
func ExtractCompany(query string) string {
	for _, pat := range companyPatterns {
		if m := pat.FindStringSubmatch(query); m != nil {
			return m[1]
		}
	}
	return ""
}

// relativeYearTerms maps relative period words onto offsets from the current
// calendar year. 재작년 precedes 작년 because the shorter term is a substring
// of the longer one.
var relativeYearTerms = []struct {
	term   string
	offset int
}{
	{"재작년", -2},
	{"작년", -1},
	{"올해", 0},
}

var yearPattern = regexp.MustCompile(`(20\d{2})년`)

// ExtractYear resolves a fiscal-year mention in the query, preferring explicit
// "YYYY년" forms over relative terms. Empty when the query names no period.
func ExtractYear(query string) string {
	if m := yearPattern.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	for _, rt := range relativeYearTerms {
		if strings.Contains(query, rt.term) {
			return strconv.Itoa(time.Now().Year() + rt.offset)
		}
	}
	return ""
}

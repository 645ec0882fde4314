package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"finaudit/pkg/core/dart"
)

// fieldSynonyms holds the priority-ordered DART account labels per canonical
// field. The first exact match with a non-zero amount binds the field; labels
// later in a list only matter when earlier ones are absent from the filing.
var fieldSynonyms = map[string][]string{
	FieldRevenue: {
		"매출액", "수익(매출액)", "영업수익", "매출", "수익",
	},
	FieldOperatingIncome: {
		"영업이익", "영업이익(손실)", "영업손익",
	},
	FieldNetIncome: {
		"당기순이익", "당기순이익(손실)", "연결당기순이익", "순이익", "당기순손익",
		"지배기업소유주지분당기순이익", "지배기업소유주지분당기순손익",
	},
	FieldTotalAssets: {
		"자산총계", "총자산",
	},
	FieldTotalLiabilities: {
		"부채총계", "총부채",
	},
	FieldTotalEquity: {
		"자본총계", "자기자본", "연결자본총계", "총자본", "지배기업소유주지분",
	},
	FieldCash: {
		"현금및현금성자산",
	},
	FieldReceivables: {
		"매출채권",
	},
	FieldInventory: {
		"재고자산",
	},
}

// cashFlowSynonyms maps cash-flow fields to their account labels. Matching is
// by substring: DART filings phrase these with many prefixes and suffixes.
var cashFlowSynonyms = map[string][]string{
	"operating_cash_flow": {"영업활동현금흐름", "영업활동으로인한현금흐름", "영업활동으로 인한 현금흐름"},
	"investing_cash_flow": {"투자활동현금흐름", "투자활동으로인한현금흐름", "투자활동으로 인한 현금흐름"},
	"financing_cash_flow": {"재무활동현금흐름", "재무활동으로인한현금흐름", "재무활동으로 인한 현금흐름"},
}

var cashFlowFields = []string{"operating_cash_flow", "investing_cash_flow", "financing_cash_flow"}

var qualifierPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Statement normalizes income-statement and balance-sheet line items into a
// canonical Record. It is deterministic for a given item ordering and never
// fails: unmatched fields stay zero and are flagged in Record.Unmatched.
func Statement(items []dart.RawLineItem) *Record {
	type cleaned struct {
		label  string
		amount int64
	}
	var rows []cleaned
	for _, it := range items {
		switch it.Section {
		case dart.SectionIncome, dart.SectionComprehensive, dart.SectionBalance:
		default:
			continue
		}
		rows = append(rows, cleaned{
			label:  CleanLabel(it.Account),
			amount: ParseAmount(it.Amount),
		})
	}

	rec := &Record{}
	for _, field := range FieldNames {
		p := rec.fieldPtr(field)
		synonyms := fieldSynonyms[field]

		// Pass 1: exact label match, first non-zero amount wins.
		bound := false
		for _, syn := range synonyms {
			for _, row := range rows {
				if row.label == syn && row.amount != 0 {
					*p = row.amount
					bound = true
					break
				}
			}
			if bound {
				break
			}
		}

		// Pass 2: partial match (substring either direction) fills fields
		// that are still unbound.
		if !bound {
			for _, syn := range synonyms {
				for _, row := range rows {
					if row.amount == 0 || row.label == "" {
						continue
					}
					if strings.Contains(row.label, syn) || strings.Contains(syn, row.label) {
						*p = row.amount
						bound = true
						break
					}
				}
				if bound {
					break
				}
			}
		}

		if *p == 0 {
			rec.Unmatched = append(rec.Unmatched, field)
		}
	}
	return rec
}

// PriorStatement normalizes the prior-period amounts carried on the same
// line items. DART's single-account endpoint reports both periods per row, so
// one fetch yields both the current and the comparison record. Returns nil
// when no field found a prior amount: a first-year filing has no comparison
// period, and an all-zero record would masquerade as 0% growth.
func PriorStatement(items []dart.RawLineItem) *Record {
	shifted := make([]dart.RawLineItem, len(items))
	for i, it := range items {
		shifted[i] = it
		shifted[i].Amount = it.PriorAmount
	}
	rec := Statement(shifted)
	if len(rec.Unmatched) == len(FieldNames) {
		return nil
	}
	return rec
}

// CashFlowStatement normalizes cash-flow line items. The first item whose
// label contains a known synonym binds the field; a later total row never
// overrides an earlier one.
func CashFlowStatement(items []dart.RawLineItem) *CashFlow {
	cf := &CashFlow{}
	ptrs := map[string]*int64{
		"operating_cash_flow": &cf.Operating,
		"investing_cash_flow": &cf.Investing,
		"financing_cash_flow": &cf.Financing,
	}

	for _, field := range cashFlowFields {
		p := ptrs[field]
		bound := false
		for _, syn := range cashFlowSynonyms[field] {
			for _, it := range items {
				if it.Section != dart.SectionCashFlow {
					continue
				}
				label := CleanLabel(it.Account)
				if strings.Contains(label, strings.ReplaceAll(syn, " ", "")) {
					*p = ParseAmount(it.Amount)
					bound = true
					break
				}
			}
			if bound {
				break
			}
		}
		if !bound {
			cf.Unmatched = append(cf.Unmatched, field)
		}
	}
	return cf
}

// CleanLabel strips bracketed and parenthesized qualifiers plus all spacing
// from an account label so synonym comparison sees the bare account name.
func CleanLabel(label string) string {
	s := qualifierPattern.ReplaceAllString(label, "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.TrimSpace(s)
}

// ParseAmount converts a raw DART amount string to base currency units.
// Thousands separators and whitespace are stripped; "", "-", "0" and "nan"
// all mean zero; decimals are truncated toward zero. Garbage parses to 0.
func ParseAmount(raw string) int64 {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)

	switch s {
	case "", "-", "0":
		return 0
	}
	if strings.EqualFold(s, "nan") {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

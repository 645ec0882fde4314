// Package dart provides the DART (opendart.fss.or.kr) open API integration
// used to resolve companies and fetch their periodic filings as raw line items.
package dart

// Company identifies one registered corporation in the DART corp-code index.
type Company struct {
	Name      string `json:"corp_name"`
	CorpCode  string `json:"corp_code"`
	StockCode string `json:"stock_code"`
}

// SearchResult is the outcome of a company search. Exactly one of Match or
// Candidates is populated; both empty means no result.
type SearchResult struct {
	Match      *Company  `json:"match,omitempty"`
	Candidates []Company `json:"candidates,omitempty"`
}

// Found reports whether the search produced at least one company.
func (r *SearchResult) Found() bool {
	return r != nil && (r.Match != nil || len(r.Candidates) > 0)
}

// Best returns the exact match when present, otherwise the first candidate.
func (r *SearchResult) Best() *Company {
	if r == nil {
		return nil
	}
	if r.Match != nil {
		return r.Match
	}
	if len(r.Candidates) > 0 {
		return &r.Candidates[0]
	}
	return nil
}

// StatementSection tags which financial statement a line item belongs to.
type StatementSection string

const (
	SectionIncome        StatementSection = "손익계산서"
	SectionComprehensive StatementSection = "포괄손익계산서"
	SectionBalance       StatementSection = "재무상태표"
	SectionCashFlow      StatementSection = "현금흐름표"
)

// RawLineItem is one account row from fnlttSinglAcntAll.json. Amounts stay
// as raw strings (comma-separated, possibly empty or "-") until normalization.
type RawLineItem struct {
	Section     StatementSection `json:"sj_nm"`
	Account     string           `json:"account_nm"`
	Amount      string           `json:"thstrm_amount"`
	PriorAmount string           `json:"frmtrm_amount"`
}

// fnlttResponse is the wire shape of the single-account-all endpoint.
type fnlttResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		SjNm         string `json:"sj_nm"`
		AccountNm    string `json:"account_nm"`
		ThstrmAmount string `json:"thstrm_amount"`
		FrmtrmAmount string `json:"frmtrm_amount"`
	} `json:"list"`
}

// Package normalize maps raw filing line items onto a fixed canonical record.
// Heterogeneous account labels (매출액 vs 영업수익 vs 수익(매출액)) are resolved
// through priority-ordered synonym tables; a field that finds no label stays
// zero and is flagged so downstream consumers can tell "missing" from "0".
package normalize

// Canonical field names. The order here is the canonical iteration order and
// must stay stable: normalization and reporting both depend on it.
const (
	FieldRevenue          = "revenue"
	FieldOperatingIncome  = "operating_income"
	FieldNetIncome        = "net_income"
	FieldTotalAssets      = "total_assets"
	FieldTotalLiabilities = "total_liabilities"
	FieldTotalEquity      = "total_equity"
	FieldCash             = "cash"
	FieldReceivables      = "receivables"
	FieldInventory        = "inventory"
)

// FieldNames lists every canonical field in canonical order.
var FieldNames = []string{
	FieldRevenue,
	FieldOperatingIncome,
	FieldNetIncome,
	FieldTotalAssets,
	FieldTotalLiabilities,
	FieldTotalEquity,
	FieldCash,
	FieldReceivables,
	FieldInventory,
}

// Record is a normalized financial statement. Amounts are signed integers in
// currency base units (KRW). Every field is always present; zero plus an
// Unmatched entry means the filing had no usable label for it.
type Record struct {
	Revenue          int64 `json:"revenue"`
	OperatingIncome  int64 `json:"operating_income"`
	NetIncome        int64 `json:"net_income"`
	TotalAssets      int64 `json:"total_assets"`
	TotalLiabilities int64 `json:"total_liabilities"`
	TotalEquity      int64 `json:"total_equity"`
	Cash             int64 `json:"cash"`
	Receivables      int64 `json:"receivables"`
	Inventory        int64 `json:"inventory"`

	// Unmatched carries the parse-ambiguity warnings: canonical fields that
	// ended the pass unbound or zero, in canonical order.
	Unmatched []string `json:"unmatched,omitempty"`
}

// Get returns a canonical field by name. Unknown names return 0.
func (r *Record) Get(field string) int64 {
	if p := r.fieldPtr(field); p != nil {
		return *p
	}
	return 0
}

// AsMap renders the record as a name → amount map for display layers.
func (r *Record) AsMap() map[string]int64 {
	m := make(map[string]int64, len(FieldNames))
	for _, name := range FieldNames {
		m[name] = r.Get(name)
	}
	return m
}

// Flagged reports whether a field carries a parse-ambiguity warning.
func (r *Record) Flagged(field string) bool {
	for _, f := range r.Unmatched {
		if f == field {
			return true
		}
	}
	return false
}

func (r *Record) fieldPtr(field string) *int64 {
	switch field {
	case FieldRevenue:
		return &r.Revenue
	case FieldOperatingIncome:
		return &r.OperatingIncome
	case FieldNetIncome:
		return &r.NetIncome
	case FieldTotalAssets:
		return &r.TotalAssets
	case FieldTotalLiabilities:
		return &r.TotalLiabilities
	case FieldTotalEquity:
		return &r.TotalEquity
	case FieldCash:
		return &r.Cash
	case FieldReceivables:
		return &r.Receivables
	case FieldInventory:
		return &r.Inventory
	}
	return nil
}

// CashFlow is the normalized cash-flow statement.
type CashFlow struct {
	Operating int64 `json:"operating_cash_flow"`
	Investing int64 `json:"investing_cash_flow"`
	Financing int64 `json:"financing_cash_flow"`

	Unmatched []string `json:"unmatched,omitempty"`
}

package calc

import (
	"finaudit/pkg/core/normalize"
)

// RiskLevel classifies an aggregate fraud-risk score.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "HIGH"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskLow     RiskLevel = "LOW"
	RiskMinimal RiskLevel = "MINIMAL"
)

// Point penalties for the individual indicators. The aggregate score is the
// sum clamped to [0,100].
const (
	penaltyLowCashCover     = 30 // operating cash flow under half of net income
	penaltyHighReceivables  = 25 // receivables above 25% of revenue
	penaltyPaperProfit      = 25 // positive income with negative operating cash flow
	cashCoverThreshold      = 0.5
	receivablesThresholdPct = 25.0
)

// FraudIndicators holds the rule-based risk heuristics for one period.
type FraudIndicators struct {
	// CashFlowToNetIncome is operating cash flow over net income; when net
	// income is zero the documented default is 1 (no signal).
	CashFlowToNetIncome float64 `json:"cash_flow_to_net_income"`
	// ReceivablesToRevenue is receivables as a percentage of revenue,
	// defaulting to 0 when revenue is zero.
	ReceivablesToRevenue float64 `json:"receivables_to_revenue"`
	// PositiveIncomeNegativeCashFlow flags reported profit with cash leaving
	// operations, the classic paper-profit pattern.
	PositiveIncomeNegativeCashFlow bool `json:"positive_income_negative_cashflow"`

	RiskScore int       `json:"risk_score"` // aggregate, always within [0,100]
	RiskLevel RiskLevel `json:"risk_level"`

	LowConfidence []string `json:"low_confidence,omitempty"`
}

// Fraud computes the heuristic fraud indicators from a canonical record and
// its cash-flow statement. Pure and total: nil inputs are treated as fully
// unmatched zero records.
func Fraud(rec *normalize.Record, cf *normalize.CashFlow) *FraudIndicators {
	if rec == nil {
		rec = &normalize.Record{Unmatched: append([]string{}, normalize.FieldNames...)}
	}
	if cf == nil {
		cf = &normalize.CashFlow{Unmatched: []string{"operating_cash_flow", "investing_cash_flow", "financing_cash_flow"}}
	}

	fi := &FraudIndicators{}

	if rec.NetIncome != 0 {
		fi.CashFlowToNetIncome = float64(cf.Operating) / float64(rec.NetIncome)
	} else {
		fi.CashFlowToNetIncome = 1
	}
	fi.ReceivablesToRevenue = safeDiv(float64(rec.Receivables), float64(rec.Revenue)) * 100
	fi.PositiveIncomeNegativeCashFlow = rec.NetIncome > 0 && cf.Operating < 0

	score := 0
	if fi.CashFlowToNetIncome < cashCoverThreshold {
		score += penaltyLowCashCover
	}
	if fi.ReceivablesToRevenue > receivablesThresholdPct {
		score += penaltyHighReceivables
	}
	if fi.PositiveIncomeNegativeCashFlow {
		score += penaltyPaperProfit
	}
	fi.RiskScore = clampScore(score)
	fi.RiskLevel = ClassifyRisk(fi.RiskScore)

	for _, field := range []string{normalize.FieldNetIncome, normalize.FieldRevenue, normalize.FieldReceivables} {
		if rec.Flagged(field) {
			fi.LowConfidence = append(fi.LowConfidence, field)
		}
	}
	for _, field := range cf.Unmatched {
		if field == "operating_cash_flow" {
			fi.LowConfidence = append(fi.LowConfidence, field)
		}
	}
	return fi
}

// ClassifyRisk maps an aggregate score onto the four risk bands.
func ClassifyRisk(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskMinimal
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Package store holds analysis results between queries: an in-memory context
// cache with TTL eviction, plus an optional Postgres archive for deliberation
// transcripts. The cache is the source of truth for conversational queries;
// the archive is write-only history.
package store

import (
	"time"

	"finaudit/pkg/core/calc"
	"finaudit/pkg/core/dart"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/normalize"
	"finaudit/pkg/core/validate"
)

// AnalysisContext is the complete result of one analysis run for one entity.
// It is immutable once published to the cache.
type AnalysisContext struct {
	EntityName string        `json:"entity_name"`
	Company    *dart.Company `json:"company,omitempty"`
	FiscalYear string        `json:"fiscal_year"`

	Record      *normalize.Record   `json:"record"`
	PriorRecord *normalize.Record   `json:"prior_record,omitempty"`
	CashFlow    *normalize.CashFlow `json:"cash_flow,omitempty"`

	Ratios *calc.RatioSet        `json:"ratios"`
	Fraud  *calc.FraudIndicators `json:"fraud"`

	// Validation carries non-blocking consistency findings from normalization.
	Validation *validate.Report `json:"validation,omitempty"`

	RatioConsensus *deliberation.ConsensusResult `json:"ratio_consensus,omitempty"`
	FraudConsensus *deliberation.ConsensusResult `json:"fraud_consensus,omitempty"`
	FinalConsensus *deliberation.ConsensusResult `json:"final_consensus,omitempty"`

	Transcript []deliberation.Entry `json:"transcript,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	// Generation is the run token under which this context was produced.
	// A publish with a stale generation is discarded.
	Generation uint64 `json:"generation"`
}

// FinalGrade returns the overall letter grade, defaulting when the final
// deliberation topic is missing.
func (a *AnalysisContext) FinalGrade() deliberation.Grade {
	if a.FinalConsensus != nil && a.FinalConsensus.Grade != "" {
		return a.FinalConsensus.Grade
	}
	return deliberation.DefaultGrade
}

// Age reports how long ago the context was produced.
func (a *AnalysisContext) Age() time.Duration {
	return time.Since(a.CreatedAt)
}

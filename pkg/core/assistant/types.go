// Package assistant is the conversational layer over cached analyses. It
// classifies each query, resolves the entity under discussion, and routes to a
// handler producing a structured response. Rendering (charts, documents) is
// out of scope: those handlers return request descriptors for outer layers.
package assistant

import (
	"time"

	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/intent"
)

// Response type discriminators.
const (
	TypeCompanyRequest   = "company_request"
	TypeAnalysisNeeded   = "analysis_needed"
	TypeAnalysisComplete = "analysis_complete"
	TypeRatio            = "ratio_response"
	TypeFraud            = "fraud_analysis"
	TypeComparison       = "comparison"
	TypeComparisonOpts   = "comparison_options"
	TypeArtifactRequest  = "artifact_request"
	TypeExplanation      = "explanation"
	TypeDataSource       = "data_source_info"
	TypeGeneral          = "general_response"
)

// Response is the structured outcome of one query. Message always carries the
// human-readable answer; the typed fields are populated per response type.
type Response struct {
	Type     string          `json:"type"`
	Entity   string          `json:"entity,omitempty"`
	Category intent.Category `json:"category"`
	Message  string          `json:"message"`

	Grade      deliberation.Grade `json:"grade,omitempty"`
	Confidence int                `json:"confidence,omitempty"`

	Ratios     map[string]string `json:"ratios,omitempty"`
	Comparison []RatioComparison `json:"comparison,omitempty"`
	Request    *ArtifactRequest  `json:"request,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// RatioComparison is one ratio set against its industry benchmark.
type RatioComparison struct {
	Ratio      string  `json:"ratio"`
	Company    float64 `json:"company"`
	Benchmark  float64 `json:"benchmark"`
	Difference float64 `json:"difference"`
	Favorable  bool    `json:"favorable"`
}

// ArtifactRequest describes a rendering job for an outer layer: a chart or a
// report in the requested formats. The assistant never renders.
type ArtifactRequest struct {
	Kind      string   `json:"kind"`                 // "chart" | "report"
	ChartType string   `json:"chart_type,omitempty"` // bar, line, pie, radar, dashboard
	Formats   []string `json:"formats,omitempty"`    // docx, xlsx, pdf
	Entity    string   `json:"entity"`
}

// ConversationTurn is one entry of the session history.
type ConversationTurn struct {
	Timestamp time.Time       `json:"timestamp"`
	Query     string          `json:"query"`
	Entity    string          `json:"entity,omitempty"`
	Category  intent.Category `json:"category"`
	Type      string          `json:"type"` // response type served
}

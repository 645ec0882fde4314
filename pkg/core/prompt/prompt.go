// Package prompt provides a centralized prompt library for persona
// interactions. Prompts can be overridden from JSON files at startup without
// code changes; packages fall back to their hardcoded defaults otherwise.
package prompt

// PromptTemplate represents a reusable prompt with metadata.
type PromptTemplate struct {
	ID           string `json:"id"`       // Unique identifier (e.g. "deliberation.coordinator")
	Name         string `json:"name"`     // Human-readable name
	Category     string `json:"category"` // Category (deliberation, assistant, ...)
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	Version      string `json:"version"`
}

// PromptIDs enumerates the well-known prompt identifiers.
var PromptIDs = struct {
	Coordinator      string
	FinancialAnalyst string
	FraudExaminer    string
	Explanation      string
	GeneralAssistant string
}{
	Coordinator:      "deliberation.coordinator",
	FinancialAnalyst: "deliberation.financial_analyst",
	FraudExaminer:    "deliberation.fraud_examiner",
	Explanation:      "assistant.explanation",
	GeneralAssistant: "assistant.general",
}

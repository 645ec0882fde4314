package deliberation

import (
	"fmt"
	"strings"

	"finaudit/pkg/core/calc"
	"finaudit/pkg/core/prompt"
)

// TopicInput carries the deterministic evidence a topic deliberates over.
// Ratios and Fraud may be nil for topics that do not use them; the final
// opinion topic additionally receives the grades of the earlier topics.
type TopicInput struct {
	EntityName string
	FiscalYear string

	Ratios *calc.RatioSet
	Fraud  *calc.FraudIndicators

	RatioGrade Grade
	RiskGrade  Grade
}

// SystemPromptFor builds the persona's system prompt, preferring a registry
// override over the generated default.
func SystemPromptFor(p Persona) string {
	if sp, err := prompt.Get().GetSystemPrompt("deliberation." + p.ID); err == nil && sp != "" {
		return sp
	}
	return fmt.Sprintf(
		"You are %s (%s), a member of a financial audit deliberation panel.\n"+
			"Role: %s\n"+
			"Style: %s\n"+
			"Your position carries a decision weight of %.2f within the panel.\n"+
			"Ground every claim in the figures provided. State your grade on the S/A/B/C/D scale "+
			"explicitly in the form \"grade: X\".",
		p.DisplayName, p.ID, p.Role, p.Style, p.DecisionWeight)
}

// ratioEvidence renders the ratio set as prompt evidence lines.
func ratioEvidence(rs *calc.RatioSet) string {
	if rs == nil {
		return "No ratio data is available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- ROE: %.2f%%\n", rs.ROE)
	fmt.Fprintf(&b, "- ROA: %.2f%%\n", rs.ROA)
	fmt.Fprintf(&b, "- Operating margin: %.2f%%\n", rs.OperatingMargin)
	fmt.Fprintf(&b, "- Net margin: %.2f%%\n", rs.NetMargin)
	fmt.Fprintf(&b, "- Debt ratio: %.2f%%\n", rs.DebtRatio)
	fmt.Fprintf(&b, "- Equity ratio: %.2f%%\n", rs.EquityRatio)
	if rs.HasGrowth {
		fmt.Fprintf(&b, "- Revenue growth: %.2f%%\n", rs.RevenueGrowth)
		fmt.Fprintf(&b, "- Net income growth: %.2f%%\n", rs.NetIncomeGrowth)
	}
	if len(rs.LowConfidence) > 0 {
		fmt.Fprintf(&b, "Caution: the following ratios were computed from incompletely matched "+
			"line items and are low confidence: %s\n", strings.Join(rs.LowConfidence, ", "))
	}
	return b.String()
}

// fraudEvidence renders the fraud indicators as prompt evidence lines.
func fraudEvidence(fi *calc.FraudIndicators) string {
	if fi == nil {
		return "No fraud indicator data is available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Operating cash flow / net income: %.2f\n", fi.CashFlowToNetIncome)
	fmt.Fprintf(&b, "- Receivables / revenue: %.2f%%\n", fi.ReceivablesToRevenue)
	fmt.Fprintf(&b, "- Positive income with negative operating cash flow: %t\n", fi.PositiveIncomeNegativeCashFlow)
	fmt.Fprintf(&b, "- Aggregate risk score: %d/100 (%s)\n", fi.RiskScore, fi.RiskLevel)
	if len(fi.LowConfidence) > 0 {
		fmt.Fprintf(&b, "Caution: low-confidence inputs: %s\n", strings.Join(fi.LowConfidence, ", "))
	}
	return b.String()
}

// OpinionPrompt builds the first-round prompt for a topic.
func OpinionPrompt(topic Topic, in *TopicInput) string {
	header := fmt.Sprintf("Entity under audit: %s (fiscal year %s)\n\n", in.EntityName, in.FiscalYear)

	switch topic {
	case TopicRatioGrade:
		return header +
			"Financial ratios:\n" + ratioEvidence(in.Ratios) + "\n" +
			"Assess the financial health these ratios describe. Consider profitability, " +
			"leverage and growth. Conclude with a letter grade on the S/A/B/C/D scale in " +
			"the form \"grade: X\" and a short rationale."
	case TopicFraudRisk:
		return header +
			"Fraud-risk indicators:\n" + fraudEvidence(in.Fraud) + "\n" +
			"Assess how likely it is that these statements misrepresent the entity's " +
			"economics. Weigh each indicator and the aggregate score. Conclude with a " +
			"letter grade on the S/A/B/C/D scale (S = no concern, D = severe concern) in " +
			"the form \"grade: X\" and a short rationale."
	case TopicFinalOpinion:
		return header +
			fmt.Sprintf("The panel has already graded the entity:\n"+
				"- Financial ratio grade: %s\n"+
				"- Fraud-risk grade: %s\n\n", in.RatioGrade, in.RiskGrade) +
			"Financial ratios:\n" + ratioEvidence(in.Ratios) + "\n" +
			"Fraud-risk indicators:\n" + fraudEvidence(in.Fraud) + "\n" +
			"Weigh both dimensions and give your overall audit opinion on this entity. " +
			"Conclude with a final letter grade on the S/A/B/C/D scale in the form " +
			"\"grade: X\"."
	}
	return header + "Give your assessment of this entity, concluding with a letter grade " +
		"on the S/A/B/C/D scale in the form \"grade: X\"."
}

// RebuttalPrompt builds the second-round prompt: the persona sees the other
// panelists' opinions and must restate or revise its own position.
func RebuttalPrompt(topic Topic, in *TopicInput, self Persona, opinions map[string]string, roster []Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity under audit: %s (fiscal year %s), topic: %s\n\n", in.EntityName, in.FiscalYear, topic)
	b.WriteString("The other panelists stated the following positions:\n\n")
	for _, p := range roster {
		if p.ID == self.ID {
			continue
		}
		fmt.Fprintf(&b, "[%s (%s), weight %.2f]\n%s\n\n", p.DisplayName, p.ID, p.DecisionWeight, excerpt(opinions[p.ID], 600))
	}
	b.WriteString("Your own first-round position was:\n\n")
	b.WriteString(excerpt(opinions[self.ID], 600))
	b.WriteString("\n\nRespond to the points you disagree with, then restate your final position. " +
		"Conclude with your letter grade in the form \"grade: X\".")
	return b.String()
}

// ConsensusPrompt builds the final-round prompt for the consensus writer.
func ConsensusPrompt(topic Topic, in *TopicInput, rebuttals map[string]string, roster []Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity under audit: %s (fiscal year %s), topic: %s\n\n", in.EntityName, in.FiscalYear, topic)
	b.WriteString("Final positions of the panel:\n\n")
	for _, p := range roster {
		fmt.Fprintf(&b, "[%s (%s), weight %.2f]\n%s\n\n", p.DisplayName, p.ID, p.DecisionWeight, excerpt(rebuttals[p.ID], 600))
	}
	b.WriteString("As the consensus writer, reconcile these positions into a single judgment. " +
		"Note remaining disagreement where it exists. Write a short consensus statement " +
		"ending with the agreed letter grade in the form \"grade: X\". Then, on its own " +
		"line, emit exactly one JSON object of the form " +
		`{"grade": "X", "confidence": <0-100>, "summary": "<one sentence>"}.`)
	return b.String()
}

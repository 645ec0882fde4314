package deliberation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultRoster returns the built-in three-persona panel. Exactly one persona
// carries the consensus-writer role.
func DefaultRoster() []Persona {
	return []Persona{
		{
			ID:              "coordinator",
			DisplayName:     "감사 코디네이터",
			Role:            "Moderates the deliberation, weighs the other analysts' positions, and drafts the consensus judgment.",
			Style:           "Measured and balance-seeking. Names disagreements explicitly instead of papering over them.",
			DecisionWeight:  0.4,
			ConsensusWriter: true,
		},
		{
			ID:             "financial_analyst",
			DisplayName:    "재무 분석가",
			Role:           "Interprets financial statements and ratio trends against industry norms.",
			Style:          "Precise and data-driven. Cites the specific figures behind every claim.",
			DecisionWeight: 0.35,
		},
		{
			ID:             "fraud_examiner",
			DisplayName:    "부정 감사관",
			Role:           "Hunts for earnings manipulation signals and accounting anomalies.",
			Style:          "Skeptical and conservative. Treats every favorable number as unproven until the cash flows agree.",
			DecisionWeight: 0.25,
		},
	}
}

// LoadRoster reads a persona roster from a YAML file. The file holds a
// top-level "personas" list.
func LoadRoster(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	if len(doc.Personas) == 0 {
		return nil, fmt.Errorf("roster file %s defines no personas", path)
	}
	for i, p := range doc.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("roster persona %d has no id", i)
		}
		if p.DecisionWeight <= 0 || p.DecisionWeight > 1 {
			return nil, fmt.Errorf("persona %s has decision_weight %v outside (0,1]", p.ID, p.DecisionWeight)
		}
	}
	return doc.Personas, nil
}

// WriterFor returns the consensus-writer persona, falling back to the first
// roster entry when none is marked.
func WriterFor(roster []Persona) Persona {
	for _, p := range roster {
		if p.ConsensusWriter {
			return p
		}
	}
	return roster[0]
}

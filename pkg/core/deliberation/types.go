// Package deliberation runs the multi-persona analysis protocol: every topic
// passes through an opinion round, a rebuttal round, and a consensus draft
// written by the designated consensus-writer persona. Disagreement is kept in
// the transcript, not resolved programmatically.
package deliberation

import (
	"sync"
	"time"
)

// Topic identifies one deliberation subject.
type Topic string

const (
	TopicRatioGrade   Topic = "ratio_grade"
	TopicFraudRisk    Topic = "fraud_risk"
	TopicFinalOpinion Topic = "final_opinion"
)

// State enumerates the per-topic protocol states.
type State string

const (
	StateInit          State = "init"
	StateOpinionRound  State = "opinion_round"
	StateRebuttalRound State = "rebuttal_round"
	StateConsensus     State = "consensus"
	StateDone          State = "done"
)

// Persona is one fixed analysis role. DecisionWeight is advisory metadata
// surfaced in prompts; the reduction to a single judgment is performed by the
// consensus writer, not by a numeric vote.
type Persona struct {
	ID              string  `yaml:"id" json:"id"`
	DisplayName     string  `yaml:"display_name" json:"display_name"`
	Role            string  `yaml:"role" json:"role"`
	Style           string  `yaml:"style" json:"style"`
	DecisionWeight  float64 `yaml:"decision_weight" json:"decision_weight"` // (0,1]
	ConsensusWriter bool    `yaml:"consensus_writer" json:"consensus_writer"`
}

// Entry is one appended transcript record; one per external call.
type Entry struct {
	Timestamp       time.Time `json:"timestamp"`
	PersonaID       string    `json:"persona_id"`
	Topic           Topic     `json:"topic"`
	PromptExcerpt   string    `json:"prompt_excerpt"`
	ResponseExcerpt string    `json:"response_excerpt"`
	Degraded        bool      `json:"degraded"`
}

// Transcript is the append-only deliberation log for one analysis run.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// Append records one exchange.
func (t *Transcript) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Snapshot returns a copy of the log for storage in an analysis context.
func (t *Transcript) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded exchanges.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Summary describes the deliberation so far for status queries.
type Summary struct {
	TotalInteractions int       `json:"total_interactions"`
	Participants      []string  `json:"participants"`
	FirstAt           time.Time `json:"first_at,omitempty"`
	LastAt            time.Time `json:"last_at,omitempty"`
	DegradedCalls     int       `json:"degraded_calls"`
}

// Summarize reduces the transcript to participation metadata.
func (t *Transcript) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summarize(t.entries)
}

// Summarize reduces a flat entry list to participation metadata.
func Summarize(entries []Entry) Summary {
	s := Summary{TotalInteractions: len(entries)}
	if len(entries) == 0 {
		return s
	}
	s.FirstAt = entries[0].Timestamp
	s.LastAt = entries[len(entries)-1].Timestamp

	seen := map[string]bool{}
	for _, e := range entries {
		if !seen[e.PersonaID] {
			seen[e.PersonaID] = true
			s.Participants = append(s.Participants, e.PersonaID)
		}
		if e.Degraded {
			s.DegradedCalls++
		}
	}
	return s
}

// ConsensusResult is the reduced outcome of one deliberation topic.
type ConsensusResult struct {
	Topic      Topic  `json:"topic"`
	FinalText  string `json:"final_text"`
	Grade      Grade  `json:"grade"`
	Confidence int    `json:"confidence"` // [0,100]
	// Degraded counts persona contributions that were replaced with error
	// markers; a non-zero value means the consensus was reached from
	// incomplete input.
	Degraded int `json:"degraded"`
}

// excerpt truncates s to at most n runes, appending an ellipsis marker.
// Transcript excerpts carry Korean text, so truncation is rune-based.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

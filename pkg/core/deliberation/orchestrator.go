package deliberation

import (
	"context"
	"fmt"
	"time"

	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/utils"
)

const (
	defaultCallTimeout = 180 * time.Second

	promptExcerptRunes   = 100
	responseExcerptRunes = 200
)

// Orchestrator drives one topic at a time through the deliberation protocol.
// Persona calls are strictly sequential in roster order; there is no
// cross-persona concurrency within a topic.
type Orchestrator struct {
	roster      []Persona
	manager     *agent.Manager
	transcript  *Transcript
	callTimeout time.Duration

	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCallTimeout overrides the per-call timeout applied to every persona
// exchange.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// New builds an orchestrator over the given roster. The transcript accumulates
// across topics so one analysis run keeps a single log.
func New(roster []Persona, manager *agent.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		roster:      roster,
		manager:     manager,
		transcript:  &Transcript{},
		callTimeout: defaultCallTimeout,
		state:       StateInit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transcript exposes the accumulated deliberation log.
func (o *Orchestrator) Transcript() *Transcript { return o.transcript }

// State reports the current protocol state.
func (o *Orchestrator) State() State { return o.state }

// RunTopic executes the full opinion / rebuttal / consensus protocol for one
// topic. A failed persona call does not abort the topic: the contribution is
// replaced with an error marker and the consensus confidence is reduced. The
// only error returned is context cancellation.
func (o *Orchestrator) RunTopic(ctx context.Context, topic Topic, in *TopicInput) (*ConsensusResult, error) {
	if len(o.roster) == 0 {
		return nil, fmt.Errorf("deliberation roster is empty")
	}

	degraded := 0

	o.state = StateOpinionRound
	opinions := make(map[string]string, len(o.roster))
	for _, p := range o.roster {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, ok := o.call(ctx, topic, p, OpinionPrompt(topic, in))
		if !ok {
			degraded++
		}
		opinions[p.ID] = text
	}

	o.state = StateRebuttalRound
	rebuttals := make(map[string]string, len(o.roster))
	for _, p := range o.roster {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, ok := o.call(ctx, topic, p, RebuttalPrompt(topic, in, p, opinions, o.roster))
		if !ok {
			degraded++
		}
		rebuttals[p.ID] = text
	}

	o.state = StateConsensus
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	writer := WriterFor(o.roster)
	finalText, writerOK := o.call(ctx, topic, writer, ConsensusPrompt(topic, in, rebuttals, o.roster))
	if !writerOK {
		degraded++
	}

	// The consensus text is handed to renderers: strip outer code fences the
	// writer may have wrapped it in, keeping the raw text if the cleaned form
	// no longer parses as markdown.
	if writerOK {
		if cleaned := utils.CleanMarkdown(finalText); utils.ValidateMarkdown(cleaned) {
			finalText = cleaned
		}
	}

	result := &ConsensusResult{
		Topic:     topic,
		FinalText: finalText,
		Degraded:  degraded,
	}

	// The structured verdict wins when valid; otherwise fall back to pattern
	// scanning over the prose, then to the default grade.
	if v, err := ParseVerdict(finalText); writerOK && err == nil {
		g, _ := ParseGrade(v.Grade)
		result.Grade = g
		result.Confidence = v.Confidence
	} else {
		g, found := ExtractGrade(finalText)
		if !writerOK || !found {
			g = DefaultGrade
		}
		result.Grade = g
		result.Confidence = computeConfidence(topic, degraded)
	}

	o.state = StateDone
	return result, nil
}

// call performs one persona exchange under the per-call timeout, records it in
// the transcript, and substitutes an error marker when the backend fails. The
// second return is false for a degraded contribution.
func (o *Orchestrator) call(ctx context.Context, topic Topic, p Persona, promptText string) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	resp, err := o.manager.ExecutePrompt(callCtx, p.ID, promptText, SystemPromptFor(p), nil)
	entry := Entry{
		Timestamp:     time.Now(),
		PersonaID:     p.ID,
		Topic:         topic,
		PromptExcerpt: excerpt(promptText, promptExcerptRunes),
	}
	if err != nil {
		resp = fmt.Sprintf("[response unavailable: %v]", err)
		entry.Degraded = true
	}
	entry.ResponseExcerpt = excerpt(resp, responseExcerptRunes)
	o.transcript.Append(entry)

	return resp, err == nil
}

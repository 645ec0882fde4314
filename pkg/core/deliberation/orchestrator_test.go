package deliberation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/calc"
)

func stubManager(p *ScriptedProvider) *agent.Manager {
	m := agent.NewManager(agent.Config{ActiveProvider: "stub"})
	m.RegisterProvider("stub", p)
	return m
}

func ratioInput() *TopicInput {
	return &TopicInput{
		EntityName: "삼성전자",
		FiscalYear: "2023",
		Ratios: &calc.RatioSet{
			ROE: 20, ROA: 8, OperatingMargin: 15, NetMargin: 10,
			DebtRatio: 60, EquityRatio: 62.5,
		},
	}
}

func TestRunTopic_FullProtocol(t *testing.T) {
	stub := &ScriptedProvider{Fallback: "The ratios look solid. grade: A"}
	o := New(DefaultRoster(), stubManager(stub))

	res, err := o.RunTopic(context.Background(), TopicRatioGrade, ratioInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 opinions + 3 rebuttals + 1 consensus draft.
	if stub.Calls() != 7 {
		t.Errorf("backend calls = %d, want 7", stub.Calls())
	}
	if o.Transcript().Len() != 7 {
		t.Errorf("transcript entries = %d, want 7", o.Transcript().Len())
	}
	if res.Grade != GradeA {
		t.Errorf("grade = %v, want A", res.Grade)
	}
	if res.Confidence != 85 {
		t.Errorf("confidence = %d, want 85", res.Confidence)
	}
	if res.Degraded != 0 {
		t.Errorf("degraded = %d, want 0", res.Degraded)
	}
	if o.State() != StateDone {
		t.Errorf("state = %v, want done", o.State())
	}

	sum := o.Transcript().Summarize()
	if len(sum.Participants) != 3 {
		t.Errorf("participants = %v, want 3 personas", sum.Participants)
	}
}

func TestRunTopic_StructuredVerdictWins(t *testing.T) {
	stub := &ScriptedProvider{Fallback: "Mixed signals here. grade: B"}
	// The consensus writer emits strict JSON; its grade and confidence must
	// override the prose scan.
	stub.Script("As the consensus writer", `{"grade": "C", "confidence": 64, "summary": "receivables build-up"}`)

	o := New(DefaultRoster(), stubManager(stub))
	res, err := o.RunTopic(context.Background(), TopicFraudRisk, ratioInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Grade != GradeC {
		t.Errorf("grade = %v, want C from verdict", res.Grade)
	}
	if res.Confidence != 64 {
		t.Errorf("confidence = %d, want 64 from verdict", res.Confidence)
	}
}

func TestRunTopic_ConsensusFencesStripped(t *testing.T) {
	stub := &ScriptedProvider{Fallback: "Reasonable figures. grade: B"}
	stub.Script("As the consensus writer",
		"```markdown\n패널은 수익성이 양호하다고 판단했습니다. grade: A\n```")

	o := New(DefaultRoster(), stubManager(stub))
	res, err := o.RunTopic(context.Background(), TopicRatioGrade, ratioInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(res.FinalText, "```") {
		t.Errorf("FinalText still fenced: %q", res.FinalText)
	}
	if !strings.Contains(res.FinalText, "양호하다고") {
		t.Errorf("FinalText body lost: %q", res.FinalText)
	}
	if res.Grade != GradeA {
		t.Errorf("grade = %v, want A from cleaned text", res.Grade)
	}
}

func TestRunTopic_BackendFailureDegrades(t *testing.T) {
	stub := &ScriptedProvider{Err: errors.New("model unavailable")}
	o := New(DefaultRoster(), stubManager(stub))

	res, err := o.RunTopic(context.Background(), TopicFinalOpinion, ratioInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degraded != 7 {
		t.Errorf("degraded = %d, want 7", res.Degraded)
	}
	if res.Grade != DefaultGrade {
		t.Errorf("grade = %v, want default %v", res.Grade, DefaultGrade)
	}
	if res.Confidence != 10 {
		t.Errorf("confidence = %d, want floor 10", res.Confidence)
	}
	if res.FinalText == "" {
		t.Error("final text empty; want error marker")
	}

	sum := o.Transcript().Summarize()
	if sum.DegradedCalls != 7 {
		t.Errorf("transcript degraded calls = %d, want 7", sum.DegradedCalls)
	}
}

func TestRunTopic_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &ScriptedProvider{}
	o := New(DefaultRoster(), stubManager(stub))
	if _, err := o.RunTopic(ctx, TopicRatioGrade, ratioInput()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunTopic_EmptyRoster(t *testing.T) {
	o := New(nil, stubManager(&ScriptedProvider{}))
	if _, err := o.RunTopic(context.Background(), TopicRatioGrade, ratioInput()); err == nil {
		t.Fatal("expected error for empty roster")
	}
}

func TestRunTopic_TranscriptAccumulatesAcrossTopics(t *testing.T) {
	stub := &ScriptedProvider{Fallback: "grade: B"}
	o := New(DefaultRoster(), stubManager(stub), WithCallTimeout(5*time.Second))

	for _, topic := range []Topic{TopicRatioGrade, TopicFraudRisk} {
		if _, err := o.RunTopic(context.Background(), topic, ratioInput()); err != nil {
			t.Fatalf("topic %s: %v", topic, err)
		}
	}
	if o.Transcript().Len() != 14 {
		t.Errorf("transcript entries = %d, want 14", o.Transcript().Len())
	}
}

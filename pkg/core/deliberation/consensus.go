package deliberation

import (
	"fmt"
	"strings"

	"finaudit/pkg/core/utils"
)

// Grade is a letter judgment on the S > A > B > C > D scale.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// DefaultGrade is assigned when no grade can be extracted from consensus text.
const DefaultGrade = GradeB

// GradeOrder lists grades from best to worst; extraction scans in this order
// so the first grade mentioned in scale order wins on ambiguous text.
var GradeOrder = []Grade{GradeS, GradeA, GradeB, GradeC, GradeD}

// ParseGrade validates a single-letter grade string.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range GradeOrder {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// Verdict is the structured judgment the consensus writer is asked to emit
// alongside its prose. Parsing is tolerant of malformed JSON.
type Verdict struct {
	Grade      string `json:"grade"`
	Confidence int    `json:"confidence"`
	Summary    string `json:"summary"`
}

// ParseVerdict extracts a structured verdict from model output. It accepts
// strict JSON, repairable JSON, and HJSON. The grade must be a valid letter
// and the confidence within [0,100] for the verdict to be used.
func ParseVerdict(raw string) (*Verdict, error) {
	var v Verdict
	if _, err := utils.SmartParse(raw, &v); err != nil {
		return nil, fmt.Errorf("verdict parse failed: %w", err)
	}
	if _, ok := ParseGrade(v.Grade); !ok {
		return nil, fmt.Errorf("verdict has invalid grade %q", v.Grade)
	}
	if v.Confidence < 0 || v.Confidence > 100 {
		return nil, fmt.Errorf("verdict confidence %d out of range", v.Confidence)
	}
	v.Grade = strings.ToUpper(strings.TrimSpace(v.Grade))
	return &v, nil
}

// gradePatterns returns the textual forms a grade mention can take. Both the
// Korean 등급 forms and the English "grade" forms are recognized; matching is
// case-insensitive on an upper-cased copy of the text.
func gradePatterns(g Grade) []string {
	l := string(g)
	return []string{
		l + "등급",
		"등급 " + l,
		"등급: " + l,
		"등급:" + l,
		l + " GRADE",
		"GRADE " + l,
		"GRADE: " + l,
		"GRADE:" + l,
	}
}

// ExtractGrade scans free-form consensus text for a grade mention. When no
// pattern matches, the default grade is returned with ok=false so callers can
// distinguish an explicit grade from the fallback.
func ExtractGrade(text string) (Grade, bool) {
	upper := strings.ToUpper(text)
	for _, g := range GradeOrder {
		for _, pat := range gradePatterns(g) {
			if strings.Contains(upper, pat) {
				return g, true
			}
		}
	}
	return DefaultGrade, false
}

// topicBaseConfidence is the starting confidence per topic before degraded
// contributions are penalized.
var topicBaseConfidence = map[Topic]int{
	TopicRatioGrade:   85,
	TopicFraudRisk:    80,
	TopicFinalOpinion: 90,
}

const (
	degradedPenalty = 15
	confidenceFloor = 10
)

// computeConfidence derives confidence for a topic when the consensus writer
// did not emit a usable structured verdict.
func computeConfidence(topic Topic, degraded int) int {
	base, ok := topicBaseConfidence[topic]
	if !ok {
		base = 80
	}
	c := base - degraded*degradedPenalty
	if c < confidenceFloor {
		c = confidenceFloor
	}
	return c
}

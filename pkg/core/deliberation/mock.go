package deliberation

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedProvider is a deterministic inference backend for simulation runs
// and tests. Responses are matched by prompt substring in registration order;
// unmatched prompts fall back to a canned opinion carrying the default grade.
type ScriptedProvider struct {
	mu      sync.Mutex
	scripts []script
	calls   int

	// Fallback, when set, replaces the canned default response.
	Fallback string
	// Err, when set, fails every call. Used to exercise degraded paths.
	Err error
}

type script struct {
	substring string
	response  string
}

// Script registers a response for prompts containing the given substring.
func (s *ScriptedProvider) Script(substring, response string) *ScriptedProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script{substring: substring, response: response})
	return s
}

// Calls reports how many prompts were served.
func (s *ScriptedProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// GenerateResponse implements llm.Provider.
func (s *ScriptedProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.Err != nil {
		return "", s.Err
	}
	for _, sc := range s.scripts {
		if strings.Contains(prompt, sc.substring) {
			return sc.response, nil
		}
	}
	if s.Fallback != "" {
		return s.Fallback, nil
	}
	return fmt.Sprintf("Simulated deliberation response. grade: %s", DefaultGrade), nil
}

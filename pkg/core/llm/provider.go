// Package llm abstracts the text-generation backends used by the
// deliberation personas. Providers block until the backend responds or the
// caller's context expires; callers own the timeout.
package llm

import (
	"context"
)

// Provider is the interface for all inference backends.
type Provider interface {
	// GenerateResponse sends one prompt and returns the full response text.
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// SamplingDefaults are the generation parameters applied when the caller
// supplies no overrides.
var SamplingDefaults = map[string]interface{}{
	"temperature": 0.7,
	"top_p":       0.9,
	"top_k":       40,
	"num_predict": 2000,
}

func stringOption(options map[string]interface{}, key, fallback string) string {
	if options != nil {
		if v, ok := options[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

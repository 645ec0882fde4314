// Package agent wires deliberation personas to inference backends. The
// roster/provider mapping comes from a YAML config; tests register stub
// providers in place of the real backends.
package agent

import (
	"context"
	"fmt"

	"finaudit/pkg/core/llm"
)

// Config selects the active provider and per-persona overrides.
type Config struct {
	ActiveProvider string                   `yaml:"active_provider"`
	Personas       map[string]PersonaConfig `yaml:"personas"`
}

// PersonaConfig carries the backend binding for one persona.
type PersonaConfig struct {
	Provider string `yaml:"provider"` // optional override of ActiveProvider
	Model    string `yaml:"model"`    // backend model name, e.g. "qwen2.5:7b"
}

// Manager resolves which provider and model serve a given persona.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"ollama": &llm.OllamaProvider{},
			"gemini": &llm.GeminiProvider{},
		},
	}
}

// RegisterProvider adds or replaces a provider under the given name. Tests
// use this to install deterministic stubs.
func (m *Manager) RegisterProvider(name string, p llm.Provider) {
	m.providers[name] = p
}

// GetProvider returns the provider serving a persona, falling back from the
// persona override to the active provider to ollama.
func (m *Manager) GetProvider(personaID string) llm.Provider {
	if pc, ok := m.config.Personas[personaID]; ok && pc.Provider != "" {
		if p, ok := m.providers[pc.Provider]; ok {
			return p
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["ollama"]
}

// ExecutePrompt sends one prompt on behalf of a persona. The persona's model
// binding is merged into the options unless the caller already set one.
func (m *Manager) ExecutePrompt(ctx context.Context, personaID, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(personaID)

	if options == nil {
		options = map[string]interface{}{}
	}
	if _, ok := options["model"]; !ok {
		if pc, ok := m.config.Personas[personaID]; ok && pc.Model != "" {
			options["model"] = pc.Model
		}
	}
	return provider.GenerateResponse(ctx, prompt, systemPrompt, options)
}

// SetActiveProvider switches the global provider at runtime.
func (m *Manager) SetActiveProvider(name string) error {
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("provider %s not found", name)
	}
	m.config.ActiveProvider = name
	return nil
}

// ActiveProvider returns the current global provider name.
func (m *Manager) ActiveProvider() string {
	return m.config.ActiveProvider
}

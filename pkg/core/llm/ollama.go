package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// OllamaProvider targets a local Ollama server (/api/generate). This is the
// default backend: persona models like llama3.1:8b or qwen2.5:7b are selected
// per call through the "model" option.
type OllamaProvider struct {
	BaseURL string // defaults to OLLAMA_URL or http://localhost:11434
	Model   string // default model when the options carry none
}

// Ensure interface compliance
var _ Provider = (*OllamaProvider)(nil)

func (p *OllamaProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := p.Model
	if model == "" {
		model = "llama3.1:8b"
	}
	model = stringOption(options, "model", model)

	sampling := map[string]interface{}{}
	for k, v := range SamplingDefaults {
		sampling[k] = v
	}
	for _, k := range []string{"temperature", "top_p", "top_k", "num_predict"} {
		if options != nil {
			if v, ok := options[k]; ok {
				sampling[k] = v
			}
		}
	}

	reqBody := map[string]interface{}{
		"model":   model,
		"prompt":  prompt,
		"system":  systemPrompt,
		"stream":  false,
		"options": sampling,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/api/generate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama api call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama api returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama api error: %s", result.Error)
	}
	if result.Response == "" {
		return "", fmt.Errorf("empty response from ollama api")
	}
	return result.Response, nil
}

package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFromDirectory loads prompt overrides from a directory of .json files,
// each file one PromptTemplate. Missing directory is not an error; packages
// keep their hardcoded defaults.
func LoadFromDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("prompts directory not found: %s", dir)
	}

	registry := Get()
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read prompt file %s: %w", path, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse prompt file %s: %w", path, err)
		}
		if err := registry.Register(&pt); err != nil {
			return fmt.Errorf("failed to register prompt from %s: %w", path, err)
		}
		return nil
	})
}

// Package seed loads the initial configuration document from JSONC.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/tidwall/jsonc"
)

//go:embed default.jsonc
var defaultConfig []byte

// Parse strips JSONC comments and trailing commas from data and decodes the
// configuration. The document key is always set to the main config key.
func Parse(data []byte) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	cfg.ID = ""
	cfg.Key = models.ConfigKey
	return &cfg, nil
}

// Default returns the built-in seed configuration.
func Default() (*models.Configuration, error) {
	return Parse(defaultConfig)
}

// Load reads path, or returns the built-in seed when path is empty.
func Load(path string) (*models.Configuration, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

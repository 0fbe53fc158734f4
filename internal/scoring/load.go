package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML scoring table from path and validates it.
// An empty path yields the built-in Reference table.
func Load(path string) (*Config, error) {
	if path == "" {
		return Reference(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scoring table.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &cfg, nil
}

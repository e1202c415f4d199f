package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFilePath returns the conventional config file location,
// overridable with DAYFOLD_CONFIG.
func DefaultFilePath() string {
	if path := os.Getenv("DAYFOLD_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dayfold", "config.yaml")
	}
	return filepath.Join(home, ".dayfold", "config.yaml")
}

// mergeFile overlays settings from a YAML file onto cfg. A missing file
// is not an error; a malformed one is.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

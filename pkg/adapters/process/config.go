package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProcessConfig declares a capability backed by an external command.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Timeout bounds a single invocation, e.g. "5s". Empty means no limit.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of capabilities.yaml.
type ConfigFile struct {
	Capabilities []ProcessConfig `yaml:"capabilities" json:"capabilities"`
}

// LoadCapabilities reads a configuration file (YAML or JSON) and returns the
// declared capabilities by name. A missing file yields an empty map.
func LoadCapabilities(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read capabilities config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	caps := make(map[string]ProcessConfig, len(cfg.Capabilities))
	for _, c := range cfg.Capabilities {
		if c.Name == "" {
			continue
		}
		if c.Command == "" {
			return nil, fmt.Errorf("capability %q: command is required", c.Name)
		}
		if c.Timeout != "" {
			if _, err := time.ParseDuration(c.Timeout); err != nil {
				return nil, fmt.Errorf("capability %q: invalid timeout: %w", c.Name, err)
			}
		}
		caps[c.Name] = c
	}
	return caps, nil
}

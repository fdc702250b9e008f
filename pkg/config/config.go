// Package config loads the optional external rule-override document. An
// absent document means built-in defaults apply; an invalid one aborts the
// run before any validation happens.
package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
)

// Config is the parsed override document: per-rule severity overrides,
// enable/disable flags, and pattern parameters.
type Config struct {
	ID    string              `yaml:"id" json:"id"`
	Rules []*catalog.Override `yaml:"rules" json:"rules"`
}

// DefaultConfig returns an empty configuration: built-in defaults apply.
func DefaultConfig(id string) *Config {
	return &Config{ID: id}
}

// LoadFromFile loads an override document from a YAML or JSON file.
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("loading rule overrides", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filename)
	}

	var config Config

	// Try YAML first, then JSON.
	if yamlErr := yaml.Unmarshal(data, &config); yamlErr != nil {
		if jsonErr := json.Unmarshal(data, &config); jsonErr != nil {
			return nil, errors.Wrapf(yamlErr, "invalid configuration: failed to parse %s", filename)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded rule overrides", "rules_count", len(config.Rules))
	return &config, nil
}

// Validate rejects structurally broken override documents. Unknown rule ids
// are caught later by catalog.Apply, which has the full rule set.
func (c *Config) Validate() error {
	for i, o := range c.Rules {
		if o == nil {
			return errors.Errorf("invalid configuration: rules[%d] is empty", i)
		}
		if o.ID == "" {
			return errors.Errorf("invalid configuration: rules[%d] is missing a rule id", i)
		}
	}
	return nil
}

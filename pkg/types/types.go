// Package types contains the core data structures shared across the
// schema-reviewer packages: severities, rule categories, and diagnostics.
package types

import (
	"encoding/json"
	"fmt"
)

// Severity represents the severity level of a diagnostic.
type Severity int32

const (
	Severity_UNSPECIFIED Severity = 0
	Severity_ERROR       Severity = 1
	Severity_WARNING     Severity = 2
	Severity_INFO        Severity = 3
)

func (s Severity) String() string {
	switch s {
	case Severity_ERROR:
		return "ERROR"
	case Severity_WARNING:
		return "WARNING"
	case Severity_INFO:
		return "INFO"
	default:
		return "UNSPECIFIED"
	}
}

// ParseSeverity converts a severity string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "ERROR", "error":
		return Severity_ERROR, nil
	case "WARNING", "warning":
		return Severity_WARNING, nil
	case "INFO", "info":
		return Severity_INFO, nil
	default:
		return Severity_UNSPECIFIED, fmt.Errorf("unknown severity: %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for Severity
func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	sev, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// MarshalYAML implements yaml.Marshaler for Severity
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Category groups rules by the aspect of the schema they check.
type Category string

const (
	CategorySyntax      Category = "syntax"
	CategoryNaming      Category = "naming"
	CategoryConstraints Category = "constraints"
	CategoryIndexes     Category = "indexes"
	CategoryRLS         Category = "rls"
)

// Categories lists all rule categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategorySyntax,
		CategoryNaming,
		CategoryConstraints,
		CategoryIndexes,
		CategoryRLS,
	}
}

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Severity Severity `yaml:"severity" json:"severity"`
	RuleID   string   `yaml:"rule" json:"rule"`
	Category Category `yaml:"category" json:"category"`
	Message  string   `yaml:"message" json:"message"`
	File     string   `yaml:"file" json:"file"`
	Line     int      `yaml:"line" json:"line"`

	// Optional context.
	Table  string `yaml:"table,omitempty" json:"table,omitempty"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
	Fix    string `yaml:"fix,omitempty" json:"fix,omitempty"`
}

// Location returns the file:line position of the diagnostic.
func (d *Diagnostic) Location() string {
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.RuleID, d.Location(), d.Message)
}

package reviewer

import (
	"fmt"

	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// Report contains the results of one review run.
//
// It carries every diagnostic the enabled rules produced, in deterministic
// order, plus aggregate statistics for quick analysis.
type Report struct {
	// Diagnostics contains all findings, sorted by file, line, rule id and
	// message, with exact duplicates removed. Empty if no issues were found.
	Diagnostics []*types.Diagnostic `yaml:"diagnostics" json:"diagnostics"`

	// Summary provides aggregate statistics about the findings.
	Summary Summary `yaml:"summary" json:"summary"`

	// Files breaks the findings down per input file, ordered by file name.
	// Files without findings do not appear.
	Files []*FileStats `yaml:"files" json:"files"`

	// Passed is true when no ERROR-level finding was produced. Warnings and
	// infos do not fail a review.
	Passed bool `yaml:"passed" json:"passed"`
}

// FileStats is the per-file finding breakdown.
type FileStats struct {
	File     string `yaml:"file" json:"file"`
	Total    int    `yaml:"total" json:"total"`
	Errors   int    `yaml:"errors" json:"errors"`
	Warnings int    `yaml:"warnings" json:"warnings"`
	Infos    int    `yaml:"infos" json:"infos"`
}

// Summary provides aggregate statistics about review findings.
type Summary struct {
	// Total number of findings (errors + warnings + infos).
	Total int `yaml:"total" json:"total"`

	// Errors is the count of ERROR-level findings.
	Errors int `yaml:"errors" json:"errors"`

	// Warnings is the count of WARNING-level findings.
	Warnings int `yaml:"warnings" json:"warnings"`

	// Infos is the count of INFO-level findings.
	Infos int `yaml:"infos" json:"infos"`

	// ByCategory counts findings per rule category.
	ByCategory map[types.Category]int `yaml:"by_category" json:"by_category"`
}

// HasErrors returns true if the review found any ERROR-level findings.
//
// This is what CI pipelines should gate on:
//
//	if report.HasErrors() {
//	    os.Exit(1)
//	}
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if the review found any WARNING-level findings.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// IsClean returns true if the review found no errors or warnings.
func (r *Report) IsClean() bool {
	return r.Summary.Errors == 0 && r.Summary.Warnings == 0
}

// BySeverity returns the findings with the given severity, preserving the
// report order.
func (r *Report) BySeverity(severity types.Severity) []*types.Diagnostic {
	filtered := make([]*types.Diagnostic, 0)
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// ByRule returns the findings produced by one rule, preserving the report
// order.
func (r *Report) ByRule(ruleID string) []*types.Diagnostic {
	filtered := make([]*types.Diagnostic, 0)
	for _, d := range r.Diagnostics {
		if d.RuleID == ruleID {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// String returns a one-line human-readable summary.
//
// Example output:
//
//	Review Results: 5 total (2 errors, 3 warnings, 0 infos)
func (r *Report) String() string {
	return fmt.Sprintf(
		"Review Results: %d total (%d errors, %d warnings, %d infos)",
		r.Summary.Total,
		r.Summary.Errors,
		r.Summary.Warnings,
		r.Summary.Infos,
	)
}

package reviewer

import (
	"sort"

	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// Aggregate orders and deduplicates raw findings and computes the report
// summary. The order is total: file, then line, then rule id, then message,
// so the same input always renders the same report regardless of which
// goroutine produced which finding first.
func Aggregate(diags []*types.Diagnostic) *Report {
	sorted := make([]*types.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})

	report := &Report{
		Summary: Summary{ByCategory: make(map[types.Category]int)},
	}

	type key struct {
		file    string
		line    int
		ruleID  string
		message string
	}
	seen := make(map[key]bool)

	for _, d := range sorted {
		k := key{d.File, d.Line, d.RuleID, d.Message}
		if seen[k] {
			continue
		}
		seen[k] = true

		report.Diagnostics = append(report.Diagnostics, d)
		report.Summary.Total++
		report.Summary.ByCategory[d.Category]++

		// The input is file-sorted, so per-file stats build in order.
		if len(report.Files) == 0 || report.Files[len(report.Files)-1].File != d.File {
			report.Files = append(report.Files, &FileStats{File: d.File})
		}
		fs := report.Files[len(report.Files)-1]
		fs.Total++

		switch d.Severity {
		case types.Severity_ERROR:
			report.Summary.Errors++
			fs.Errors++
		case types.Severity_WARNING:
			report.Summary.Warnings++
			fs.Warnings++
		case types.Severity_INFO:
			report.Summary.Infos++
			fs.Infos++
		}
	}

	report.Passed = report.Summary.Errors == 0
	return report
}

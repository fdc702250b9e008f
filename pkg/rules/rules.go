// Package rules implements the built-in validation rules, grouped by
// category: syntax, naming, constraints, indexes, and rls. Each rule is a
// pure single pass over the immutable schema and registers itself into the
// default catalog registry at init time.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// report builds a diagnostic carrying the rule's effective severity.
func report(rule *catalog.Rule, file string, line int, format string, args ...interface{}) *types.Diagnostic {
	return &types.Diagnostic{
		Severity: rule.Severity,
		RuleID:   rule.ID,
		Category: rule.Category,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Line:     line,
	}
}

// baseType returns the leading word of a declared type, uppercased:
// "numeric(10,2)" -> "NUMERIC", "timestamp with time zone" -> "TIMESTAMP".
func baseType(declared string) string {
	declared = strings.TrimSpace(declared)
	end := len(declared)
	for i := 0; i < len(declared); i++ {
		c := declared[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			end = i
			break
		}
	}
	return strings.ToUpper(declared[:end])
}

// mentionsWord reports whether expr contains word as a whole identifier,
// case-insensitively.
func mentionsWord(expr, word string) bool {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(expr)
}

// normalizeExpr lowercases an expression and collapses its whitespace, so
// substring heuristics are layout-independent.
func normalizeExpr(expr string) string {
	return strings.Join(strings.Fields(strings.ToLower(expr)), " ")
}

// definedTables returns the tables that were actually created in the input,
// skipping placeholders referenced by forward or dangling statements.
func definedTables(s *schema.Schema) []*schema.Table {
	var tables []*schema.Table
	for _, t := range s.Tables() {
		if t.Defined {
			tables = append(tables, t)
		}
	}
	return tables
}

// columnHasCoveringIndex reports whether the column is the sole or leading
// column of any index on the table, counting the implicit indexes of
// primary-key and unique constraints.
func columnHasCoveringIndex(t *schema.Table, column string) bool {
	for _, idx := range t.Indexes {
		if idx.Covers(column) {
			return true
		}
	}
	for _, c := range t.Constraints {
		if c.Kind != schema.ConstraintPrimaryKey && c.Kind != schema.ConstraintUnique {
			continue
		}
		if len(c.Columns) > 0 && strings.EqualFold(c.Columns[0], column) {
			return true
		}
	}
	return false
}

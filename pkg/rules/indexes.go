package rules

import (
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func init() {
	catalog.Register(&catalog.Rule{
		ID:       "indexes.fk-column-missing-index",
		Category: types.CategoryIndexes,
		Severity: types.Severity_WARNING,
		Title:    "Foreign-key column has no covering index",
		Enabled:  true,
		Check:    checkForeignKeyIndex,
	})
	catalog.Register(&catalog.Rule{
		ID:       "indexes.policy-column-missing-index",
		Category: types.CategoryIndexes,
		Severity: types.Severity_WARNING,
		Title:    "Policy predicate column has no covering index",
		Enabled:  true,
		Check:    checkPolicyColumnIndex,
	})
	catalog.Register(&catalog.Rule{
		ID:       "indexes.duplicate",
		Category: types.CategoryIndexes,
		Severity: types.Severity_WARNING,
		Title:    "Index duplicates an earlier one",
		Enabled:  true,
		Check:    checkDuplicateIndex,
	})
	catalog.Register(&catalog.Rule{
		ID:       "indexes.jsonb-not-gin",
		Category: types.CategoryIndexes,
		Severity: types.Severity_INFO,
		Title:    "JSONB column indexed without GIN",
		Enabled:  true,
		Check:    checkJSONBIndexMethod,
	})
	catalog.Register(&catalog.Rule{
		ID:       "indexes.dangling-table",
		Category: types.CategoryIndexes,
		Severity: types.Severity_WARNING,
		Title:    "Index targets an undefined table",
		Enabled:  true,
		Check:    checkIndexDanglingTable,
	})
}

// checkForeignKeyIndex warns per foreign-key column that is not the sole or
// leading column of any index: every row deletion on the referenced table
// scans the referencing one otherwise.
func checkForeignKeyIndex(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		seen := make(map[string]bool)
		for _, fk := range t.ForeignKeys() {
			for _, column := range fk.Columns {
				key := strings.ToLower(column)
				if seen[key] || columnHasCoveringIndex(t, column) {
					continue
				}
				seen[key] = true
				d := report(rule, fk.File, fk.Line, "foreign key column %q on table %q has no index", column, t.Name)
				d.Table, d.Column = t.Name, column
				d.Fix = "CREATE INDEX idx_" + strings.ToLower(t.Name) + "_" + key + " ON " + strings.ToLower(t.Name) + " (" + key + ")"
				diags = append(diags, d)
			}
		}
	}
	return diags
}

// checkPolicyColumnIndex warns for columns referenced by row-level-security
// policy predicates without a covering index; the predicate runs per row on
// every access.
func checkPolicyColumnIndex(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		seen := make(map[string]bool)
		for _, pol := range t.Policies {
			for _, expr := range pol.Expressions() {
				for _, col := range t.Columns {
					key := strings.ToLower(col.Name)
					if seen[key] || !mentionsWord(expr, col.Name) {
						continue
					}
					seen[key] = true
					if columnHasCoveringIndex(t, col.Name) {
						continue
					}
					d := report(rule, pol.File, pol.Line, "column %q is used by policy %q on table %q but has no index", col.Name, pol.Name, t.Name)
					d.Table, d.Column = t.Name, col.Name
					diags = append(diags, d)
				}
			}
		}
	}
	return diags
}

// checkDuplicateIndex flags the later of two indexes with an identical
// ordered column list and partial predicate.
func checkDuplicateIndex(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range s.Tables() {
		for i, idx := range t.Indexes {
			for _, earlier := range t.Indexes[:i] {
				if !idx.Duplicates(earlier) {
					continue
				}
				d := report(rule, idx.File, idx.Line, "index %q on table %q duplicates index %q and is redundant", idx.Name, t.Name, earlier.Name)
				d.Table = t.Name
				d.Fix = "drop " + idx.Name
				diags = append(diags, d)
				break
			}
		}
	}
	return diags
}

func checkJSONBIndexMethod(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, idx := range t.Indexes {
			if idx.Using == "gin" {
				continue
			}
			for _, elem := range idx.Elems {
				if elem.IsExpression() {
					continue
				}
				col := t.Column(elem.Column)
				if col == nil || baseType(col.Type) != "JSONB" {
					continue
				}
				d := report(rule, idx.File, idx.Line, "index %q covers JSONB column %q with %s", idx.Name, col.Name, idx.Using)
				d.Table, d.Column = t.Name, col.Name
				d.Fix = "use USING gin for containment queries"
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func checkIndexDanglingTable(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range s.Tables() {
		if t.Defined {
			continue
		}
		for _, idx := range t.Indexes {
			d := report(rule, idx.File, idx.Line, "index %q targets table %q, which is not defined in the analyzed DDL", idx.Name, t.QualifiedName())
			d.Table = t.Name
			diags = append(diags, d)
		}
	}
	return diags
}

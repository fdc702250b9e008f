package rules

import (
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func init() {
	catalog.Register(&catalog.Rule{
		ID:       "constraints.require-primary-key",
		Category: types.CategoryConstraints,
		Severity: types.Severity_ERROR,
		Title:    "Table requires a primary key",
		Enabled:  true,
		Check:    checkRequirePrimaryKey,
	})
	catalog.Register(&catalog.Rule{
		ID:       "constraints.multiple-primary-keys",
		Category: types.CategoryConstraints,
		Severity: types.Severity_ERROR,
		Title:    "Table declares more than one primary key",
		Enabled:  true,
		Check:    checkMultiplePrimaryKeys,
	})
	catalog.Register(&catalog.Rule{
		ID:       "constraints.fk-no-on-delete",
		Category: types.CategoryConstraints,
		Severity: types.Severity_INFO,
		Title:    "Foreign key has no explicit ON DELETE action",
		Enabled:  true,
		Check:    checkForeignKeyOnDelete,
	})
	catalog.Register(&catalog.Rule{
		ID:       "constraints.fk-dangling-reference",
		Category: types.CategoryConstraints,
		Severity: types.Severity_WARNING,
		Title:    "Foreign key references an undefined table",
		Enabled:  true,
		Check:    checkForeignKeyDangling,
	})
	catalog.Register(&catalog.Rule{
		ID:       "constraints.key-column-nullable",
		Category: types.CategoryConstraints,
		Severity: types.Severity_WARNING,
		Title:    "Key column should be NOT NULL",
		Enabled:  true,
		Check:    checkKeyColumnNullable,
	})
	catalog.Register(&catalog.Rule{
		ID:       "constraints.bounded-value-no-check",
		Category: types.CategoryConstraints,
		Severity: types.Severity_INFO,
		Title:    "Bounded-domain column should carry a CHECK constraint",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": []string{"price", "amount", "quantity", "qty", "count", "total", "balance", "age", "percent", "rate", "discount", "stock"},
		},
		Check: checkBoundedValueNoCheck,
	})
}

func checkRequirePrimaryKey(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		if len(t.PrimaryKeys()) != 0 {
			continue
		}
		d := report(rule, t.File, t.Line, "table %q is missing a primary key", t.Name)
		d.Table = t.Name
		diags = append(diags, d)
	}
	return diags
}

func checkMultiplePrimaryKeys(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		pks := t.PrimaryKeys()
		if len(pks) <= 1 {
			continue
		}
		d := report(rule, t.File, t.Line, "table %q declares %d primary keys", t.Name, len(pks))
		d.Table = t.Name
		diags = append(diags, d)
	}
	return diags
}

// checkForeignKeyOnDelete is an info-level nudge only: the implicit NO
// ACTION behavior is sometimes intentional.
func checkForeignKeyOnDelete(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, fk := range t.ForeignKeys() {
			if fk.References == nil || fk.References.OnDelete != schema.OnDeleteUnspecified {
				continue
			}
			d := report(rule, fk.File, fk.Line, "foreign key %q on table %q has no ON DELETE action", fk.Name, t.Name)
			d.Table = t.Name
			d.Fix = "state ON DELETE CASCADE, RESTRICT, SET NULL or SET DEFAULT explicitly"
			diags = append(diags, d)
		}
	}
	return diags
}

func checkForeignKeyDangling(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, fk := range t.ForeignKeys() {
			if fk.References == nil {
				continue
			}
			target := s.Table(fk.References.Table)
			if target != nil && target.Defined {
				continue
			}
			d := report(rule, fk.File, fk.Line, "foreign key %q on table %q references table %q, which is not defined in the analyzed DDL", fk.Name, t.Name, fk.References.Table)
			d.Table = t.Name
			diags = append(diags, d)
		}
	}
	return diags
}

// checkKeyColumnNullable flags nullable columns that participate in a
// unique constraint or unique index. NULLs never collide in PostgreSQL, so
// a nullable key column rarely means what its author intended.
func checkKeyColumnNullable(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		seen := make(map[string]bool)
		flag := func(name string, line int) {
			col := t.Column(name)
			if col == nil || !col.Nullable || seen[strings.ToLower(col.Name)] {
				return
			}
			seen[strings.ToLower(col.Name)] = true
			d := report(rule, t.File, line, "key column %q on table %q is nullable", col.Name, t.Name)
			d.Table, d.Column = t.Name, col.Name
			d.Fix = "add NOT NULL"
			diags = append(diags, d)
		}
		for _, c := range t.UniqueConstraints() {
			for _, name := range c.Columns {
				flag(name, c.Line)
			}
		}
		for _, idx := range t.Indexes {
			if !idx.Unique {
				continue
			}
			for _, elem := range idx.Elems {
				if !elem.IsExpression() {
					flag(elem.Column, idx.Line)
				}
			}
		}
	}
	return diags
}

var boundedNumericTypes = map[string]bool{
	"SMALLINT": true, "INTEGER": true, "INT": true, "INT2": true, "INT4": true,
	"INT8": true, "BIGINT": true, "NUMERIC": true, "DECIMAL": true,
	"REAL": true, "FLOAT": true, "FLOAT4": true, "FLOAT8": true, "DOUBLE": true,
}

func checkBoundedValueNoCheck(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	hints := rule.ListPayload("list", nil)

	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, col := range t.Columns {
			if !boundedNumericTypes[baseType(col.Type)] || !nameHintsBoundedDomain(col.Name, hints) {
				continue
			}
			if columnHasCheck(t, col.Name) {
				continue
			}
			d := report(rule, t.File, col.Line, "column %q on table %q looks like a bounded quantity but has no CHECK constraint", col.Name, t.Name)
			d.Table, d.Column = t.Name, col.Name
			d.Fix = "consider CHECK (" + strings.ToLower(col.Name) + " >= 0)"
			diags = append(diags, d)
		}
	}
	return diags
}

func nameHintsBoundedDomain(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, hint := range hints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

func columnHasCheck(t *schema.Table, column string) bool {
	for _, c := range t.CheckConstraints() {
		for _, name := range c.Columns {
			if strings.EqualFold(name, column) {
				return true
			}
		}
		if c.Expression != "" && mentionsWord(c.Expression, column) {
			return true
		}
	}
	return false
}

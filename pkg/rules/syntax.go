package rules

import (
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func init() {
	catalog.Register(&catalog.Rule{
		ID:       "syntax.missing-semicolon",
		Category: types.CategorySyntax,
		Severity: types.Severity_WARNING,
		Title:    "Statement must be terminated with a semicolon",
		Enabled:  true,
		Check:    checkMissingSemicolon,
	})
	catalog.Register(&catalog.Rule{
		ID:       "syntax.deprecated-type",
		Category: types.CategorySyntax,
		Severity: types.Severity_INFO,
		Title:    "Column uses a deprecated type",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": []string{"MONEY", "SERIAL", "BIGSERIAL", "SMALLSERIAL"},
		},
		Check: checkDeprecatedType,
	})
	catalog.Register(&catalog.Rule{
		ID:       "syntax.uuid-pk-no-default",
		Category: types.CategorySyntax,
		Severity: types.Severity_INFO,
		Title:    "UUID primary key should have a default generator",
		Enabled:  true,
		Check:    checkUUIDPrimaryKeyDefault,
	})
	catalog.Register(&catalog.Rule{
		ID:       "syntax.reserved-keyword",
		Category: types.CategorySyntax,
		Severity: types.Severity_WARNING,
		Title:    "Identifier collides with a reserved keyword",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": reservedKeywords,
		},
		Check: checkReservedKeyword,
	})
	// Emitted during extraction; registered so overrides can retune it.
	catalog.Register(&catalog.Rule{
		ID:       schema.UnparsedStatementRuleID,
		Category: types.CategorySyntax,
		Severity: types.Severity_INFO,
		Title:    "Statement could not be classified",
		Enabled:  true,
	})
}

// checkMissingSemicolon flags the trailing statement of a file when it lacks
// a terminating semicolon, and statement bodies that embed the start of a
// new top-level statement, which means the semicolon between them is gone.
func checkMissingSemicolon(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, stmt := range s.Statements {
		if !stmt.Terminated {
			d := report(rule, stmt.File, stmt.Line, "statement is not terminated with a semicolon")
			d.Fix = "append ';'"
			diags = append(diags, d)
		}
		if stmt.Kind == schema.StatementIgnored || stmt.Kind == schema.StatementUnparsed {
			// GRANT CREATE and friends legitimately embed start keywords.
			continue
		}
		for _, line := range stmt.EmbeddedStarts() {
			d := report(rule, stmt.File, line, "statement start found before the previous statement was terminated; a semicolon is likely missing")
			d.Fix = "append ';'"
			diags = append(diags, d)
		}
	}
	return diags
}

func checkDeprecatedType(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	deprecated := rule.ListPayload("list", nil)
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, col := range t.Columns {
			base := baseType(col.Type)
			for _, dep := range deprecated {
				if strings.EqualFold(base, dep) {
					d := report(rule, t.File, col.Line, "column %q uses deprecated type %s", col.Name, base)
					d.Table, d.Column = t.Name, col.Name
					if base == "MONEY" {
						d.Fix = "use NUMERIC instead"
					} else {
						d.Fix = "use an integer type with GENERATED ... AS IDENTITY instead"
					}
					diags = append(diags, d)
				}
			}
		}
	}
	return diags
}

func checkUUIDPrimaryKeyDefault(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, col := range t.Columns {
			if baseType(col.Type) != "UUID" || !col.IsPrimaryKey(t) || col.Default != "" {
				continue
			}
			d := report(rule, t.File, col.Line, "UUID primary key %q has no DEFAULT expression", col.Name)
			d.Table, d.Column = t.Name, col.Name
			d.Fix = "add DEFAULT gen_random_uuid()"
			diags = append(diags, d)
		}
	}
	return diags
}

func checkReservedKeyword(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	keywords := make(map[string]bool)
	for _, kw := range rule.ListPayload("list", nil) {
		keywords[strings.ToUpper(kw)] = true
	}

	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		if keywords[strings.ToUpper(t.Name)] {
			d := report(rule, t.File, t.Line, "table name %q is a reserved keyword", t.Name)
			d.Table = t.Name
			diags = append(diags, d)
		}
		for _, col := range t.Columns {
			if keywords[strings.ToUpper(col.Name)] {
				d := report(rule, t.File, col.Line, "column name %q is a reserved keyword", col.Name)
				d.Table, d.Column = t.Name, col.Name
				diags = append(diags, d)
			}
		}
	}
	return diags
}

// reservedKeywords is the PostgreSQL reserved keyword list (the ones that
// cannot be used as bare table or column names).
var reservedKeywords = []string{
	"ALL", "ANALYSE", "ANALYZE", "AND", "ANY", "ARRAY", "AS", "ASC",
	"ASYMMETRIC", "BOTH", "CASE", "CAST", "CHECK", "COLLATE", "COLUMN",
	"CONSTRAINT", "CREATE", "CURRENT_CATALOG", "CURRENT_DATE",
	"CURRENT_ROLE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER",
	"DEFAULT", "DEFERRABLE", "DESC", "DISTINCT", "DO", "ELSE", "END",
	"EXCEPT", "FALSE", "FETCH", "FOR", "FOREIGN", "FROM", "GRANT", "GROUP",
	"HAVING", "IN", "INITIALLY", "INTERSECT", "INTO", "LATERAL", "LEADING",
	"LIMIT", "LOCALTIME", "LOCALTIMESTAMP", "NOT", "NULL", "OFFSET", "ON",
	"ONLY", "OR", "ORDER", "PLACING", "PRIMARY", "REFERENCES", "RETURNING",
	"SELECT", "SESSION_USER", "SOME", "SYMMETRIC", "TABLE", "THEN", "TO",
	"TRAILING", "TRUE", "UNION", "UNIQUE", "USER", "USING", "VARIADIC",
	"WHEN", "WHERE", "WINDOW", "WITH",
}

package rules

import (
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func init() {
	catalog.Register(&catalog.Rule{
		ID:       "naming.no-uppercase",
		Category: types.CategoryNaming,
		Severity: types.Severity_ERROR,
		Title:    "Identifiers must be lowercase",
		Enabled:  true,
		Check:    checkNoUppercase,
	})
	catalog.Register(&catalog.Rule{
		ID:       "naming.table-plural",
		Category: types.CategoryNaming,
		Severity: types.Severity_INFO,
		Title:    "Table names should be plural",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": irregularPlurals,
		},
		Check: checkTablePlural,
	})
	catalog.Register(&catalog.Rule{
		ID:       "naming.constraint-prefix",
		Category: types.CategoryNaming,
		Severity: types.Severity_WARNING,
		Title:    "Constraint names must carry their kind prefix",
		Enabled:  true,
		Payload: map[string]interface{}{
			"primary_key": "pk_",
			"foreign_key": "fk_",
			"unique":      "uq_",
			"check":       "ck_",
		},
		Check: checkConstraintPrefix,
	})
	catalog.Register(&catalog.Rule{
		ID:       "naming.index-prefix",
		Category: types.CategoryNaming,
		Severity: types.Severity_WARNING,
		Title:    "Index names must start with idx_ or uidx_",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": []string{"idx_", "uidx_"},
		},
		Check: checkIndexPrefix,
	})
}

func checkNoUppercase(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		if t.Name != strings.ToLower(t.Name) {
			d := report(rule, t.File, t.Line, "table name %q contains uppercase characters", t.Name)
			d.Table = t.Name
			d.Fix = "rename to " + strings.ToLower(t.Name)
			diags = append(diags, d)
		}
		for _, col := range t.Columns {
			if col.Name != strings.ToLower(col.Name) {
				d := report(rule, t.File, col.Line, "column name %q contains uppercase characters", col.Name)
				d.Table, d.Column = t.Name, col.Name
				d.Fix = "rename to " + strings.ToLower(col.Name)
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func checkTablePlural(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	irregular := make(map[string]bool)
	for _, word := range rule.ListPayload("list", nil) {
		irregular[strings.ToLower(word)] = true
	}

	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		name := strings.ToLower(t.Name)
		// Judge the last underscore-separated word: user_account -> account.
		word := name
		if i := strings.LastIndexByte(name, '_'); i >= 0 {
			word = name[i+1:]
		}
		if irregular[word] || strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
			continue
		}
		d := report(rule, t.File, t.Line, "table name %q is not plural", t.Name)
		d.Table = t.Name
		diags = append(diags, d)
	}
	return diags
}

func checkConstraintPrefix(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, c := range t.Constraints {
			prefix := rule.StringPayload(string(c.Kind), "")
			if prefix == "" {
				continue
			}
			if !c.UserNamed {
				d := report(rule, c.File, c.Line, "unnamed %s constraint on table %q", constraintKindLabel(c.Kind), t.Name)
				d.Table = t.Name
				d.Fix = "name it with the " + prefix + " prefix"
				diags = append(diags, d)
				continue
			}
			if !strings.HasPrefix(strings.ToLower(c.Name), prefix) {
				d := report(rule, c.File, c.Line, "%s constraint %q on table %q does not start with %q", constraintKindLabel(c.Kind), c.Name, t.Name, prefix)
				d.Table = t.Name
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func constraintKindLabel(kind schema.ConstraintKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

func checkIndexPrefix(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	prefixes := rule.ListPayload("list", nil)

	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, idx := range t.Indexes {
			if !idx.UserNamed {
				d := report(rule, idx.File, idx.Line, "unnamed index on table %q", t.Name)
				d.Table = t.Name
				diags = append(diags, d)
				continue
			}
			matched := false
			for _, prefix := range prefixes {
				if strings.HasPrefix(strings.ToLower(idx.Name), prefix) {
					matched = true
					break
				}
			}
			if !matched {
				d := report(rule, idx.File, idx.Line, "index %q on table %q does not start with %s", idx.Name, t.Name, strings.Join(prefixes, " or "))
				d.Table = t.Name
				diags = append(diags, d)
			}
		}
	}
	return diags
}

// irregularPlurals are nouns whose plural does not end in s; they pass the
// plural-name heuristic as-is.
var irregularPlurals = []string{
	"people", "children", "men", "women", "feet", "teeth", "geese", "mice",
	"data", "media", "criteria", "indices", "metadata", "staff",
}

package rules

import (
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func init() {
	catalog.Register(&catalog.Rule{
		ID:       "rls.disabled",
		Category: types.CategoryRLS,
		Severity: types.Severity_ERROR,
		Title:    "Row level security is not enabled",
		Enabled:  true,
		Check:    checkRLSDisabled,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.enabled-no-policy",
		Category: types.CategoryRLS,
		Severity: types.Severity_ERROR,
		Title:    "Row level security enabled without any policy",
		Enabled:  true,
		Check:    checkRLSNoPolicy,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.policy-no-roles",
		Category: types.CategoryRLS,
		Severity: types.Severity_WARNING,
		Title:    "Policy has no TO clause",
		Enabled:  true,
		Check:    checkPolicyNoRoles,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.write-policy-no-check",
		Category: types.CategoryRLS,
		Severity: types.Severity_WARNING,
		Title:    "Write policy has no WITH CHECK expression",
		Enabled:  true,
		Check:    checkWritePolicyNoCheck,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.unwrapped-function-call",
		Category: types.CategoryRLS,
		Severity: types.Severity_INFO,
		Title:    "Per-row function call should be wrapped in a subselect",
		Enabled:  true,
		Payload: map[string]interface{}{
			"list": []string{"auth.uid()", "auth.jwt()", "auth.role()"},
		},
		Check: checkUnwrappedFunctionCall,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.multiple-subselects",
		Category: types.CategoryRLS,
		Severity: types.Severity_WARNING,
		Title:    "Policy expression runs multiple subselects",
		Enabled:  true,
		Check:    checkMultipleSubselects,
	})
	catalog.Register(&catalog.Rule{
		ID:       "rls.policy-dangling-table",
		Category: types.CategoryRLS,
		Severity: types.Severity_WARNING,
		Title:    "Policy targets an undefined table",
		Enabled:  true,
		Check:    checkPolicyDanglingTable,
	})
}

// checkRLSDisabled flags every defined table in the public schema without
// ENABLE ROW LEVEL SECURITY. Tables outside public are left alone; internal
// schemas are commonly shielded by privileges instead of policies.
func checkRLSDisabled(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		if t.SchemaName() != "public" || t.RLSEnabled {
			continue
		}
		d := report(rule, t.File, t.Line, "table %q does not enable row level security", t.Name)
		d.Table = t.Name
		d.Fix = "ALTER TABLE " + t.Name + " ENABLE ROW LEVEL SECURITY"
		diags = append(diags, d)
	}
	return diags
}

// checkRLSNoPolicy flags tables that enable row level security but define no
// policy at all. Without a policy the table denies every row to non-owners,
// which is almost never the intended deployment state.
func checkRLSNoPolicy(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		if !t.RLSEnabled || len(t.Policies) != 0 {
			continue
		}
		d := report(rule, t.File, t.Line, "table %q enables row level security but defines no policy", t.Name)
		d.Table = t.Name
		diags = append(diags, d)
	}
	return diags
}

func checkPolicyNoRoles(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, pol := range t.Policies {
			if len(pol.Roles) != 0 {
				continue
			}
			d := report(rule, pol.File, pol.Line, "policy %q on table %q has no TO clause and defaults to PUBLIC, confirm that is the intent", pol.Name, t.Name)
			d.Table = t.Name
			diags = append(diags, d)
		}
	}
	return diags
}

// checkWritePolicyNoCheck covers INSERT and UPDATE policies only. An ALL
// policy without WITH CHECK reuses its USING expression for writes, which is
// the documented behavior rather than a gap.
func checkWritePolicyNoCheck(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, pol := range t.Policies {
			if !pol.IsWrite() || pol.WithCheck != "" {
				continue
			}
			d := report(rule, pol.File, pol.Line, "policy %q on table %q allows %s without a WITH CHECK expression", pol.Name, t.Name, strings.ToUpper(string(pol.Command)))
			d.Table = t.Name
			d.Fix = "add WITH CHECK (...)"
			diags = append(diags, d)
		}
	}
	return diags
}

// checkUnwrappedFunctionCall looks for session functions called bare in a
// policy expression. Wrapping them as (SELECT fn()) lets the planner run
// them once per statement instead of once per row.
func checkUnwrappedFunctionCall(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	fns := rule.ListPayload("list", nil)

	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, pol := range t.Policies {
			for _, expr := range pol.Expressions() {
				norm := normalizeExpr(expr)
				for _, fn := range fns {
					fn = strings.ToLower(fn)
					if !strings.Contains(norm, fn) || strings.Contains(norm, "(select "+fn) {
						continue
					}
					d := report(rule, pol.File, pol.Line, "policy %q on table %q calls %s per row", pol.Name, t.Name, fn)
					d.Table = t.Name
					d.Fix = "wrap it as (SELECT " + fn + ")"
					diags = append(diags, d)
				}
			}
		}
	}
	return diags
}

func checkMultipleSubselects(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range definedTables(s) {
		for _, pol := range t.Policies {
			for _, expr := range pol.Expressions() {
				if countWord(expr, "select") < 2 {
					continue
				}
				d := report(rule, pol.File, pol.Line, "policy %q on table %q runs multiple subselects in one expression", pol.Name, t.Name)
				d.Table = t.Name
				d.Fix = "consolidate into a single subselect or a helper function"
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func checkPolicyDanglingTable(s *schema.Schema, rule *catalog.Rule) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, t := range s.Tables() {
		if t.Defined {
			continue
		}
		for _, pol := range t.Policies {
			d := report(rule, pol.File, pol.Line, "policy %q targets table %q, which is not defined in the analyzed DDL", pol.Name, t.QualifiedName())
			d.Table = t.Name
			diags = append(diags, d)
		}
	}
	return diags
}

func countWord(expr, word string) int {
	n := 0
	for _, field := range strings.FieldsFunc(strings.ToLower(expr), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	}) {
		if field == word {
			n++
		}
	}
	return n
}

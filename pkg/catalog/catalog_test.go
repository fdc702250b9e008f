package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/schema-reviewer/pkg/types"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Rule{
		ID:       "naming.test-rule",
		Category: types.CategoryNaming,
		Severity: types.Severity_WARNING,
		Title:    "Test rule",
		Enabled:  true,
		Payload:  map[string]interface{}{"list": []string{"a", "b"}},
	})
	r.Register(&Rule{
		ID:       "rls.test-rule",
		Category: types.CategoryRLS,
		Severity: types.Severity_ERROR,
		Title:    "Another test rule",
		Enabled:  true,
	})
	return r
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&Rule{ID: "x"})
	assert.Panics(t, func() {
		r.Register(&Rule{ID: "x"})
	})
}

func TestFromRegistryOrdersByID(t *testing.T) {
	c := FromRegistry(testRegistry())
	rules := c.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "naming.test-rule", rules[0].ID)
	assert.Equal(t, "rls.test-rule", rules[1].ID)
}

func TestApplyOverrides(t *testing.T) {
	base := FromRegistry(testRegistry())

	off := false
	applied, err := base.Apply(
		&Override{ID: "naming.test-rule", Severity: types.Severity_ERROR},
		&Override{ID: "rls.test-rule", Enabled: &off},
	)
	require.NoError(t, err)

	naming, ok := applied.Get("naming.test-rule")
	require.True(t, ok)
	assert.Equal(t, types.Severity_ERROR, naming.Severity)
	assert.True(t, naming.Enabled)

	rls, ok := applied.Get("rls.test-rule")
	require.True(t, ok)
	assert.False(t, rls.Enabled)
	assert.Equal(t, types.Severity_ERROR, rls.Severity, "severity untouched when override omits it")

	// The base catalog is unchanged.
	baseNaming, _ := base.Get("naming.test-rule")
	assert.Equal(t, types.Severity_WARNING, baseNaming.Severity)
	baseRLS, _ := base.Get("rls.test-rule")
	assert.True(t, baseRLS.Enabled)
}

func TestApplyPayloadOverride(t *testing.T) {
	base := FromRegistry(testRegistry())
	applied, err := base.Apply(&Override{
		ID:      "naming.test-rule",
		Payload: map[string]interface{}{"list": []interface{}{"c"}},
	})
	require.NoError(t, err)

	rule, _ := applied.Get("naming.test-rule")
	assert.Equal(t, []string{"c"}, rule.ListPayload("list", nil))

	baseRule, _ := base.Get("naming.test-rule")
	assert.Equal(t, []string{"a", "b"}, baseRule.ListPayload("list", nil))
}

func TestApplyUnknownRule(t *testing.T) {
	base := FromRegistry(testRegistry())
	_, err := base.Apply(&Override{ID: "naming.does-not-exist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "naming.does-not-exist")
}

func TestRulesForCategory(t *testing.T) {
	base := FromRegistry(testRegistry())
	assert.Len(t, base.RulesForCategory(types.CategoryNaming), 1)
	assert.Empty(t, base.RulesForCategory(types.CategorySyntax))

	off := false
	applied, err := base.Apply(&Override{ID: "naming.test-rule", Enabled: &off})
	require.NoError(t, err)
	assert.Empty(t, applied.RulesForCategory(types.CategoryNaming), "disabled rules are filtered")
}

func TestPayloadHelpers(t *testing.T) {
	rule := &Rule{Payload: map[string]interface{}{
		"prefix": "idx_",
		"list":   []interface{}{"a", "b"},
	}}
	assert.Equal(t, "idx_", rule.StringPayload("prefix", ""))
	assert.Equal(t, "def", rule.StringPayload("missing", "def"))
	assert.Equal(t, []string{"a", "b"}, rule.ListPayload("list", nil))
	assert.Nil(t, rule.ListPayload("missing", nil))

	var empty Rule
	assert.Equal(t, "def", empty.StringPayload("any", "def"))
}

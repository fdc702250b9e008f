package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRLSDisabled(t *testing.T) {
	t.Run("public table without rls", func(t *testing.T) {
		diags := runRule(t, "rls.disabled", "CREATE TABLE users (id INT PRIMARY KEY);")
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Fix, "ENABLE ROW LEVEL SECURITY")
	})

	t.Run("enabled is clean", func(t *testing.T) {
		sql := `CREATE TABLE users (id INT PRIMARY KEY);
ALTER TABLE users ENABLE ROW LEVEL SECURITY;`
		diags := runRule(t, "rls.disabled", sql)
		assert.Empty(t, diags)
	})

	t.Run("non-public schema is not judged", func(t *testing.T) {
		diags := runRule(t, "rls.disabled", "CREATE TABLE internal.jobs (id INT PRIMARY KEY);")
		assert.Empty(t, diags)
	})

	t.Run("disable after enable is flagged", func(t *testing.T) {
		sql := `CREATE TABLE users (id INT PRIMARY KEY);
ALTER TABLE users ENABLE ROW LEVEL SECURITY;
ALTER TABLE users DISABLE ROW LEVEL SECURITY;`
		diags := runRule(t, "rls.disabled", sql)
		require.Len(t, diags, 1)
	})
}

func TestRLSNoPolicy(t *testing.T) {
	t.Run("enabled without policy", func(t *testing.T) {
		sql := `CREATE TABLE users (id INT PRIMARY KEY);
ALTER TABLE users ENABLE ROW LEVEL SECURITY;`
		diags := runRule(t, "rls.enabled-no-policy", sql)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "no policy")
	})

	t.Run("with policy", func(t *testing.T) {
		sql := `CREATE TABLE users (id INT PRIMARY KEY);
ALTER TABLE users ENABLE ROW LEVEL SECURITY;
CREATE POLICY users_all ON users USING (true);`
		diags := runRule(t, "rls.enabled-no-policy", sql)
		assert.Empty(t, diags)
	})
}

func TestPolicyNoRoles(t *testing.T) {
	sql := `CREATE TABLE notes (id INT PRIMARY KEY);
CREATE POLICY p1 ON notes FOR SELECT USING (true);
CREATE POLICY p2 ON notes FOR SELECT TO authenticated USING (true);`
	diags := runRule(t, "rls.policy-no-roles", sql)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `"p1"`)
	assert.Contains(t, diags[0].Message, "PUBLIC")
}

func TestWritePolicyNoCheck(t *testing.T) {
	t.Run("insert without with check", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR INSERT USING (true);`
		diags := runRule(t, "rls.write-policy-no-check", sql)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "INSERT")
	})

	t.Run("update with with check", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR UPDATE USING (true) WITH CHECK (owner_id = auth.uid());`
		diags := runRule(t, "rls.write-policy-no-check", sql)
		assert.Empty(t, diags)
	})

	t.Run("all policy reuses using and is not flagged", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR ALL USING (owner_id = auth.uid());`
		diags := runRule(t, "rls.write-policy-no-check", sql)
		assert.Empty(t, diags)
	})

	t.Run("select policy is not a write", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY);
CREATE POLICY p ON notes FOR SELECT USING (true);`
		diags := runRule(t, "rls.write-policy-no-check", sql)
		assert.Empty(t, diags)
	})
}

func TestUnwrappedFunctionCall(t *testing.T) {
	t.Run("bare call", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR SELECT USING (owner_id = auth.uid());`
		diags := runRule(t, "rls.unwrapped-function-call", sql)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Fix, "(SELECT auth.uid())")
	})

	t.Run("wrapped call is clean", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR SELECT USING (owner_id = (SELECT auth.uid()));`
		diags := runRule(t, "rls.unwrapped-function-call", sql)
		assert.Empty(t, diags)
	})
}

func TestMultipleSubselects(t *testing.T) {
	t.Run("two subselects in one expression", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID, team_id UUID);
CREATE POLICY p ON notes FOR SELECT
  USING (owner_id = (SELECT auth.uid()) OR team_id IN (SELECT team_id FROM members));`
		diags := runRule(t, "rls.multiple-subselects", sql)
		require.Len(t, diags, 1)
	})

	t.Run("one subselect is fine", func(t *testing.T) {
		sql := `CREATE TABLE notes (id INT PRIMARY KEY, owner_id UUID);
CREATE POLICY p ON notes FOR SELECT USING (owner_id = (SELECT auth.uid()));`
		diags := runRule(t, "rls.multiple-subselects", sql)
		assert.Empty(t, diags)
	})
}

func TestPolicyDanglingTable(t *testing.T) {
	sql := `CREATE POLICY p ON ghosts FOR SELECT USING (true);`
	diags := runRule(t, "rls.policy-dangling-table", sql)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `"public.ghosts"`)
}

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeyIndex(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		sql := `CREATE TABLE users (id UUID PRIMARY KEY);
CREATE TABLE posts (id BIGINT PRIMARY KEY, user_id UUID REFERENCES users (id));`
		diags := runRule(t, "indexes.fk-column-missing-index", sql)
		require.Len(t, diags, 1)
		assert.Equal(t, "user_id", diags[0].Column)
		assert.Contains(t, diags[0].Fix, "CREATE INDEX")
	})

	t.Run("explicit index removes the finding", func(t *testing.T) {
		sql := `CREATE TABLE users (id UUID PRIMARY KEY);
CREATE TABLE posts (id BIGINT PRIMARY KEY, user_id UUID REFERENCES users (id));
CREATE INDEX idx_posts_user_id ON posts (user_id);`
		diags := runRule(t, "indexes.fk-column-missing-index", sql)
		assert.Empty(t, diags)
	})

	t.Run("leading column of a composite index covers", func(t *testing.T) {
		sql := `CREATE TABLE posts (id BIGINT PRIMARY KEY, user_id UUID REFERENCES users (id));
CREATE INDEX idx_posts_user_created ON posts (user_id, id);`
		diags := runRule(t, "indexes.fk-column-missing-index", sql)
		assert.Empty(t, diags)
	})

	t.Run("trailing column of a composite index does not cover", func(t *testing.T) {
		sql := `CREATE TABLE posts (id BIGINT PRIMARY KEY, user_id UUID REFERENCES users (id));
CREATE INDEX idx_posts_created_user ON posts (id, user_id);`
		diags := runRule(t, "indexes.fk-column-missing-index", sql)
		require.Len(t, diags, 1)
	})

	t.Run("unique column constraint covers", func(t *testing.T) {
		sql := `CREATE TABLE posts (id BIGINT PRIMARY KEY, user_id UUID UNIQUE REFERENCES users (id));`
		diags := runRule(t, "indexes.fk-column-missing-index", sql)
		assert.Empty(t, diags)
	})
}

func TestPolicyColumnIndex(t *testing.T) {
	t.Run("predicate column without index", func(t *testing.T) {
		sql := `CREATE TABLE notes (id BIGINT PRIMARY KEY, owner_id UUID);
ALTER TABLE notes ENABLE ROW LEVEL SECURITY;
CREATE POLICY notes_select ON notes FOR SELECT USING (owner_id = auth.uid());`
		diags := runRule(t, "indexes.policy-column-missing-index", sql)
		require.Len(t, diags, 1)
		assert.Equal(t, "owner_id", diags[0].Column)
	})

	t.Run("indexed predicate column is clean", func(t *testing.T) {
		sql := `CREATE TABLE notes (id BIGINT PRIMARY KEY, owner_id UUID);
CREATE INDEX idx_notes_owner ON notes (owner_id);
CREATE POLICY notes_select ON notes FOR SELECT USING (owner_id = auth.uid());`
		diags := runRule(t, "indexes.policy-column-missing-index", sql)
		assert.Empty(t, diags)
	})

	t.Run("column is reported once across policies", func(t *testing.T) {
		sql := `CREATE TABLE notes (id BIGINT PRIMARY KEY, owner_id UUID);
CREATE POLICY p1 ON notes FOR SELECT USING (owner_id = auth.uid());
CREATE POLICY p2 ON notes FOR DELETE USING (owner_id = auth.uid());`
		diags := runRule(t, "indexes.policy-column-missing-index", sql)
		require.Len(t, diags, 1)
	})
}

func TestDuplicateIndex(t *testing.T) {
	t.Run("exact duplicate flags the later one only", func(t *testing.T) {
		sql := `CREATE TABLE t (id INT PRIMARY KEY, a INT);
CREATE INDEX idx_t_a ON t (a);
CREATE UNIQUE INDEX uidx_t_a ON t (a);`
		diags := runRule(t, "indexes.duplicate", sql)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, `"uidx_t_a"`)
		assert.Equal(t, 3, diags[0].Line)
	})

	t.Run("different column order is not a duplicate", func(t *testing.T) {
		sql := `CREATE TABLE t (id INT PRIMARY KEY, a INT, b INT);
CREATE INDEX idx_t_ab ON t (a, b);
CREATE INDEX idx_t_ba ON t (b, a);`
		diags := runRule(t, "indexes.duplicate", sql)
		assert.Empty(t, diags)
	})

	t.Run("partial predicate distinguishes", func(t *testing.T) {
		sql := `CREATE TABLE t (id INT PRIMARY KEY, a INT);
CREATE INDEX idx_t_a ON t (a);
CREATE INDEX idx_t_a_live ON t (a) WHERE a IS NOT NULL;`
		diags := runRule(t, "indexes.duplicate", sql)
		assert.Empty(t, diags)
	})
}

func TestJSONBIndexMethod(t *testing.T) {
	t.Run("btree on jsonb", func(t *testing.T) {
		sql := `CREATE TABLE docs (id INT PRIMARY KEY, body JSONB);
CREATE INDEX idx_docs_body ON docs (body);`
		diags := runRule(t, "indexes.jsonb-not-gin", sql)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "btree")
	})

	t.Run("gin is clean", func(t *testing.T) {
		sql := `CREATE TABLE docs (id INT PRIMARY KEY, body JSONB);
CREATE INDEX idx_docs_body ON docs USING gin (body);`
		diags := runRule(t, "indexes.jsonb-not-gin", sql)
		assert.Empty(t, diags)
	})

	t.Run("expression index on jsonb is out of scope", func(t *testing.T) {
		sql := `CREATE TABLE docs (id INT PRIMARY KEY, body JSONB);
CREATE INDEX idx_docs_kind ON docs ((body ->> 'kind'));`
		diags := runRule(t, "indexes.jsonb-not-gin", sql)
		assert.Empty(t, diags)
	})
}

func TestIndexDanglingTable(t *testing.T) {
	sql := `CREATE INDEX idx_ghosts_a ON ghosts (a);`
	diags := runRule(t, "indexes.dangling-table", sql)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, `"public.ghosts"`)
}

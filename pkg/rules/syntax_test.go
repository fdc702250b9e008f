package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingSemicolon(t *testing.T) {
	t.Run("terminated statements are clean", func(t *testing.T) {
		diags := runRule(t, "syntax.missing-semicolon", "CREATE TABLE a (id INT);")
		assert.Empty(t, diags)
	})

	t.Run("unterminated trailing statement", func(t *testing.T) {
		diags := runRule(t, "syntax.missing-semicolon", "CREATE TABLE a (id INT)")
		require.Len(t, diags, 1)
		assert.Equal(t, 1, diags[0].Line)
	})

	t.Run("merged statements", func(t *testing.T) {
		sql := "CREATE TABLE a (id INT)\nCREATE TABLE b (id INT);"
		diags := runRule(t, "syntax.missing-semicolon", sql)
		require.NotEmpty(t, diags)
		assert.Equal(t, 2, diags[0].Line, "reported at the embedded statement start")
	})

	t.Run("GRANT CREATE is not a merged statement", func(t *testing.T) {
		diags := runRule(t, "syntax.missing-semicolon", "GRANT CREATE ON SCHEMA public TO app;")
		assert.Empty(t, diags)
	})
}

func TestDeprecatedType(t *testing.T) {
	sql := `CREATE TABLE products (
  id SERIAL PRIMARY KEY,
  price MONEY,
  name TEXT
);`
	diags := runRule(t, "syntax.deprecated-type", sql)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "SERIAL")
	assert.Contains(t, diags[1].Message, "MONEY")
	assert.Equal(t, "use NUMERIC instead", diags[1].Fix)
}

func TestUUIDPrimaryKeyDefault(t *testing.T) {
	t.Run("missing default", func(t *testing.T) {
		diags := runRule(t, "syntax.uuid-pk-no-default", "CREATE TABLE t (id UUID PRIMARY KEY);")
		require.Len(t, diags, 1)
		assert.Equal(t, "add DEFAULT gen_random_uuid()", diags[0].Fix)
	})

	t.Run("default present", func(t *testing.T) {
		diags := runRule(t, "syntax.uuid-pk-no-default", "CREATE TABLE t (id UUID PRIMARY KEY DEFAULT gen_random_uuid());")
		assert.Empty(t, diags)
	})

	t.Run("non-key uuid column is fine", func(t *testing.T) {
		diags := runRule(t, "syntax.uuid-pk-no-default", "CREATE TABLE t (id BIGINT PRIMARY KEY, ref UUID);")
		assert.Empty(t, diags)
	})
}

func TestReservedKeyword(t *testing.T) {
	sql := `CREATE TABLE "user" (
  id INT PRIMARY KEY,
  "order" INT
);`
	diags := runRule(t, "syntax.reserved-keyword", sql)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, `"user"`)
	assert.Equal(t, "order", diags[1].Column)
}

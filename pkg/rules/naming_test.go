package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoUppercase(t *testing.T) {
	sql := `CREATE TABLE "Users" (
  id INT PRIMARY KEY,
  "Email" TEXT,
  name TEXT
);`
	diags := runRule(t, "naming.no-uppercase", sql)
	require.Len(t, diags, 2)
	assert.Equal(t, "Users", diags[0].Table)
	assert.Equal(t, "rename to users", diags[0].Fix)
	assert.Equal(t, "Email", diags[1].Column)
}

func TestTablePlural(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"plural", "CREATE TABLE users (id INT PRIMARY KEY);", 0},
		{"singular", "CREATE TABLE account (id INT PRIMARY KEY);", 1},
		{"last word judged", "CREATE TABLE user_account (id INT PRIMARY KEY);", 1},
		{"last word plural", "CREATE TABLE account_users (id INT PRIMARY KEY);", 0},
		{"irregular plural", "CREATE TABLE people (id INT PRIMARY KEY);", 0},
		{"double s is not plural", "CREATE TABLE address (id INT PRIMARY KEY);", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := runRule(t, "naming.table-plural", tt.sql)
			assert.Len(t, diags, tt.want)
		})
	}
}

func TestConstraintPrefix(t *testing.T) {
	sql := `CREATE TABLE orders (
  id INT CONSTRAINT pk_orders PRIMARY KEY,
  email TEXT CONSTRAINT orders_email_key UNIQUE,
  total INT CHECK (total >= 0)
);`
	diags := runRule(t, "naming.constraint-prefix", sql)
	require.Len(t, diags, 2)

	assert.Contains(t, diags[0].Message, `"orders_email_key"`)
	assert.Contains(t, diags[0].Message, `"uq_"`)
	assert.Contains(t, diags[1].Message, "unnamed check constraint")
}

func TestIndexPrefix(t *testing.T) {
	sql := `CREATE TABLE events (id INT PRIMARY KEY, kind TEXT);
CREATE INDEX idx_events_kind ON events (kind);
CREATE UNIQUE INDEX uidx_events_id ON events (id);
CREATE INDEX events_kind ON events (kind);
CREATE INDEX ON events (kind);`
	diags := runRule(t, "naming.index-prefix", sql)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, `"events_kind"`)
	assert.Contains(t, diags[1].Message, "unnamed index")
}

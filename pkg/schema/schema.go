// Package schema models PostgreSQL DDL as an immutable schema and extracts
// that model from raw DDL text.
//
// Extraction is deliberately best-effort: statements the extractor cannot
// classify become info-level "unparsed statement" diagnostics instead of
// failing the run, and statements referring to tables that have not been
// created yet attach to lazily created placeholder tables.
package schema

import (
	"fmt"
	"strings"
)

// ConstraintKind identifies the kind of a table constraint.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
)

// OnDeleteAction is the referential action of a foreign key.
type OnDeleteAction string

const (
	OnDeleteUnspecified OnDeleteAction = "none_specified"
	OnDeleteCascade     OnDeleteAction = "cascade"
	OnDeleteRestrict    OnDeleteAction = "restrict"
	OnDeleteSetNull     OnDeleteAction = "set_null"
	OnDeleteSetDefault  OnDeleteAction = "set_default"
	OnDeleteNoAction    OnDeleteAction = "no_action"
)

// PolicyCommand is the command a row-level-security policy applies to.
type PolicyCommand string

const (
	PolicySelect PolicyCommand = "select"
	PolicyInsert PolicyCommand = "insert"
	PolicyUpdate PolicyCommand = "update"
	PolicyDelete PolicyCommand = "delete"
	PolicyAll    PolicyCommand = "all"
)

// StatementKind classifies a top-level DDL statement.
type StatementKind string

const (
	StatementCreateTable  StatementKind = "create_table"
	StatementAlterTable   StatementKind = "alter_table"
	StatementCreateIndex  StatementKind = "create_index"
	StatementCreatePolicy StatementKind = "create_policy"
	StatementIgnored      StatementKind = "ignored"
	StatementUnparsed     StatementKind = "unparsed"
)

// Statement is the raw record of one top-level statement, kept for line
// accounting and the syntax validator's semicolon heuristics.
type Statement struct {
	Kind       StatementKind
	File       string
	Line       int
	Text       string // comment-stripped statement text, without the semicolon
	Terminated bool
}

// Schema is the immutable result of extracting one or more DDL sources.
// Tables are kept in first-mention order.
type Schema struct {
	tables     map[string]*Table
	order      []string
	Statements []*Statement
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]*Table)}
}

// Table looks up a table by name. The name may be schema-qualified; an
// unqualified name resolves against the public schema. Lookup is
// case-insensitive, matching PostgreSQL's folding of unquoted identifiers.
func (s *Schema) Table(name string) *Table {
	return s.tables[tableKey(name)]
}

// Tables returns all tables in first-mention order, placeholders included.
func (s *Schema) Tables() []*Table {
	tables := make([]*Table, 0, len(s.order))
	for _, key := range s.order {
		tables = append(tables, s.tables[key])
	}
	return tables
}

// ensureTable returns the table with the given qualified name, creating a
// placeholder entry if it has not been mentioned before.
func (s *Schema) ensureTable(schemaName, name, file string, line int) *Table {
	key := qualifiedKey(schemaName, name)
	if t, ok := s.tables[key]; ok {
		return t
	}
	t := &Table{
		Schema: schemaName,
		Name:   name,
		File:   file,
		Line:   line,
	}
	s.tables[key] = t
	s.order = append(s.order, key)
	return t
}

func tableKey(name string) string {
	schemaName := ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		schemaName, name = name[:i], name[i+1:]
	}
	return qualifiedKey(schemaName, name)
}

func qualifiedKey(schemaName, name string) string {
	if schemaName == "" {
		schemaName = "public"
	}
	return strings.ToLower(schemaName) + "." + strings.ToLower(name)
}

// Table is one table with everything attached to it. Defined is false for
// placeholder tables created by ALTER/INDEX/POLICY statements that precede
// (or never meet) their CREATE TABLE.
type Table struct {
	Schema string // schema qualifier as written, "" for unqualified
	Name   string // table name as written
	File   string
	Line   int

	Defined    bool
	RLSEnabled bool

	Columns     []*Column
	Constraints []*Constraint
	Indexes     []*Index
	Policies    []*Policy
}

// SchemaName returns the effective schema of the table, defaulting to public.
func (t *Table) SchemaName() string {
	if t.Schema == "" {
		return "public"
	}
	return strings.ToLower(t.Schema)
}

// QualifiedName returns the table name with its effective schema qualifier.
func (t *Table) QualifiedName() string {
	return t.SchemaName() + "." + t.Name
}

// Column looks up a column by name, case-insensitively.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// PrimaryKeys returns all primary-key constraints on the table.
func (t *Table) PrimaryKeys() []*Constraint {
	return t.constraintsOfKind(ConstraintPrimaryKey)
}

// ForeignKeys returns all foreign-key constraints on the table.
func (t *Table) ForeignKeys() []*Constraint {
	return t.constraintsOfKind(ConstraintForeignKey)
}

// UniqueConstraints returns all unique constraints on the table.
func (t *Table) UniqueConstraints() []*Constraint {
	return t.constraintsOfKind(ConstraintUnique)
}

// CheckConstraints returns all check constraints on the table.
func (t *Table) CheckConstraints() []*Constraint {
	return t.constraintsOfKind(ConstraintCheck)
}

func (t *Table) constraintsOfKind(kind ConstraintKind) []*Constraint {
	var result []*Constraint
	for _, c := range t.Constraints {
		if c.Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// addConstraint attaches a constraint, assigning a synthetic name when the
// DDL did not give one. Synthetic names stay distinguishable through the
// UserNamed flag so the naming validator can report "unnamed" separately
// from "misnamed".
func (t *Table) addConstraint(c *Constraint) {
	if c.Name == "" {
		c.Name = fmt.Sprintf("%s_%s_%d", strings.ToLower(t.Name), c.Kind, len(t.Constraints)+1)
		c.UserNamed = false
	}
	t.Constraints = append(t.Constraints, c)
	if c.Kind == ConstraintPrimaryKey {
		for _, name := range c.Columns {
			if col := t.Column(name); col != nil {
				col.Nullable = false
			}
		}
	}
}

// Column is one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string // default expression, "" if none
	Ordinal  int
	Line     int
}

// IsPrimaryKey reports whether the column is part of any primary key of t.
func (c *Column) IsPrimaryKey(t *Table) bool {
	for _, pk := range t.PrimaryKeys() {
		for _, name := range pk.Columns {
			if strings.EqualFold(name, c.Name) {
				return true
			}
		}
	}
	return false
}

// Reference is the target of a foreign-key constraint.
type Reference struct {
	Table    string // possibly schema-qualified, as written
	Columns  []string
	OnDelete OnDeleteAction
}

// Constraint is a table constraint of any kind. Name is always populated;
// UserNamed distinguishes a real name from a synthetic one.
type Constraint struct {
	Kind       ConstraintKind
	Name       string
	UserNamed  bool
	Columns    []string
	Expression string     // check expression, "" otherwise
	References *Reference // foreign keys only
	File       string
	Line       int
}

// IndexElem is one entry of an index column list: either a plain column or
// an arbitrary expression.
type IndexElem struct {
	Raw    string
	Column string // "" when the element is an expression
}

// IsExpression reports whether the element is an expression rather than a
// plain column reference.
func (e IndexElem) IsExpression() bool {
	return e.Column == ""
}

// Index is one index on a table.
type Index struct {
	Name      string
	UserNamed bool
	Elems     []IndexElem
	Using     string // access method, btree by default
	Unique    bool
	Predicate string // partial-index WHERE predicate, "" if none
	File      string
	Line      int
}

// Covers reports whether the index has the given column as its sole or
// leading element.
func (i *Index) Covers(column string) bool {
	return len(i.Elems) > 0 && strings.EqualFold(i.Elems[0].Column, column)
}

// signature is the identity used for duplicate detection: ordered column and
// expression list plus the partial predicate.
func (i *Index) signature() string {
	parts := make([]string, 0, len(i.Elems)+1)
	for _, e := range i.Elems {
		if e.IsExpression() {
			parts = append(parts, strings.ToLower(e.Raw))
		} else {
			parts = append(parts, strings.ToLower(e.Column))
		}
	}
	parts = append(parts, strings.ToLower(strings.Join(strings.Fields(i.Predicate), " ")))
	return strings.Join(parts, ",")
}

// Duplicates reports whether two indexes on the same table are redundant
// with each other.
func (i *Index) Duplicates(other *Index) bool {
	return i.signature() == other.signature()
}

// Policy is one row-level-security policy.
type Policy struct {
	Name        string
	Command     PolicyCommand
	Roles       []string // empty means the TO clause was omitted
	Using       string
	WithCheck   string
	Restrictive bool
	File        string
	Line        int
}

// IsWrite reports whether the policy guards row creation or mutation.
func (p *Policy) IsWrite() bool {
	return p.Command == PolicyInsert || p.Command == PolicyUpdate
}

// Expressions returns the non-empty predicate expressions of the policy.
func (p *Policy) Expressions() []string {
	var exprs []string
	if p.Using != "" {
		exprs = append(exprs, p.Using)
	}
	if p.WithCheck != "" {
		exprs = append(exprs, p.WithCheck)
	}
	return exprs
}

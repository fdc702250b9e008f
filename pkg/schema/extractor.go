package schema

import (
	"fmt"
	"strings"

	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// UnparsedStatementRuleID is the rule id attached to "unparsed statement"
// diagnostics emitted during extraction. The rule itself lives in the
// catalog so overrides can retune or disable it.
const UnparsedStatementRuleID = "syntax.unparsed-statement"

// Source is one named DDL text block.
type Source struct {
	Name string
	SQL  string
}

// Result is the outcome of extraction: the schema model plus the info-level
// notices produced for statements the extractor could not classify.
type Result struct {
	Schema      *Schema
	Diagnostics []*types.Diagnostic
}

// Extract builds a Schema from one or more DDL sources. It never fails;
// malformed input degrades to unparsed-statement diagnostics.
func Extract(sources ...Source) *Result {
	e := &extractor{schema: NewSchema()}
	for _, src := range sources {
		e.source(src)
	}
	return &Result{Schema: e.schema, Diagnostics: e.diags}
}

type extractor struct {
	schema *Schema
	diags  []*types.Diagnostic
}

func (e *extractor) source(src Source) {
	for _, stmt := range splitStatements(src.SQL) {
		e.statement(src.Name, stmt)
	}
}

func (e *extractor) statement(file string, stmt rawStatement) {
	toks := tokenize(stmt.Text, stmt.Line)
	if len(toks) == 0 {
		return
	}

	kind, err := e.classify(file, stmt, toks)
	if err != nil {
		kind = StatementUnparsed
		e.unparsed(file, stmt, err)
	}

	e.schema.Statements = append(e.schema.Statements, &Statement{
		Kind:       kind,
		File:       file,
		Line:       stmt.Line,
		Text:       stmt.Text,
		Terminated: stmt.Terminated,
	})
}

// classify dispatches a statement by its leading keyword sequence.
func (e *extractor) classify(file string, stmt rawStatement, toks []token) (StatementKind, error) {
	p := &parser{src: stmt.Text, toks: toks}

	switch {
	case p.peek().keyword("CREATE"):
		return e.classifyCreate(file, stmt, p)
	case p.peek().keyword("ALTER"):
		if p.at(1).keyword("TABLE") {
			return StatementAlterTable, e.parseAlterTable(file, stmt, p)
		}
		return StatementIgnored, nil
	case isIgnoredStart(p.peek()):
		return StatementIgnored, nil
	default:
		return StatementUnparsed, fmt.Errorf("unrecognized statement start %q", p.peek().Text)
	}
}

func (e *extractor) classifyCreate(file string, stmt rawStatement, p *parser) (StatementKind, error) {
	// Look past CREATE and its modifiers for the object keyword.
	for i := 1; i < len(p.toks) && i < 6; i++ {
		tok := p.at(i)
		switch {
		case tok.keyword("TABLE"):
			return StatementCreateTable, e.parseCreateTable(file, stmt, p)
		case tok.keyword("INDEX"):
			return StatementCreateIndex, e.parseCreateIndex(file, stmt, p)
		case tok.keyword("POLICY"):
			return StatementCreatePolicy, e.parseCreatePolicy(file, stmt, p)
		case isIgnoredCreateObject(tok):
			return StatementIgnored, nil
		}
	}
	return StatementUnparsed, fmt.Errorf("unrecognized CREATE statement")
}

func (e *extractor) unparsed(file string, stmt rawStatement, err error) {
	e.diags = append(e.diags, &types.Diagnostic{
		Severity: types.Severity_INFO,
		RuleID:   UnparsedStatementRuleID,
		Category: types.CategorySyntax,
		Message:  fmt.Sprintf("statement could not be classified (%v); skipped", err),
		File:     file,
		Line:     stmt.Line,
	})
}

// ----- CREATE TABLE -----

func (e *extractor) parseCreateTable(file string, stmt rawStatement, p *parser) error {
	p.next() // CREATE
	for !p.done() && !p.peek().keyword("TABLE") {
		p.next() // TEMP, UNLOGGED, ...
	}
	if !p.accept("TABLE") {
		return fmt.Errorf("expected TABLE")
	}
	p.acceptSeq("IF", "NOT", "EXISTS")

	schemaName, name, ok := p.qualifiedName()
	if !ok {
		return fmt.Errorf("expected table name")
	}

	t := e.schema.ensureTable(schemaName, name, file, stmt.Line)
	t.Defined = true
	t.File, t.Line = file, stmt.Line
	t.Schema, t.Name = schemaName, name // definition spelling wins over placeholder

	body, ok := p.parenGroup()
	if !ok {
		return fmt.Errorf("expected column list")
	}

	for _, elem := range splitTopLevel(body, ",") {
		if len(elem) == 0 {
			continue
		}
		if isTableConstraintStart(elem[0]) {
			if c := parseTableConstraint(p.src, elem, file); c != nil {
				t.addConstraint(c)
			}
			continue
		}
		e.parseColumnDef(p.src, elem, t, file)
	}
	return nil
}

func isTableConstraintStart(tok token) bool {
	return tok.keyword("CONSTRAINT") || tok.keyword("PRIMARY") || tok.keyword("FOREIGN") ||
		tok.keyword("UNIQUE") || tok.keyword("CHECK") || tok.keyword("EXCLUDE") || tok.keyword("LIKE")
}

// parseColumnDef interprets one column element of a CREATE TABLE body.
// Elements it cannot make sense of are skipped; extraction stays total.
func (e *extractor) parseColumnDef(src string, ts []token, t *Table, file string) {
	if !ts[0].isIdent() {
		return
	}
	col := &Column{
		Name:     ts[0].Text,
		Nullable: true,
		Ordinal:  len(t.Columns) + 1,
		Line:     ts[0].Line,
	}

	// Declared type: everything up to the first constraint keyword.
	i, depth := 1, 0
	typeStart := i
	for i < len(ts) {
		tok := ts[i]
		if depth == 0 && isColumnConstraintKeyword(tok) {
			break
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		i++
	}
	if i > typeStart {
		col.Type = strings.TrimSpace(src[ts[typeStart].Start:ts[i-1].End])
	}
	t.Columns = append(t.Columns, col)

	pending := ""
	takeName := func() (string, bool) {
		name, named := pending, pending != ""
		pending = ""
		return name, named
	}

	for i < len(ts) {
		tok := ts[i]
		switch {
		case tok.keyword("CONSTRAINT"):
			i++
			if i < len(ts) && ts[i].isIdent() {
				pending = ts[i].Text
				i++
			}

		case tok.keyword("PRIMARY"):
			i++
			if i < len(ts) && ts[i].keyword("KEY") {
				i++
			}
			name, named := takeName()
			t.addConstraint(&Constraint{
				Kind: ConstraintPrimaryKey, Name: name, UserNamed: named,
				Columns: []string{col.Name}, File: file, Line: tok.Line,
			})
			col.Nullable = false

		case tok.keyword("NOT"):
			i++
			if i < len(ts) && ts[i].keyword("NULL") {
				col.Nullable = false
				i++
			}

		case tok.keyword("NULL"):
			col.Nullable = true
			i++

		case tok.keyword("DEFAULT"):
			i++
			start := i
			exprDepth := 0
			for i < len(ts) {
				if exprDepth == 0 && i > start && isColumnConstraintKeyword(ts[i]) && !ts[i].keyword("NULL") {
					break
				}
				switch ts[i].Text {
				case "(":
					exprDepth++
				case ")":
					exprDepth--
				}
				i++
			}
			if i > start {
				col.Default = strings.TrimSpace(src[ts[start].Start:ts[i-1].End])
			}

		case tok.keyword("REFERENCES"):
			ref := parseReference(ts, &i)
			if ref == nil {
				i++
				continue
			}
			name, named := takeName()
			t.addConstraint(&Constraint{
				Kind: ConstraintForeignKey, Name: name, UserNamed: named,
				Columns: []string{col.Name}, References: ref, File: file, Line: tok.Line,
			})

		case tok.keyword("UNIQUE"):
			i++
			name, named := takeName()
			t.addConstraint(&Constraint{
				Kind: ConstraintUnique, Name: name, UserNamed: named,
				Columns: []string{col.Name}, File: file, Line: tok.Line,
			})

		case tok.keyword("CHECK"):
			i++
			expr, ok := parenText(src, ts, &i)
			if !ok {
				continue
			}
			name, named := takeName()
			t.addConstraint(&Constraint{
				Kind: ConstraintCheck, Name: name, UserNamed: named,
				Columns: []string{col.Name}, Expression: expr, File: file, Line: tok.Line,
			})

		default:
			// COLLATE, GENERATED, storage options: out of model.
			i++
		}
	}
}

func isColumnConstraintKeyword(tok token) bool {
	for _, kw := range []string{"CONSTRAINT", "PRIMARY", "NOT", "NULL", "DEFAULT", "REFERENCES", "UNIQUE", "CHECK", "GENERATED"} {
		if tok.keyword(kw) {
			return true
		}
	}
	return false
}

// parseTableConstraint interprets a table-level constraint element. Returns
// nil for constructs out of model (EXCLUDE, LIKE).
func parseTableConstraint(src string, ts []token, file string) *Constraint {
	i := 0
	name := ""
	named := false
	if ts[i].keyword("CONSTRAINT") {
		i++
		if i >= len(ts) || !ts[i].isIdent() {
			return nil
		}
		name = ts[i].Text
		named = true
		i++
	}
	if i >= len(ts) {
		return nil
	}

	line := ts[i].Line
	switch {
	case ts[i].keyword("PRIMARY"):
		i++
		if i < len(ts) && ts[i].keyword("KEY") {
			i++
		}
		cols, ok := parenColumnList(ts, &i)
		if !ok {
			return nil
		}
		return &Constraint{Kind: ConstraintPrimaryKey, Name: name, UserNamed: named, Columns: cols, File: file, Line: line}

	case ts[i].keyword("FOREIGN"):
		i++
		if i < len(ts) && ts[i].keyword("KEY") {
			i++
		}
		cols, ok := parenColumnList(ts, &i)
		if !ok {
			return nil
		}
		if i >= len(ts) || !ts[i].keyword("REFERENCES") {
			return nil
		}
		ref := parseReference(ts, &i)
		if ref == nil {
			return nil
		}
		return &Constraint{Kind: ConstraintForeignKey, Name: name, UserNamed: named, Columns: cols, References: ref, File: file, Line: line}

	case ts[i].keyword("UNIQUE"):
		i++
		cols, ok := parenColumnList(ts, &i)
		if !ok {
			return nil
		}
		return &Constraint{Kind: ConstraintUnique, Name: name, UserNamed: named, Columns: cols, File: file, Line: line}

	case ts[i].keyword("CHECK"):
		i++
		expr, ok := parenText(src, ts, &i)
		if !ok {
			return nil
		}
		return &Constraint{Kind: ConstraintCheck, Name: name, UserNamed: named, Expression: expr, File: file, Line: line}
	}
	return nil
}

// parseReference parses REFERENCES table [(cols)] with its trailing MATCH
// and ON DELETE / ON UPDATE options. i points at REFERENCES on entry and at
// the first unconsumed token on exit.
func parseReference(ts []token, i *int) *Reference {
	*i++ // REFERENCES
	if *i >= len(ts) || !ts[*i].isIdent() {
		return nil
	}
	target := ts[*i].Text
	*i++
	if *i+1 < len(ts) && ts[*i].Text == "." && ts[*i+1].isIdent() {
		target = target + "." + ts[*i+1].Text
		*i += 2
	}

	ref := &Reference{Table: target, OnDelete: OnDeleteUnspecified}
	if cols, ok := parenColumnList(ts, i); ok {
		ref.Columns = cols
	}

	for *i < len(ts) {
		switch {
		case ts[*i].keyword("MATCH"):
			*i += 2
		case ts[*i].keyword("ON") && *i+1 < len(ts) && ts[*i+1].keyword("DELETE"):
			*i += 2
			ref.OnDelete = parseAction(ts, i)
		case ts[*i].keyword("ON") && *i+1 < len(ts) && ts[*i+1].keyword("UPDATE"):
			*i += 2
			parseAction(ts, i)
		default:
			return ref
		}
	}
	return ref
}

func parseAction(ts []token, i *int) OnDeleteAction {
	if *i >= len(ts) {
		return OnDeleteUnspecified
	}
	tok := ts[*i]
	switch {
	case tok.keyword("CASCADE"):
		*i++
		return OnDeleteCascade
	case tok.keyword("RESTRICT"):
		*i++
		return OnDeleteRestrict
	case tok.keyword("SET"):
		*i++
		if *i < len(ts) && ts[*i].keyword("NULL") {
			*i++
			return OnDeleteSetNull
		}
		if *i < len(ts) && ts[*i].keyword("DEFAULT") {
			*i++
			return OnDeleteSetDefault
		}
		return OnDeleteUnspecified
	case tok.keyword("NO"):
		*i++
		if *i < len(ts) && ts[*i].keyword("ACTION") {
			*i++
		}
		return OnDeleteNoAction
	default:
		return OnDeleteUnspecified
	}
}

// ----- ALTER TABLE -----

func (e *extractor) parseAlterTable(file string, stmt rawStatement, p *parser) error {
	p.next() // ALTER
	p.next() // TABLE
	p.acceptSeq("IF", "EXISTS")
	p.accept("ONLY")

	schemaName, name, ok := p.qualifiedName()
	if !ok {
		return fmt.Errorf("expected table name")
	}
	t := e.schema.ensureTable(schemaName, name, file, stmt.Line)

	switch {
	case p.acceptSeq("ENABLE", "ROW", "LEVEL", "SECURITY"):
		t.RLSEnabled = true

	case p.acceptSeq("DISABLE", "ROW", "LEVEL", "SECURITY"):
		t.RLSEnabled = false

	case p.accept("ADD"):
		rest := p.rest()
		if len(rest) == 0 {
			return fmt.Errorf("empty ADD clause")
		}
		if isTableConstraintStart(rest[0]) {
			c := parseTableConstraint(p.src, rest, file)
			if c == nil {
				return fmt.Errorf("unparseable ADD CONSTRAINT clause")
			}
			t.addConstraint(c)
			return nil
		}
		// ADD [COLUMN] column_definition
		if rest[0].keyword("COLUMN") {
			rest = rest[1:]
		}
		if len(rest) == 0 || !rest[0].isIdent() {
			return fmt.Errorf("unparseable ADD COLUMN clause")
		}
		e.parseColumnDef(p.src, rest, t, file)

	default:
		// Other ALTER TABLE forms are recognized but out of model.
	}
	return nil
}

// ----- CREATE INDEX -----

func (e *extractor) parseCreateIndex(file string, stmt rawStatement, p *parser) error {
	p.next() // CREATE
	unique := p.accept("UNIQUE")
	if !p.accept("INDEX") {
		return fmt.Errorf("expected INDEX")
	}
	p.accept("CONCURRENTLY")
	p.acceptSeq("IF", "NOT", "EXISTS")

	name := ""
	userNamed := false
	if p.peek().isIdent() && !p.peek().keyword("ON") {
		name = p.next().Text
		userNamed = true
	}
	if !p.accept("ON") {
		return fmt.Errorf("expected ON")
	}
	p.accept("ONLY")

	schemaName, tableName, ok := p.qualifiedName()
	if !ok {
		return fmt.Errorf("expected table name")
	}
	t := e.schema.ensureTable(schemaName, tableName, file, stmt.Line)

	using := "btree"
	if p.accept("USING") {
		if !p.peek().isIdent() {
			return fmt.Errorf("expected index method after USING")
		}
		using = strings.ToLower(p.next().Text)
	}

	body, ok := p.parenGroup()
	if !ok {
		return fmt.Errorf("expected index column list")
	}

	idx := &Index{
		Name:      name,
		UserNamed: userNamed,
		Using:     using,
		Unique:    unique,
		File:      file,
		Line:      stmt.Line,
	}
	for _, elem := range splitTopLevel(body, ",") {
		if len(elem) == 0 {
			continue
		}
		idx.Elems = append(idx.Elems, parseIndexElem(p.src, elem))
	}

	for !p.done() {
		switch {
		case p.accept("INCLUDE"), p.accept("WITH"):
			p.parenGroup()
		case p.accept("TABLESPACE"):
			p.next()
		case p.accept("WHERE"):
			idx.Predicate = p.restText()
		default:
			p.next()
		}
	}

	if idx.Name == "" {
		idx.Name = fmt.Sprintf("%s_idx_%d", strings.ToLower(tableName), len(t.Indexes)+1)
	}
	t.Indexes = append(t.Indexes, idx)
	return nil
}

// parseIndexElem decides whether an index element is a plain column
// (optionally with ordering or an operator class) or an expression.
func parseIndexElem(src string, ts []token) IndexElem {
	raw := strings.TrimSpace(src[ts[0].Start:ts[len(ts)-1].End])
	if !ts[0].isIdent() {
		return IndexElem{Raw: raw}
	}
	for _, tok := range ts[1:] {
		if !tok.isIdent() {
			return IndexElem{Raw: raw}
		}
	}
	return IndexElem{Raw: raw, Column: ts[0].Text}
}

// ----- CREATE POLICY -----

func (e *extractor) parseCreatePolicy(file string, stmt rawStatement, p *parser) error {
	p.next() // CREATE
	if !p.accept("POLICY") {
		return fmt.Errorf("expected POLICY")
	}
	if !p.peek().isIdent() {
		return fmt.Errorf("expected policy name")
	}
	name := p.next().Text
	if !p.accept("ON") {
		return fmt.Errorf("expected ON")
	}
	schemaName, tableName, ok := p.qualifiedName()
	if !ok {
		return fmt.Errorf("expected table name")
	}
	t := e.schema.ensureTable(schemaName, tableName, file, stmt.Line)

	pol := &Policy{
		Name:    name,
		Command: PolicyAll,
		File:    file,
		Line:    stmt.Line,
	}

	for !p.done() {
		switch {
		case p.accept("AS"):
			if p.accept("RESTRICTIVE") {
				pol.Restrictive = true
			} else {
				p.accept("PERMISSIVE")
			}

		case p.accept("FOR"):
			if !p.peek().isIdent() {
				return fmt.Errorf("expected policy command after FOR")
			}
			cmd := PolicyCommand(strings.ToLower(p.next().Text))
			switch cmd {
			case PolicySelect, PolicyInsert, PolicyUpdate, PolicyDelete, PolicyAll:
				pol.Command = cmd
			default:
				return fmt.Errorf("unknown policy command %q", cmd)
			}

		case p.accept("TO"):
			for p.peek().isIdent() {
				pol.Roles = append(pol.Roles, p.next().Text)
				if !p.acceptOp(",") {
					break
				}
			}

		case p.accept("USING"):
			expr, ok := p.parenGroupText()
			if !ok {
				return fmt.Errorf("expected USING expression")
			}
			pol.Using = expr

		case p.accept("WITH"):
			if !p.accept("CHECK") {
				return fmt.Errorf("expected CHECK after WITH")
			}
			expr, ok := p.parenGroupText()
			if !ok {
				return fmt.Errorf("expected WITH CHECK expression")
			}
			pol.WithCheck = expr

		default:
			p.next()
		}
	}

	t.Policies = append(t.Policies, pol)
	return nil
}

// ----- classification tables -----

var ignoredStarts = map[string]bool{
	"GRANT": true, "REVOKE": true, "COMMENT": true, "DROP": true,
	"INSERT": true, "UPDATE": true, "DELETE": true, "SELECT": true,
	"SET": true, "RESET": true, "SHOW": true,
	"BEGIN": true, "START": true, "COMMIT": true, "END": true, "ROLLBACK": true, "SAVEPOINT": true,
	"TRUNCATE": true, "VACUUM": true, "ANALYZE": true, "ANALYSE": true,
	"DO": true, "COPY": true, "CALL": true,
	"LISTEN": true, "NOTIFY": true, "UNLISTEN": true,
	"REINDEX": true, "CLUSTER": true, "CHECKPOINT": true, "REFRESH": true,
	"EXPLAIN": true, "PREPARE": true, "EXECUTE": true, "DEALLOCATE": true, "DISCARD": true,
	"LOCK": true, "IMPORT": true, "SECURITY": true,
}

func isIgnoredStart(tok token) bool {
	return tok.isIdent() && !tok.Quoted && ignoredStarts[strings.ToUpper(tok.Text)]
}

var ignoredCreateObjects = map[string]bool{
	"EXTENSION": true, "FUNCTION": true, "PROCEDURE": true, "TRIGGER": true,
	"VIEW": true, "MATERIALIZED": true, "SCHEMA": true, "TYPE": true, "DOMAIN": true,
	"SEQUENCE": true, "ROLE": true, "USER": true, "GROUP": true, "RULE": true,
	"AGGREGATE": true, "OPERATOR": true, "CAST": true, "COLLATION": true,
	"PUBLICATION": true, "SUBSCRIPTION": true, "SERVER": true, "DATABASE": true,
	"TABLESPACE": true, "STATISTICS": true,
}

func isIgnoredCreateObject(tok token) bool {
	return tok.isIdent() && !tok.Quoted && ignoredCreateObjects[strings.ToUpper(tok.Text)]
}

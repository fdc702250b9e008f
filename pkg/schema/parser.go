package schema

import "strings"

// parser is a cursor over the token stream of a single statement.
type parser struct {
	src  string
	toks []token
	i    int
}

func (p *parser) done() bool {
	return p.i >= len(p.toks)
}

func (p *parser) peek() token {
	return p.at(0)
}

// at returns the token at the given offset from the cursor, or a zero token
// past the end.
func (p *parser) at(offset int) token {
	idx := p.i + offset
	if idx < 0 || idx >= len(p.toks) {
		return token{Kind: tokenOp}
	}
	return p.toks[idx]
}

func (p *parser) next() token {
	tok := p.peek()
	if !p.done() {
		p.i++
	}
	return tok
}

// accept consumes the next token if it is the given keyword.
func (p *parser) accept(kw string) bool {
	if p.peek().keyword(kw) {
		p.i++
		return true
	}
	return false
}

// acceptSeq consumes the given keyword sequence, all or nothing.
func (p *parser) acceptSeq(kws ...string) bool {
	for offset, kw := range kws {
		if !p.at(offset).keyword(kw) {
			return false
		}
	}
	p.i += len(kws)
	return true
}

// acceptOp consumes the next token if it is the given operator.
func (p *parser) acceptOp(op string) bool {
	if tok := p.peek(); tok.Kind == tokenOp && tok.Text == op {
		p.i++
		return true
	}
	return false
}

// qualifiedName consumes an identifier optionally qualified by a schema
// (schema.table). A three-part name keeps only the trailing two parts.
func (p *parser) qualifiedName() (schemaName, name string, ok bool) {
	if !p.peek().isIdent() {
		return "", "", false
	}
	parts := []string{p.next().Text}
	for p.acceptOp(".") {
		if !p.peek().isIdent() {
			break
		}
		parts = append(parts, p.next().Text)
	}
	if len(parts) == 1 {
		return "", parts[0], true
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

// parenGroup consumes a balanced parenthesized group and returns the inner
// tokens.
func (p *parser) parenGroup() ([]token, bool) {
	if !p.acceptOp("(") {
		return nil, false
	}
	start := p.i
	depth := 1
	for !p.done() {
		tok := p.next()
		if tok.Kind != tokenOp {
			continue
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return p.toks[start : p.i-1], true
			}
		}
	}
	// Unbalanced input: best effort, hand back what was there.
	return p.toks[start:], true
}

// parenGroupText consumes a parenthesized group and returns its source text.
func (p *parser) parenGroupText() (string, bool) {
	inner, ok := p.parenGroup()
	if !ok {
		return "", false
	}
	if len(inner) == 0 {
		return "", true
	}
	return strings.TrimSpace(p.src[inner[0].Start:inner[len(inner)-1].End]), true
}

// rest returns all remaining tokens and exhausts the cursor.
func (p *parser) rest() []token {
	rest := p.toks[p.i:]
	p.i = len(p.toks)
	return rest
}

// restText returns the source text of all remaining tokens.
func (p *parser) restText() string {
	rest := p.rest()
	if len(rest) == 0 {
		return ""
	}
	return strings.TrimSpace(p.src[rest[0].Start:rest[len(rest)-1].End])
}

// splitTopLevel splits a token slice on the given operator at parenthesis
// depth zero.
func splitTopLevel(ts []token, sep string) [][]token {
	var result [][]token
	depth := 0
	start := 0
	for i, tok := range ts {
		if tok.Kind != tokenOp {
			continue
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			depth--
		case sep:
			if depth == 0 {
				result = append(result, ts[start:i])
				start = i + 1
			}
		}
	}
	if start < len(ts) {
		result = append(result, ts[start:])
	}
	return result
}

// parenColumnList consumes "(a, b, c)" at position *i and returns the
// identifier names.
func parenColumnList(ts []token, i *int) ([]string, bool) {
	inner, ok := parenSlice(ts, i)
	if !ok {
		return nil, false
	}
	var cols []string
	for _, elem := range splitTopLevel(inner, ",") {
		if len(elem) > 0 && elem[0].isIdent() {
			cols = append(cols, elem[0].Text)
		}
	}
	return cols, true
}

// parenText consumes a parenthesized group at position *i and returns its
// source text.
func parenText(src string, ts []token, i *int) (string, bool) {
	inner, ok := parenSlice(ts, i)
	if !ok {
		return "", false
	}
	if len(inner) == 0 {
		return "", true
	}
	return strings.TrimSpace(src[inner[0].Start:inner[len(inner)-1].End]), true
}

// parenSlice consumes a balanced parenthesized group at position *i and
// returns the inner tokens.
func parenSlice(ts []token, i *int) ([]token, bool) {
	if *i >= len(ts) || ts[*i].Kind != tokenOp || ts[*i].Text != "(" {
		return nil, false
	}
	depth := 1
	start := *i + 1
	for j := start; j < len(ts); j++ {
		if ts[j].Kind != tokenOp {
			continue
		}
		switch ts[j].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				*i = j + 1
				return ts[start:j], true
			}
		}
	}
	*i = len(ts)
	return ts[start:], true
}

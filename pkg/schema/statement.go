package schema

import "strings"

// embeddedStartKeywords are keywords that only open a new top-level
// statement; meeting one mid-statement at parenthesis depth zero means the
// semicolon before it is missing.
var embeddedStartKeywords = map[string]bool{
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"GRANT":    true,
	"REVOKE":   true,
	"TRUNCATE": true,
}

// EmbeddedStarts returns the lines at which the body of this statement
// contains the start of another top-level statement, the heuristic the
// syntax validator uses for missing semicolons.
func (st *Statement) EmbeddedStarts() []int {
	toks := tokenize(st.Text, st.Line)
	var lines []int
	depth := 0
	for i, tok := range toks {
		if tok.Kind == tokenOp {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
			continue
		}
		if i == 0 || depth != 0 || tok.Kind != tokenWord || tok.Quoted {
			continue
		}
		if embeddedStartKeywords[strings.ToUpper(tok.Text)] {
			lines = append(lines, tok.Line)
		}
	}
	return lines
}

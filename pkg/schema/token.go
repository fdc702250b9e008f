package schema

import "strings"

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenNumber
	tokenOp
)

// token is one lexical element of a statement. Identifiers keep their
// written spelling; Text of a quoted identifier is the unwrapped content.
type token struct {
	Kind   tokenKind
	Text   string
	Quoted bool // double-quoted identifier
	Line   int  // absolute 1-based line
	Start  int  // byte offset into the statement text
	End    int  // exclusive
}

// keyword reports whether the token is the given unquoted keyword,
// case-insensitively.
func (t token) keyword(kw string) bool {
	return t.Kind == tokenWord && !t.Quoted && strings.EqualFold(t.Text, kw)
}

func (t token) isIdent() bool {
	return t.Kind == tokenWord
}

// tokenize scans a comment-stripped statement into a flat token list.
// baseLine is the absolute line of the statement's first character. The
// scanner never fails; bytes it does not understand become one-byte operator
// tokens.
func tokenize(text string, baseLine int) []token {
	var tokens []token
	line := baseLine
	i := 0
	n := len(text)

	for i < n {
		c := text[i]
		switch {
		case c == '\n':
			line++
			i++

		case c == ' ' || c == '\t' || c == '\r':
			i++

		case c == '"':
			start := i
			end := quotedEnd(text, i, '"')
			tokens = append(tokens, token{
				Kind:   tokenWord,
				Text:   unwrapQuoted(text[start:end], '"'),
				Quoted: true,
				Line:   line,
				Start:  start,
				End:    end,
			})
			line += strings.Count(text[start:end], "\n")
			i = end

		case c == '\'':
			start := i
			end := quotedEnd(text, i, '\'')
			tokens = append(tokens, token{
				Kind:  tokenString,
				Text:  text[start:end],
				Line:  line,
				Start: start,
				End:   end,
			})
			line += strings.Count(text[start:end], "\n")
			i = end

		case c == '$':
			if tag, ok := dollarTag(text[i:]); ok {
				start := i
				end := dollarEnd(text, i, tag)
				tokens = append(tokens, token{
					Kind:  tokenString,
					Text:  text[start:end],
					Line:  line,
					Start: start,
					End:   end,
				})
				line += strings.Count(text[start:end], "\n")
				i = end
			} else {
				tokens = append(tokens, token{Kind: tokenOp, Text: string(c), Line: line, Start: i, End: i + 1})
				i++
			}

		case isIdentChar(c) && !isDigit(c):
			start := i
			for i < n && isIdentChar(text[i]) {
				i++
			}
			tokens = append(tokens, token{
				Kind:  tokenWord,
				Text:  text[start:i],
				Line:  line,
				Start: start,
				End:   i,
			})

		case isDigit(c):
			start := i
			for i < n && (isDigit(text[i]) || text[i] == '.') {
				i++
			}
			tokens = append(tokens, token{
				Kind:  tokenNumber,
				Text:  text[start:i],
				Line:  line,
				Start: start,
				End:   i,
			})

		default:
			tokens = append(tokens, token{Kind: tokenOp, Text: string(c), Line: line, Start: i, End: i + 1})
			i++
		}
	}
	return tokens
}

// quotedEnd returns the exclusive end offset of the quoted region starting
// at i, honoring doubled-quote escapes.
func quotedEnd(text string, i int, quote byte) int {
	n := len(text)
	i++
	for i < n {
		if text[i] == quote {
			if i+1 < n && text[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

// dollarEnd returns the exclusive end offset of the dollar-quoted region
// starting at i.
func dollarEnd(text string, i int, tag string) int {
	n := len(text)
	i += len(tag)
	for i < n {
		if text[i] == '$' && strings.HasPrefix(text[i:], tag) {
			return i + len(tag)
		}
		i++
	}
	return n
}

// unwrapQuoted removes the surrounding quotes and unescapes doubled quotes,
// the way PostgreSQL folds quoted identifiers.
func unwrapQuoted(s string, quote byte) string {
	if len(s) < 2 || s[0] != quote {
		return s
	}
	inner := s[1:]
	if inner[len(inner)-1] == quote {
		inner = inner[:len(inner)-1]
	}
	q := string(quote)
	return strings.ReplaceAll(inner, q+q, q)
}

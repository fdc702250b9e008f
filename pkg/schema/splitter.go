package schema

import "strings"

// rawStatement is one top-level statement produced by the splitter, with
// comments blanked out and the terminating semicolon removed.
type rawStatement struct {
	Text       string
	Line       int // 1-based line of the first non-blank character
	Terminated bool
}

// splitStatements splits DDL text into top-level statements on semicolons.
// A semicolon inside a quoted literal, a quoted identifier, a dollar-quoted
// body, a comment, or a parenthesized group does not split. Line and block
// comments are replaced by whitespace so downstream classification never
// sees them, while newlines are preserved to keep line attribution exact.
//
// The splitter never fails; any input yields a (possibly empty) statement
// list.
func splitStatements(text string) []rawStatement {
	var (
		result    []rawStatement
		buf       strings.Builder
		line      = 1
		startLine = 0
		depth     = 0
	)

	flush := func(terminated bool) {
		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		depth = 0
		if stmt != "" {
			result = append(result, rawStatement{Text: stmt, Line: startLine, Terminated: terminated})
		}
		startLine = 0
	}

	// started reports whether the current statement has seen content yet;
	// leading whitespace is not recorded so startLine stays accurate.
	started := func() bool { return startLine != 0 }

	write := func(s string) {
		if !started() {
			startLine = line
		}
		buf.WriteString(s)
	}

	i := 0
	n := len(text)
	for i < n {
		c := text[i]

		switch {
		case c == '\n':
			line++
			if started() {
				buf.WriteByte(c)
			}
			i++

		case c == '-' && i+1 < n && text[i+1] == '-':
			// Line comment: skip to end of line, leave the newline for the
			// main loop so the line counter stays right.
			for i < n && text[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && text[i+1] == '*':
			i = skipBlockComment(text, i, &line, &buf, started())

		case c == '\'':
			i = copyQuoted(text, i, '\'', &line, write)

		case c == '"':
			i = copyQuoted(text, i, '"', &line, write)

		case c == '$':
			if tag, ok := dollarTag(text[i:]); ok {
				i = copyDollarQuoted(text, i, tag, &line, write)
			} else {
				write(string(c))
				i++
			}

		case c == '(':
			depth++
			write(string(c))
			i++

		case c == ')':
			if depth > 0 {
				depth--
			}
			write(string(c))
			i++

		case c == ';' && depth == 0:
			flush(true)
			i++

		case c == ' ' || c == '\t' || c == '\r':
			if started() {
				buf.WriteByte(c)
			}
			i++

		default:
			write(string(c))
			i++
		}
	}

	flush(false)
	return result
}

// skipBlockComment consumes a (possibly nested) block comment, writing a
// single space plus any newlines into the buffer so token separation and
// line offsets survive.
func skipBlockComment(text string, i int, line *int, buf *strings.Builder, started bool) int {
	n := len(text)
	depth := 0
	if started {
		buf.WriteByte(' ')
	}
	for i < n {
		switch {
		case text[i] == '/' && i+1 < n && text[i+1] == '*':
			depth++
			i += 2
		case text[i] == '*' && i+1 < n && text[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		case text[i] == '\n':
			*line++
			if started {
				buf.WriteByte('\n')
			}
			i++
		default:
			i++
		}
	}
	return i
}

// copyQuoted copies a quoted region verbatim, honoring the doubled-quote
// escape. An unterminated quote runs to end of input; best effort.
func copyQuoted(text string, i int, quote byte, line *int, write func(string)) int {
	n := len(text)
	start := i
	i++ // opening quote
	for i < n {
		if text[i] == '\n' {
			*line++
			i++
			continue
		}
		if text[i] == quote {
			if i+1 < n && text[i+1] == quote {
				i += 2
				continue
			}
			i++
			break
		}
		i++
	}
	write(text[start:i])
	return i
}

// dollarTag matches a dollar-quote opener ($$, $body$, ...) at the start of
// s and returns the full delimiter.
func dollarTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	j := 1
	if isIdentChar(s[j]) && !isDigit(s[j]) {
		j++
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
	}
	if j < len(s) && s[j] == '$' {
		return s[:j+1], true
	}
	return "", false
}

// copyDollarQuoted copies a dollar-quoted body verbatim through its closing
// delimiter. An unterminated body runs to end of input.
func copyDollarQuoted(text string, i int, tag string, line *int, write func(string)) int {
	n := len(text)
	start := i
	i += len(tag)
	for i < n {
		if text[i] == '\n' {
			*line++
			i++
			continue
		}
		if text[i] == '$' && strings.HasPrefix(text[i:], tag) {
			i += len(tag)
			break
		}
		i++
	}
	write(text[start:i])
	return i
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

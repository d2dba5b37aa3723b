package features

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"sql-complexity/internal/model"
)

// Text carries a query's raw SQL alongside its masked form. In the masked
// form the contents of string literals and comments are replaced by spaces,
// so keyword scans do not count words that only appear inside them. Quote
// characters and newlines are preserved, and every byte offset in Code is
// the offset of the same position in Raw.
type Text struct {
	Raw  string
	Code string

	literals int
}

// NewText masks raw with standard SQL quoting, where a quote inside a
// literal is escaped only by doubling it.
func NewText(raw string) Text {
	return newText(raw, false)
}

// NewDialectText masks raw with the quoting rules of d. MySQL and MariaDB
// also treat a backslash as escaping the next character in a string.
func NewDialectText(raw string, d model.Dialect) Text {
	return newText(raw, d.BackslashEscapes())
}

func newText(raw string, backslash bool) Text {
	code, literals := mask(raw, backslash)
	return Text{Raw: raw, Code: code, literals: literals}
}

// StringLiterals returns the number of single-quoted literals in the text.
func (t Text) StringLiterals() int { return t.literals }

func mask(s string, backslash bool) (string, int) {
	var b strings.Builder
	b.Grow(len(s))

	const (
		normal = iota
		single
		double
		line
		block
	)
	state := normal
	literals := 0

	blank := func(r rune, size int) {
		if r == '\n' {
			b.WriteByte('\n')
			return
		}
		for ; size > 0; size-- {
			b.WriteByte(' ')
		}
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		var next byte
		if i+size < len(s) {
			next = s[i+size]
		}

		switch state {
		case normal:
			switch {
			case r == '\'':
				state = single
				literals++
				b.WriteByte('\'')
			case r == '"':
				state = double
				b.WriteByte('"')
			case r == '-' && next == '-':
				state = line
				b.WriteString("  ")
				size++
			case r == '/' && next == '*':
				state = block
				b.WriteString("  ")
				size++
			default:
				b.WriteString(s[i : i+size])
			}
		case single:
			switch {
			case backslash && r == '\\' && i+size < len(s):
				r2, size2 := utf8.DecodeRuneInString(s[i+size:])
				blank(r, size)
				blank(r2, size2)
				size += size2
			case r == '\'' && next == '\'':
				b.WriteString("  ")
				size++
			case r == '\'':
				state = normal
				b.WriteByte('\'')
			default:
				blank(r, size)
			}
		case double:
			if backslash && r == '\\' && i+size < len(s) {
				_, size2 := utf8.DecodeRuneInString(s[i+size:])
				size += size2
			} else if r == '"' {
				state = normal
			}
			b.WriteString(s[i : i+size])
		case line:
			if r == '\n' {
				state = normal
			}
			blank(r, size)
		case block:
			if r == '*' && next == '/' {
				state = normal
				b.WriteString("  ")
				size++
			} else {
				blank(r, size)
			}
		}
		i += size
	}
	return b.String(), literals
}

var (
	joinKeyword = regexp.MustCompile(`(?i)\b(?:STRAIGHT_JOIN|JOIN)\b`)
	fullJoin    = regexp.MustCompile(`(?i)\bFULL\s+(?:OUTER\s+)?JOIN\b`)
	firstWord   = regexp.MustCompile(`^\s*\(*\s*([A-Za-z]+)`)
)

// normalizedLength is the character length of the text with runs of
// whitespace collapsed, so that formatting does not change the metric.
func normalizedLength(raw string) int {
	return utf8.RuneCountInString(strings.Join(strings.Fields(raw), " "))
}

func lineCount(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "\n") + 1
}

// lexicalStatementType guesses the statement kind from its first keyword.
func lexicalStatementType(code string) string {
	m := firstWord.FindStringSubmatch(code)
	if m == nil {
		return "OTHER"
	}
	switch kw := strings.ToUpper(m[1]); kw {
	case "SELECT", "WITH":
		return "SELECT"
	case "INSERT", "UPDATE", "DELETE", "MERGE", "REPLACE", "CALL":
		return kw
	case "CREATE", "ALTER", "DROP", "TRUNCATE":
		return "DDL"
	}
	return "OTHER"
}

// applyTextMetrics fills the fields that never need a parse tree.
func applyTextMetrics(t Text, fv *model.FeatureVector) {
	fv.Length = normalizedLength(t.Raw)
	fv.LineCount = lineCount(t.Raw)
	fv.PlaceholderCount = strings.Count(t.Code, "?")
	fv.StringLiteralCount = t.StringLiterals()
}

package parsers

import (
	"regexp"
	"strings"
)

// Repair is a pure text transform applied to a candidate JSON object.
type Repair struct {
	Name  string
	Apply func(string) string
}

// Repairs run cumulatively in this order; parsing is retried after each one.
var Repairs = []Repair{
	{Name: "single_quotes", Apply: SingleToDoubleQuotes},
	{Name: "collapse_whitespace", Apply: CollapseWhitespace},
	{Name: "trailing_commas", Apply: StripTrailingCommas},
	{Name: "invalid_escapes", Apply: RemoveInvalidEscapes},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	escapeSeq     = regexp.MustCompile(`\\(u[0-9a-fA-F]{4}|.)`)
)

// SingleToDoubleQuotes rewrites single-quoted strings as double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func SingleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		outside = iota
		inDouble
		inSingle
	)
	state := outside
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case outside:
			switch c {
			case '"':
				state = inDouble
				b.WriteByte(c)
			case '\'':
				state = inSingle
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		case inDouble:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == '"' {
				state = outside
			}
		case inSingle:
			switch c {
			case '\\':
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				b.WriteByte(c)
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				b.WriteString(`\"`)
			case '\'':
				state = outside
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// CollapseWhitespace replaces every run of whitespace, line breaks included, with one space.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// StripTrailingCommas removes commas directly before a closing brace or bracket.
func StripTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

// RemoveInvalidEscapes drops the backslash of any escape JSON does not define.
func RemoveInvalidEscapes(s string) string {
	return escapeSeq.ReplaceAllStringFunc(s, func(seq string) string {
		if len(seq) == 6 && seq[1] == 'u' {
			return seq
		}
		switch seq[1] {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			return seq
		}
		return seq[1:]
	})
}

// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"strings"
	"unicode/utf8"
)

// Multiline value delimiters.
const (
	multilineStart = "[["
	multilineEnd   = "]]"
)

// A Setting is a named raw string value inside a section. The value is never
// interpreted by this package beyond the array and multiline conventions.
type Setting struct {
	Element
	value string
}

// NewSetting returns a new setting. It returns an error wrapping
// ErrInvalidArgument if name is empty.
func NewSetting(name, value string) (*Setting, error) {
	e, err := newElement(KindSetting, name)
	if err != nil {
		return nil, err
	}
	return &Setting{Element: e, value: value}, nil
}

// Value returns the raw value exactly as parsed or assigned.
func (s *Setting) Value() string {
	return s.value
}

// SetValue replaces the raw value.
func (s *Setting) SetValue(v string) {
	s.value = v
}

// IsArray reports whether the raw value is framed as an array: {a,b,c}.
func (s *Setting) IsArray() bool {
	return isArray(s.value)
}

// ArrayValues splits an array value into its elements using the array
// separator from opts. It returns false if the value is not an array.
func (s *Setting) ArrayValues(opts *Options) ([]string, bool) {
	return ParseArray(s.value, opts.arraySeparator())
}

// SetArrayValues replaces the raw value with an array of the given elements.
func (s *Setting) SetArrayValues(values []string, opts *Options) {
	s.value = FormatArray(values, opts.arraySeparator())
}

// IsMultiline reports whether the raw value is framed as a multiline
// value: [[...]].
func (s *Setting) IsMultiline() bool {
	return isMultiline(s.value)
}

// MultilineValue returns the text between the multiline delimiters.
// It returns false if the value is not a multiline value.
func (s *Setting) MultilineValue() (string, bool) {
	if !s.IsMultiline() {
		return "", false
	}
	return s.value[len(multilineStart) : len(s.value)-len(multilineEnd)], true
}

// SetMultilineValue replaces the raw value with v framed as a multiline
// value. v may contain newlines but must not contain a line that is exactly
// "]]".
func (s *Setting) SetMultilineValue(v string) {
	s.value = multilineStart + v + multilineEnd
}

// Format returns the text form of the setting, including comments as
// permitted by opts.
func (s *Setting) Format(opts *Options) string {
	return string(s.appendText(nil, opts))
}

// String returns the text form of the setting with default options.
func (s *Setting) String() string {
	return s.Format(nil)
}

func (s *Setting) appendText(dst []byte, opts *Options) []byte {
	return s.render(dst, s.expression(opts), opts)
}

func (s *Setting) expression(opts *Options) string {
	sb := new(strings.Builder)
	sb.Grow(len(s.name) + len(s.value) + 5)
	if shouldQuoteName(s.name, opts) {
		sb.WriteByte('"')
		sb.WriteString(s.name)
		sb.WriteByte('"')
	} else {
		sb.WriteString(s.name)
	}
	sb.WriteString(" = ")
	if inner, ok := s.MultilineValue(); ok {
		sb.WriteString(multilineStart)
		sb.WriteByte('\n')
		sb.WriteString(inner)
		sb.WriteByte('\n')
		sb.WriteString(multilineEnd)
	} else {
		sb.WriteString(s.value)
	}
	return sb.String()
}

// shouldQuoteName reports whether a setting name would be misread if it were
// written bare.
func shouldQuoteName(name string, opts *Options) bool {
	if strings.ContainsRune(name, '"') {
		// Quoted names are taken verbatim, so a quote can't be escaped.
		return false
	}
	if strings.TrimSpace(name) != name || strings.HasPrefix(name, "[") {
		return true
	}
	for _, c := range name {
		if c == '=' || opts.isCommentChar(c) {
			return true
		}
	}
	return false
}

func isArray(v string) bool {
	return len(v) >= 2 && v[0] == '{' && v[len(v)-1] == '}'
}

func isMultiline(v string) bool {
	return len(v) >= len(multilineStart)+len(multilineEnd) &&
		strings.HasPrefix(v, multilineStart) &&
		strings.HasSuffix(v, multilineEnd)
}

// ParseArray splits a raw array value such as "{a, b, c}" into its
// elements. Elements are trimmed of surrounding whitespace. An element may be
// enclosed in double quotes to include the separator or surrounding
// whitespace; inside quotes, \" and \\ are escapes. It returns false if raw is
// not framed by braces.
func ParseArray(raw string, sep rune) ([]string, bool) {
	if !isArray(raw) {
		return nil, false
	}
	inner := raw[1 : len(raw)-1]
	if strings.TrimSpace(inner) == "" {
		return []string{}, true
	}
	var elems []string
	start := 0
	inQuotes := false
	for i := 0; i < len(inner); {
		c, size := utf8.DecodeRuneInString(inner[i:])
		switch {
		case c == '\\' && inQuotes && i+size < len(inner):
			_, n := utf8.DecodeRuneInString(inner[i+size:])
			i += size + n
			continue
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			elems = append(elems, unquoteArrayElement(inner[start:i]))
			start = i + size
		}
		i += size
	}
	elems = append(elems, unquoteArrayElement(inner[start:]))
	return elems, true
}

func unquoteArrayElement(elem string) string {
	elem = strings.TrimSpace(elem)
	if len(elem) < 2 || elem[0] != '"' || elem[len(elem)-1] != '"' {
		return elem
	}
	elem = elem[1 : len(elem)-1]
	sb := new(strings.Builder)
	sb.Grow(len(elem))
	for i := 0; i < len(elem); i++ {
		if elem[i] == '\\' && i+1 < len(elem) && (elem[i+1] == '"' || elem[i+1] == '\\') {
			i++
		}
		sb.WriteByte(elem[i])
	}
	return sb.String()
}

// FormatArray joins values into a raw array value using sep. Elements that
// contain the separator, braces or quotes, or that have surrounding
// whitespace, are quoted.
func FormatArray(values []string, sep rune) string {
	sb := new(strings.Builder)
	sb.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			sb.WriteRune(sep)
		}
		if shouldQuoteArrayElement(v, sep) {
			sb.WriteByte('"')
			for j := 0; j < len(v); j++ {
				if v[j] == '"' || v[j] == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteByte(v[j])
			}
			sb.WriteByte('"')
		} else {
			sb.WriteString(v)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func shouldQuoteArrayElement(v string, sep rune) bool {
	return v == "" ||
		strings.TrimSpace(v) != v ||
		strings.ContainsRune(v, sep) ||
		strings.ContainsAny(v, "{}\"")
}

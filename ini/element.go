// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"fmt"
	"strings"
)

// Kind identifies which variant of element a value is.
type Kind int

// Element kinds.
const (
	KindSection Kind = 1 + iota
	KindSetting
)

func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindSetting:
		return "setting"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Element holds the attributes shared by sections and settings. It is
// embedded in Section and Setting; the zero value is not usable.
type Element struct {
	kind Kind
	name string

	// Comment is the comment trailing the element on the same line, without
	// its delimiter. Only the first line is written. Empty means none.
	Comment string

	// PreComment holds the comment lines directly above the element, joined
	// by newlines and without their delimiters. Empty means none.
	PreComment string
}

func newElement(kind Kind, name string) (Element, error) {
	if name == "" {
		return Element{}, fmt.Errorf("new %v: %w: empty name", kind, ErrInvalidArgument)
	}
	return Element{kind: kind, name: name}, nil
}

// Name returns the element's name. It never changes after construction.
func (e *Element) Name() string {
	return e.name
}

// Kind reports whether the element is a section or a setting.
func (e *Element) Kind() Kind {
	return e.kind
}

// render produces the text form of an element from its expression, placing
// the pre-comment on the lines above and the inline comment after it.
// expr may span several lines (multiline settings); the inline comment
// always goes on the first one.
func (e *Element) render(dst []byte, expr string, opts *Options) []byte {
	c := opts.preferredCommentChar()
	if e.PreComment != "" && !opts.ignorePreComments() {
		for _, line := range splitLines(e.PreComment) {
			dst = append(dst, string(c)...)
			if line != "" {
				dst = append(dst, ' ')
				dst = append(dst, line...)
			}
			dst = append(dst, '\n')
		}
	}
	first, rest := expr, ""
	if i := strings.IndexByte(expr, '\n'); i >= 0 {
		first, rest = expr[:i], expr[i:]
	}
	dst = append(dst, first...)
	if e.Comment != "" && !opts.ignoreInlineComments() {
		comment := splitLines(e.Comment)[0]
		dst = append(dst, ' ')
		dst = append(dst, string(c)...)
		dst = append(dst, ' ')
		dst = append(dst, comment...)
	}
	dst = append(dst, rest...)
	return dst
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

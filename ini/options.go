// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yourbase/confkit/convert"
	"golang.org/x/text/language"
)

// Default option values.
const (
	DefaultCommentChar    = '#'
	DefaultArraySeparator = ','
)

// defaultCommentChars is the default set of recognized comment delimiters.
// It must not be modified or returned to callers.
var defaultCommentChars = []rune{'#', ';'}

// DefaultCommentChars returns a new slice holding the default set of
// recognized comment delimiters.
func DefaultCommentChars() []rune {
	return append([]rune(nil), defaultCommentChars...)
}

// reservedChars may never be comment delimiters: they carry meaning for
// quoting, escaping, assignment or section headers.
const reservedChars = "\"\\=[]"

// Options holds parsing and formatting parameters. Functions taking an
// *Options treat nil identically to DefaultOptions(), and zero fields are
// replaced by their defaults.
//
// An Options value is owned by the caller. It must not be modified while a
// Parse or Format call that uses it is in progress.
type Options struct {
	// PreferredCommentChar is written in front of comments when formatting.
	// It must be one of CommentChars.
	PreferredCommentChar rune

	// CommentChars is the set of characters that start a comment.
	CommentChars []rune

	// ArraySeparator separates array elements inside braces.
	ArraySeparator rune

	// IgnoreInlineComments disables recognition of comments that trail an
	// element on the same line. When parsing, such lines are taken whole.
	IgnoreInlineComments bool

	// IgnorePreComments disables the comment lines that precede an element.
	IgnorePreComments bool

	// Locale is used by value conversions that depend on it, such as the
	// decimal separator of floating point numbers. The zero value is the
	// invariant locale.
	Locale language.Tag

	// Converters holds custom type-string converters. If nil, only the
	// built-in conversions are used.
	Converters *convert.Registry
}

// DefaultOptions returns a new Options populated with the default values.
func DefaultOptions() *Options {
	opts := new(Options)
	opts.Reset()
	return opts
}

// Reset restores every option to its default value. The converter registry is
// replaced by an empty one.
func (o *Options) Reset() {
	*o = Options{
		PreferredCommentChar: DefaultCommentChar,
		CommentChars:         DefaultCommentChars(),
		ArraySeparator:       DefaultArraySeparator,
		Locale:               language.Und,
		Converters:           convert.NewRegistry(),
	}
}

// SetPreferredCommentChar sets the comment character used when formatting.
// It returns an error wrapping ErrInvalidArgument if c is not a recognized
// comment character.
func (o *Options) SetPreferredCommentChar(c rune) error {
	if !containsRune(o.commentChars(), c) {
		return fmt.Errorf("set preferred comment char %q: %w: not one of %q", c, ErrInvalidArgument, string(o.commentChars()))
	}
	o.PreferredCommentChar = c
	return nil
}

// SetCommentChars replaces the set of recognized comment characters.
// If the preferred comment character is no longer in the set, the first
// character of chars becomes the preferred one.
func (o *Options) SetCommentChars(chars []rune) error {
	if err := validateCommentChars(chars); err != nil {
		return fmt.Errorf("set comment chars: %w", err)
	}
	o.CommentChars = append([]rune(nil), chars...)
	if !containsRune(chars, o.PreferredCommentChar) {
		o.PreferredCommentChar = chars[0]
	}
	return nil
}

// SetArraySeparator sets the array element separator. The separator must not
// be the zero rune.
func (o *Options) SetArraySeparator(sep rune) error {
	if sep == 0 {
		return fmt.Errorf("set array separator: %w: separator is NUL", ErrInvalidArgument)
	}
	o.ArraySeparator = sep
	return nil
}

// Validate reports whether the options are consistent after defaults have
// been applied.
func (o *Options) Validate() error {
	chars := o.commentChars()
	if err := validateCommentChars(chars); err != nil {
		return err
	}
	if c := o.preferredCommentChar(); !containsRune(chars, c) {
		return fmt.Errorf("%w: preferred comment char %q not one of %q", ErrInvalidArgument, c, string(chars))
	}
	if o.arraySeparator() == '{' || o.arraySeparator() == '}' {
		return fmt.Errorf("%w: array separator %q is a brace", ErrInvalidArgument, o.arraySeparator())
	}
	return nil
}

func validateCommentChars(chars []rune) error {
	if len(chars) == 0 {
		return fmt.Errorf("%w: no comment characters", ErrInvalidArgument)
	}
	for _, c := range chars {
		if c == 0 || strings.ContainsRune(reservedChars, c) || unicode.IsSpace(c) {
			return fmt.Errorf("%w: %q cannot be a comment character", ErrInvalidArgument, c)
		}
	}
	return nil
}

// The accessors below tolerate a nil receiver and zero fields.

func (o *Options) commentChars() []rune {
	if o == nil || len(o.CommentChars) == 0 {
		return defaultCommentChars
	}
	return o.CommentChars
}

func (o *Options) preferredCommentChar() rune {
	if o == nil || o.PreferredCommentChar == 0 {
		chars := o.commentChars()
		if containsRune(chars, DefaultCommentChar) {
			return DefaultCommentChar
		}
		return chars[0]
	}
	return o.PreferredCommentChar
}

func (o *Options) arraySeparator() rune {
	if o == nil || o.ArraySeparator == 0 {
		return DefaultArraySeparator
	}
	return o.ArraySeparator
}

func (o *Options) ignoreInlineComments() bool {
	return o != nil && o.IgnoreInlineComments
}

func (o *Options) ignorePreComments() bool {
	return o != nil && o.IgnorePreComments
}

// ConverterRegistry returns the registry to use for value conversions.
// It never returns nil.
func (o *Options) ConverterRegistry() *convert.Registry {
	if o == nil || o.Converters == nil {
		return convert.NewRegistry()
	}
	return o.Converters
}

// LocaleTag returns the locale used for value conversions.
func (o *Options) LocaleTag() language.Tag {
	if o == nil {
		return language.Und
	}
	return o.Locale
}

// Separator returns the effective array element separator.
func (o *Options) Separator() rune {
	return o.arraySeparator()
}

func (o *Options) isCommentChar(c rune) bool {
	return containsRune(o.commentChars(), c)
}

func containsRune(chars []rune, c rune) bool {
	for _, r := range chars {
		if r == c {
			return true
		}
	}
	return false
}

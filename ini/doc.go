// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

/*
Package ini reads and writes an INI-like configuration format, both as text
and in a compact binary form.

A document is parsed into a *Configuration: an ordered list of sections, each
an ordered list of settings. Settings hold raw string values; converting them
to other types is left to the convert and bind packages. Comments are kept
with the element they belong to, so a parsed document can be modified and
written back.

# Syntax

A document is Unicode text encoded in UTF-8, processed one line at a time.
Whitespace around lines is ignored and blank lines are skipped.

A section is started by its name in square brackets and ends at the next
section header:

	[Network]
	Host = example.com
	Port = 8080

The name is everything between the first '[' and the last ']', trimmed, so it
may itself contain brackets. Only whitespace or a comment may follow the
closing bracket.

A setting is a name and a value separated by an equals sign. The name is
trimmed and may not contain '='. To use any other name, including one with
'=' or surrounding spaces, quote it; quoted names are taken verbatim:

	"Display Name = Primary" = yes

The value is everything after the first '=' (after the closing quote for
quoted names), trimmed. It is kept exactly as written, quotes included.

Settings that appear before any section header belong to the default
section, named DefaultSectionName. The default section only exists in the
parsed configuration if it received at least one setting.

# Comments

A comment starts at a comment character ('#' or ';' by default) and runs to
the end of the line. A comment character inside a double-quoted span, or
preceded by a backslash, does not start a comment:

	Greeting = "hello # world"   # the value is "hello # world"
	Path = C:\#temp              ; the value is C:\#temp

A line that starts with a comment character is a pre-comment for the next
section or setting; consecutive comment lines are joined with newlines. A
comment after a section header or setting is its inline comment.

# Arrays and multiline values

A value of the form {a, b, c} is an array. Elements are separated by the
array separator (',' by default) and trimmed; an element may be quoted to
contain the separator. See ParseArray and FormatArray.

A value that is exactly "[[" starts a multiline value. The following lines
are read verbatim, without trimming or comment detection, up to a line that
is exactly "]]":

	Motd = [[
	Welcome!
	  Have a nice day.
	]]

The resulting raw value is "[[Welcome!\n  Have a nice day.]]". If the
document ends before the closing line, the value ends there.

# Names

Section names within a configuration and setting names within a section are
unique, compared case-insensitively. Adding a duplicate fails with
ErrDuplicateName; a document that repeats a name fails to parse.

# Binary format

EncodeBinary and DecodeBinary read and write a length-prefixed binary form
that preserves names, raw values and comments.

# Options

Parsing and formatting take an *Options. A nil *Options means the defaults.
Options are owned by the caller and must not be modified while in use.
*/
package ini

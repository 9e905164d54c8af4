// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// maxLineLength bounds the size of a single physical line.
const maxLineLength = 16 << 20

// Parse parses a text document into a Configuration. Nil options are treated
// identically as passing DefaultOptions().
//
// See the Syntax section in the package documentation for the format
// recognized by Parse. Parsing stops at the first malformed line and the
// returned error wraps a *ParseError carrying its line number; no partial
// configuration is returned.
func Parse(r io.Reader, opts *Options) (*Configuration, error) {
	if r == nil {
		return nil, fmt.Errorf("parse ini: %w: nil reader", ErrInvalidArgument)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}
	s := bufio.NewScanner(r)
	s.Buffer(nil, maxLineLength)
	p := &parser{
		s:    s,
		opts: opts,
		cfg:  New(),
	}
	p.implicit = &Section{Element: Element{kind: KindSection, name: DefaultSectionName}}
	p.current = p.implicit
	if err := p.parse(); err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}
	return p.cfg, nil
}

// ParseString parses a text document held in a string.
func ParseString(src string, opts *Options) (*Configuration, error) {
	return Parse(strings.NewReader(src), opts)
}

type parser struct {
	s      *bufio.Scanner
	opts   *Options
	lineno int

	cfg *Configuration
	// current receives parsed settings.
	current *Section
	// implicit is the default section while it has not been committed to cfg.
	implicit *Section
	// preComment accumulates comment lines for the next element.
	preComment []string
}

func (p *parser) parse() error {
	for p.s.Scan() {
		p.lineno++
		if err := p.parseLine(strings.TrimSpace(p.s.Text())); err != nil {
			return err
		}
	}
	if err := p.s.Err(); err != nil {
		return fmt.Errorf("line %d: %w", p.lineno+1, err)
	}
	return p.commitImplicit()
}

func (p *parser) parseLine(line string) error {
	if line == "" {
		return nil
	}
	commentIndex, comment := p.scanComment(line)
	if commentIndex == 0 {
		if !p.opts.ignorePreComments() {
			p.preComment = append(p.preComment, comment)
		}
		return nil
	}
	content := line
	hasComment := false
	if commentIndex > 0 && !p.opts.ignoreInlineComments() {
		content = strings.TrimSpace(line[:commentIndex])
		hasComment = true
	}

	var e *Element
	if content[0] == '[' {
		s, err := p.parseSection(content)
		if err != nil {
			return err
		}
		e = &s.Element
	} else {
		setting, err := p.parseSetting(content)
		if err != nil {
			return err
		}
		e = &setting.Element
	}
	if hasComment {
		e.Comment = comment
	}
	if len(p.preComment) > 0 {
		e.PreComment = strings.TrimRight(strings.Join(p.preComment, "\n"), "\r\n")
		p.preComment = p.preComment[:0]
	}
	return nil
}

// scanComment finds the first comment delimiter in line that is neither
// inside a quoted span nor preceded by a backslash. It returns the byte index
// of the delimiter (or -1) and the left-trimmed text following it.
func (p *parser) scanComment(line string) (int, string) {
	quotes := 0
	prev := rune(0)
	for i, c := range line {
		escaped := prev == '\\'
		if p.opts.isCommentChar(c) && quotes&1 == 0 && !escaped {
			rest := line[i+len(string(c)):]
			return i, strings.TrimLeftFunc(rest, unicode.IsSpace)
		}
		if c == '"' && !escaped {
			quotes++
		}
		prev = c
	}
	return -1, ""
}

// parseSection handles a section header line and makes the new section
// current. The section name is everything between the opening bracket and
// the last closing bracket.
func (p *parser) parseSection(content string) (*Section, error) {
	end := strings.LastIndexByte(content, ']')
	if end < 0 {
		return nil, parseErrorf(p.lineno, "closing bracket missing")
	}
	if rest := strings.TrimSpace(content[end+1:]); rest != "" {
		return nil, parseErrorf(p.lineno, "unexpected token %q", rest)
	}
	name := strings.TrimSpace(content[1:end])
	if name == "" {
		return nil, parseErrorf(p.lineno, "section name expected")
	}
	if err := p.commitImplicit(); err != nil {
		return nil, err
	}
	s := &Section{Element: Element{kind: KindSection, name: name}}
	if err := p.cfg.Add(s); err != nil {
		return nil, &ParseError{Line: p.lineno, Msg: fmt.Sprintf("section %q already defined", name), Err: err}
	}
	p.current = s
	return s, nil
}

// commitImplicit adds the default section to the configuration if settings
// were collected into it.
func (p *parser) commitImplicit() error {
	if p.implicit == nil || p.current != p.implicit {
		return nil
	}
	s := p.implicit
	p.implicit = nil
	if s.Len() == 0 {
		return nil
	}
	if err := p.cfg.Add(s); err != nil {
		return &ParseError{Line: p.lineno, Msg: "default section already defined", Err: err}
	}
	return nil
}

// parseSetting handles a "name = value" line, consuming further raw lines
// for a multiline value, and appends the setting to the current section.
func (p *parser) parseSetting(content string) (*Setting, error) {
	startLine := p.lineno
	var name string
	var eq int
	quoted := content[0] == '"'
	if quoted {
		end := -1
		for i := 1; i < len(content); i++ {
			if content[i] == '"' && content[i-1] != '\\' {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, parseErrorf(p.lineno, "closing quote mark expected")
		}
		// Quoted names are taken verbatim.
		name = content[1:end]
		// Text between the closing quote and the assignment is skipped.
		eq = strings.IndexByte(content[end+1:], '=')
		if eq >= 0 {
			eq += end + 1
		}
	} else {
		eq = strings.IndexByte(content, '=')
	}
	if eq < 0 {
		return nil, parseErrorf(p.lineno, "setting assignment expected")
	}
	if !quoted {
		name = strings.TrimSpace(content[:eq])
	}
	if name == "" {
		return nil, parseErrorf(p.lineno, "setting name expected")
	}
	value := strings.TrimSpace(content[eq+1:])
	if value == multilineStart {
		value = p.readMultiline()
	}

	setting := &Setting{Element: Element{kind: KindSetting, name: name}, value: value}
	if err := p.current.Add(setting); err != nil {
		return nil, &ParseError{
			Line: startLine,
			Msg:  fmt.Sprintf("setting %q already defined in section %q", name, p.current.name),
			Err:  err,
		}
	}
	return setting, nil
}

// readMultiline consumes raw lines up to a line that is exactly "]]". Lines
// are kept verbatim. If the input ends first, the block is closed there.
func (p *parser) readMultiline() string {
	sb := new(strings.Builder)
	sb.WriteString(multilineStart)
	for p.s.Scan() {
		p.lineno++
		line := p.s.Text()
		if line == multilineEnd {
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n") + multilineEnd
}

// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"bytes"
	"fmt"
	"strings"
)

// A Configuration is an ordered collection of sections. Section names are
// unique, compared case-insensitively. The zero value is an empty
// configuration.
//
// A Configuration can be read by multiple concurrent goroutines, but
// modifications must be synchronized by the caller.
type Configuration struct {
	sections []*Section
}

// New returns an empty configuration.
func New() *Configuration {
	return new(Configuration)
}

// Len returns the number of sections.
func (c *Configuration) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sections)
}

// Sections returns the configuration's sections in order. The returned slice
// is a copy, but the sections are shared with the configuration.
func (c *Configuration) Sections() []*Section {
	if c == nil {
		return nil
	}
	return append([]*Section(nil), c.sections...)
}

func (c *Configuration) index(name string) int {
	if c == nil {
		return -1
	}
	for i, s := range c.sections {
		if strings.EqualFold(s.name, name) {
			return i
		}
	}
	return -1
}

// Contains reports whether the configuration has a section with the given
// name.
func (c *Configuration) Contains(name string) bool {
	return c.index(name) >= 0
}

// ContainsSetting reports whether the configuration has the named setting
// inside the named section.
func (c *Configuration) ContainsSetting(section, setting string) bool {
	i := c.index(section)
	return i >= 0 && c.sections[i].Contains(setting)
}

// Get returns the section with the given name. It returns an error wrapping
// ErrNotFound if there is no such section.
func (c *Configuration) Get(name string) (*Section, error) {
	if name == "" {
		return nil, fmt.Errorf("get section: %w: empty name", ErrInvalidArgument)
	}
	i := c.index(name)
	if i < 0 {
		return nil, fmt.Errorf("get section %q: %w", name, ErrNotFound)
	}
	return c.sections[i], nil
}

// At returns the i'th section. It returns an error wrapping ErrOutOfRange if
// i is not in [0, Len()).
func (c *Configuration) At(i int) (*Section, error) {
	if i < 0 || i >= c.Len() {
		return nil, fmt.Errorf("get section %d: %w (have %d)", i, ErrOutOfRange, c.Len())
	}
	return c.sections[i], nil
}

// Section returns the section with the given name, appending a new empty
// section if there is none. Section panics if name is empty.
func (c *Configuration) Section(name string) *Section {
	if name == "" {
		panic("Configuration.Section: empty name")
	}
	if i := c.index(name); i >= 0 {
		return c.sections[i]
	}
	s := &Section{Element: Element{kind: KindSection, name: name}}
	c.sections = append(c.sections, s)
	return s
}

// Default returns the default section, creating it if necessary.
func (c *Configuration) Default() *Section {
	return c.Section(DefaultSectionName)
}

// Add appends a section. It returns an error wrapping ErrDuplicateName if a
// section with the same name already exists.
func (c *Configuration) Add(s *Section) error {
	if s == nil {
		return fmt.Errorf("add section: %w: nil section", ErrInvalidArgument)
	}
	if c.Contains(s.name) {
		return fmt.Errorf("add section %q: %w", s.name, ErrDuplicateName)
	}
	c.sections = append(c.sections, s)
	return nil
}

// AddNew creates an empty section with the given name and appends it.
func (c *Configuration) AddNew(name string) (*Section, error) {
	s, err := NewSection(name)
	if err != nil {
		return nil, err
	}
	if err := c.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Remove deletes the section with the given name. It returns an error
// wrapping ErrNotFound if there is no such section.
func (c *Configuration) Remove(name string) error {
	if name == "" {
		return fmt.Errorf("remove section: %w: empty name", ErrInvalidArgument)
	}
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("remove section %q: %w", name, ErrNotFound)
	}
	return c.RemoveAt(i)
}

// RemoveAt deletes the i'th section.
func (c *Configuration) RemoveAt(i int) error {
	if i < 0 || i >= c.Len() {
		return fmt.Errorf("remove section %d: %w (have %d)", i, ErrOutOfRange, c.Len())
	}
	copy(c.sections[i:], c.sections[i+1:])
	// Zero out truncated element for garbage collection.
	c.sections[len(c.sections)-1] = nil
	c.sections = c.sections[:len(c.sections)-1]
	return nil
}

// Clear removes all sections.
func (c *Configuration) Clear() {
	c.sections = nil
}

// MarshalText serializes the configuration in text format with default
// options.
func (c *Configuration) MarshalText() ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return c.appendText(nil, nil), nil
}

// UnmarshalText parses text data with default options, replacing any
// sections in c.
func (c *Configuration) UnmarshalText(data []byte) error {
	parsed, err := Parse(bytes.NewReader(data), nil)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// MarshalBinary serializes the configuration in binary format.
func (c *Configuration) MarshalBinary() ([]byte, error) {
	return c.appendBinary(nil, nil), nil
}

// UnmarshalBinary decodes binary data, replacing any sections in c.
func (c *Configuration) UnmarshalBinary(data []byte) error {
	parsed, err := DecodeBinary(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"fmt"
	"strings"
)

// DefaultSectionName is the reserved name of the section that holds settings
// appearing before any section header. It is written without a header.
const DefaultSectionName = "$Default"

// A Section is a named, ordered collection of settings. Setting names are
// unique within a section, compared case-insensitively.
//
// Sections are not safe for concurrent modification.
type Section struct {
	Element
	settings []*Setting
}

// NewSection returns a new empty section. It returns an error wrapping
// ErrInvalidArgument if name is empty.
func NewSection(name string) (*Section, error) {
	e, err := newElement(KindSection, name)
	if err != nil {
		return nil, err
	}
	return &Section{Element: e}, nil
}

// IsDefault reports whether s is the default section.
func (s *Section) IsDefault() bool {
	return s != nil && strings.EqualFold(s.name, DefaultSectionName)
}

// Len returns the number of settings in the section.
func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.settings)
}

// Settings returns the section's settings in order. The returned slice is a
// copy, but the settings are shared with the section.
func (s *Section) Settings() []*Setting {
	if s == nil {
		return nil
	}
	return append([]*Setting(nil), s.settings...)
}

func (s *Section) index(name string) int {
	if s == nil {
		return -1
	}
	for i, setting := range s.settings {
		if strings.EqualFold(setting.name, name) {
			return i
		}
	}
	return -1
}

// Contains reports whether the section has a setting with the given name.
func (s *Section) Contains(name string) bool {
	return s.index(name) >= 0
}

// Get returns the setting with the given name. It returns an error wrapping
// ErrNotFound if there is no such setting.
func (s *Section) Get(name string) (*Setting, error) {
	if name == "" {
		return nil, fmt.Errorf("get setting: %w: empty name", ErrInvalidArgument)
	}
	i := s.index(name)
	if i < 0 {
		return nil, fmt.Errorf("get setting %q: %w", name, ErrNotFound)
	}
	return s.settings[i], nil
}

// At returns the i'th setting. It returns an error wrapping ErrOutOfRange if
// i is not in [0, Len()).
func (s *Section) At(i int) (*Setting, error) {
	if i < 0 || i >= s.Len() {
		return nil, fmt.Errorf("get setting %d: %w (have %d)", i, ErrOutOfRange, s.Len())
	}
	return s.settings[i], nil
}

// Setting returns the setting with the given name, appending a new setting
// with an empty value if there is none. Setting panics if name is empty.
func (s *Section) Setting(name string) *Setting {
	if name == "" {
		panic("Section.Setting: empty name")
	}
	if i := s.index(name); i >= 0 {
		return s.settings[i]
	}
	setting := &Setting{Element: Element{kind: KindSetting, name: name}}
	s.settings = append(s.settings, setting)
	return setting
}

// Add appends a setting to the section. It returns an error wrapping
// ErrDuplicateName if a setting with the same name already exists.
func (s *Section) Add(setting *Setting) error {
	if setting == nil {
		return fmt.Errorf("add setting: %w: nil setting", ErrInvalidArgument)
	}
	if s.Contains(setting.name) {
		return fmt.Errorf("add setting %q to section %q: %w", setting.name, s.name, ErrDuplicateName)
	}
	s.settings = append(s.settings, setting)
	return nil
}

// AddNew creates a setting with the given name and value and appends it to
// the section.
func (s *Section) AddNew(name, value string) (*Setting, error) {
	setting, err := NewSetting(name, value)
	if err != nil {
		return nil, err
	}
	if err := s.Add(setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// Remove deletes the setting with the given name. It returns an error
// wrapping ErrNotFound if there is no such setting.
func (s *Section) Remove(name string) error {
	if name == "" {
		return fmt.Errorf("remove setting: %w: empty name", ErrInvalidArgument)
	}
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("remove setting %q: %w", name, ErrNotFound)
	}
	return s.RemoveAt(i)
}

// RemoveAt deletes the i'th setting.
func (s *Section) RemoveAt(i int) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("remove setting %d: %w (have %d)", i, ErrOutOfRange, s.Len())
	}
	copy(s.settings[i:], s.settings[i+1:])
	// Zero out truncated element for garbage collection.
	s.settings[len(s.settings)-1] = nil
	s.settings = s.settings[:len(s.settings)-1]
	return nil
}

// Clear removes all settings from the section.
func (s *Section) Clear() {
	s.settings = nil
}

// Format returns the text form of the section header, including comments as
// permitted by opts. It does not include the section's settings.
func (s *Section) Format(opts *Options) string {
	return string(s.render(nil, s.expression(), opts))
}

// String returns the text form of the section header with default options.
func (s *Section) String() string {
	return s.Format(nil)
}

func (s *Section) expression() string {
	return "[" + s.name + "]"
}

// appendText writes the section header (unless it is the default section)
// followed by every setting.
func (s *Section) appendText(dst []byte, opts *Options) []byte {
	if !s.IsDefault() {
		dst = s.render(dst, s.expression(), opts)
		dst = append(dst, '\n')
	}
	for _, setting := range s.settings {
		dst = setting.appendText(dst, opts)
		dst = append(dst, '\n')
	}
	return dst
}

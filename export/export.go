// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package export converts configurations to and from other configuration
// formats.
//
// Settings of the default section become top-level keys and every other
// section becomes a table (or mapping) of its settings. Array values become
// lists of strings and multiline values are unwrapped. Values are otherwise
// exported as their raw strings, since settings carry no type information.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yourbase/confkit/ini"
	"gopkg.in/yaml.v3"
)

// ErrNesting is returned when importing a document nested more than one
// level deep.
var ErrNesting = errors.New("nested too deeply")

// ToMap converts cfg into a tree of maps. It returns an error wrapping
// ini.ErrDuplicateName if a default section setting has the same name as a
// section.
func ToMap(cfg *ini.Configuration, opts *ini.Options) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	for _, s := range cfg.Sections() {
		if !s.IsDefault() {
			continue
		}
		for _, setting := range s.Settings() {
			m[setting.Name()] = exportValue(setting, opts)
		}
	}
	for _, s := range cfg.Sections() {
		if s.IsDefault() {
			continue
		}
		if _, exists := m[s.Name()]; exists {
			return nil, fmt.Errorf("export: section %q: %w: also a default section setting", s.Name(), ini.ErrDuplicateName)
		}
		table := make(map[string]interface{}, s.Len())
		for _, setting := range s.Settings() {
			table[setting.Name()] = exportValue(setting, opts)
		}
		m[s.Name()] = table
	}
	return m, nil
}

func exportValue(setting *ini.Setting, opts *ini.Options) interface{} {
	if inner, ok := setting.MultilineValue(); ok {
		return inner
	}
	if elems, ok := setting.ArrayValues(opts); ok {
		return elems
	}
	return setting.Value()
}

// WriteTOML writes cfg to w as a TOML document.
func WriteTOML(w io.Writer, cfg *ini.Configuration, opts *ini.Options) error {
	m, err := ToMap(cfg, opts)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("export toml: %w", err)
	}
	return nil
}

// WriteYAML writes cfg to w as a YAML document.
func WriteYAML(w io.Writer, cfg *ini.Configuration, opts *ini.Options) error {
	m, err := ToMap(cfg, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("export yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export yaml: %w", err)
	}
	return nil
}

// WriteJSON writes cfg to w as an indented JSON object.
func WriteJSON(w io.Writer, cfg *ini.Configuration, opts *ini.Options) error {
	m, err := ToMap(cfg, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// FromTOML reads a TOML document into a new configuration.
func FromTOML(r io.Reader, opts *ini.Options) (*ini.Configuration, error) {
	var m map[string]interface{}
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("import toml: %w", err)
	}
	cfg, err := FromMap(m, opts)
	if err != nil {
		return nil, fmt.Errorf("import toml: %w", err)
	}
	return cfg, nil
}

// FromYAML reads a YAML document into a new configuration. An empty document
// produces an empty configuration.
func FromYAML(r io.Reader, opts *ini.Options) (*ini.Configuration, error) {
	var m map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("import yaml: %w", err)
	}
	cfg, err := FromMap(m, opts)
	if err != nil {
		return nil, fmt.Errorf("import yaml: %w", err)
	}
	return cfg, nil
}

// FromMap builds a configuration from a tree of maps as produced by ToMap or
// a TOML or YAML decoder. Top-level scalars and lists become default section
// settings and top-level maps become sections, in sorted key order. Scalars
// are formatted with the converter registry of opts.
func FromMap(m map[string]interface{}, opts *ini.Options) (*ini.Configuration, error) {
	cfg := ini.New()
	var tables []string
	for _, key := range sortedKeys(m) {
		if _, ok := m[key].(map[string]interface{}); ok {
			tables = append(tables, key)
			continue
		}
		if err := addSetting(cfg.Default(), key, m[key], opts); err != nil {
			return nil, err
		}
	}
	for _, name := range tables {
		table := m[name].(map[string]interface{})
		s, err := cfg.AddNew(name)
		if err != nil {
			return nil, err
		}
		for _, key := range sortedKeys(table) {
			if err := addSetting(s, key, table[key], opts); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// addSetting appends a setting holding v. Strings spanning several lines
// become multiline values.
func addSetting(s *ini.Section, key string, v interface{}, opts *ini.Options) error {
	value, err := importValue(v, opts)
	if err != nil {
		return fmt.Errorf("%s: key %q: %w", s.Name(), key, err)
	}
	setting, err := s.AddNew(key, value)
	if err != nil {
		return err
	}
	if strings.Contains(value, "\n") {
		if _, isString := v.(string); isString {
			setting.SetMultilineValue(value)
		}
	}
	return nil
}

func importValue(v interface{}, opts *ini.Options) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case map[string]interface{}, []map[string]interface{}:
		return "", ErrNesting
	case []interface{}:
		elems := make([]string, 0, len(v))
		for i, elem := range v {
			switch elem.(type) {
			case map[string]interface{}, []interface{}:
				return "", fmt.Errorf("element %d: %w", i, ErrNesting)
			}
			s, err := importValue(elem, opts)
			if err != nil {
				return "", fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, s)
		}
		return ini.FormatArray(elems, opts.Separator()), nil
	case []string:
		return ini.FormatArray(v, opts.Separator()), nil
	}
	s, err := opts.ConverterRegistry().Format(reflect.ValueOf(v), opts.LocaleTag())
	if err != nil {
		return "", err
	}
	return s, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

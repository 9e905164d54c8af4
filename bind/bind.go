// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package bind maps configuration sections to and from Go structs.
//
// Fields are matched to settings by name, case-insensitively. The "ini"
// struct tag overrides the name and accepts options:
//
//	Host    string   `ini:"hostname"`   // setting "hostname"
//	Secret  string   `ini:"-"`          // never read or written
//	Banner  string   `ini:",multiline"` // written as a [[...]] block
//	Aliases []string `ini:",omitempty"` // not written when empty
//
// Slice and array fields are read from and written as array values. Values
// are converted with the converter registry and locale of the options.
package bind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/yourbase/confkit/convert"
	"github.com/yourbase/confkit/ini"
	"golang.org/x/text/language"
)

const tagName = "ini"

// Decode copies the settings of section into the struct pointed to by target.
// Settings without a matching field are ignored, as are fields without a
// matching setting. A nil section decodes nothing.
func Decode(section *ini.Section, target interface{}, opts *ini.Options) error {
	input := make(map[string]interface{}, section.Len())
	for _, setting := range section.Settings() {
		value := setting.Value()
		if inner, ok := setting.MultilineValue(); ok {
			value = inner
		}
		input[setting.Name()] = value
	}
	// mapstructure treats a "-" tag as the field's name.
	delete(input, "-")

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    tagName,
		DecodeHook: stringHook(opts),
	})
	if err != nil {
		return fmt.Errorf("bind section %q: %w", sectionName(section), err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("bind section %q: %w", sectionName(section), err)
	}
	return nil
}

// DecodeConfiguration decodes the named section of cfg into target. It
// returns an error wrapping ini.ErrNotFound if there is no such section.
func DecodeConfiguration(cfg *ini.Configuration, name string, target interface{}, opts *ini.Options) error {
	section, err := cfg.Get(name)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	return Decode(section, target, opts)
}

// stringHook converts raw setting strings into the field's type. Slices
// receive the elements of an array value; everything else goes through the
// converter registry.
func stringHook(opts *ini.Options) mapstructure.DecodeHookFuncType {
	reg := opts.ConverterRegistry()
	locale := opts.LocaleTag()
	sep := opts.Separator()
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		s, ok := data.(string)
		if !ok || from.Kind() != reflect.String {
			return data, nil
		}
		if _, custom := reg.Find(to); custom {
			return parse(reg, s, to, locale)
		}
		switch to.Kind() {
		case reflect.Slice, reflect.Array:
			if elems, ok := ini.ParseArray(s, sep); ok {
				return elems, nil
			}
			if s == "" {
				return []string{}, nil
			}
			return []string{s}, nil
		case reflect.Interface, reflect.Ptr:
			return s, nil
		}
		if !reg.Handles(to) {
			return s, nil
		}
		return parse(reg, s, to, locale)
	}
}

func parse(reg *convert.Registry, s string, t reflect.Type, locale language.Tag) (interface{}, error) {
	v, err := reg.Parse(s, t, locale)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Encode builds a new section named name from the fields of source, a struct
// or pointer to struct.
func Encode(name string, source interface{}, opts *ini.Options) (*ini.Section, error) {
	section, err := ini.NewSection(name)
	if err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	if err := SetValues(section, source, opts); err != nil {
		return nil, err
	}
	return section, nil
}

// SetValues stores the fields of source into section, creating settings as
// needed and replacing the values of existing ones. Comments on existing
// settings are kept.
func SetValues(section *ini.Section, source interface{}, opts *ini.Options) error {
	if section == nil {
		return fmt.Errorf("bind: %w: nil section", ini.ErrInvalidArgument)
	}
	v := reflect.ValueOf(source)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("bind section %q: %w: nil source", section.Name(), ini.ErrInvalidArgument)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("bind section %q: %w: source is %v, not a struct", section.Name(), ini.ErrInvalidArgument, v.Kind())
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			// Unexported.
			continue
		}
		tag := parseTag(field)
		if tag.skip {
			continue
		}
		fv := v.Field(i)
		if tag.omitEmpty && fv.IsZero() {
			continue
		}
		value, present, err := format(fv, opts)
		if err != nil {
			return fmt.Errorf("bind section %q: field %s: %w", section.Name(), field.Name, err)
		}
		if !present {
			continue
		}
		setting := section.Setting(tag.name)
		if tag.multiline {
			setting.SetMultilineValue(value)
		} else {
			setting.SetValue(value)
		}
	}
	return nil
}

type fieldTag struct {
	name      string
	skip      bool
	multiline bool
	omitEmpty bool
}

func parseTag(field reflect.StructField) fieldTag {
	raw := field.Tag.Get(tagName)
	if raw == "-" {
		return fieldTag{skip: true}
	}
	name, options, _ := strings.Cut(raw, ",")
	tag := fieldTag{name: name}
	if tag.name == "" {
		tag.name = field.Name
	}
	for _, opt := range strings.Split(options, ",") {
		switch opt {
		case "multiline":
			tag.multiline = true
		case "omitempty":
			tag.omitEmpty = true
		}
	}
	return tag
}

// format converts a field value to a raw setting value. It reports false for
// nil pointers and interfaces, which are left unset.
func format(v reflect.Value, opts *ini.Options) (string, bool, error) {
	reg := opts.ConverterRegistry()
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false, nil
		}
		v = v.Elem()
	}
	if _, custom := reg.Find(v.Type()); !custom && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) {
		elems := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, ok, err := format(v.Index(i), opts)
			if err != nil {
				return "", false, fmt.Errorf("element %d: %w", i, err)
			}
			if !ok {
				s = ""
			}
			elems = append(elems, s)
		}
		return ini.FormatArray(elems, opts.Separator()), true, nil
	}
	s, err := reg.Format(v, opts.LocaleTag())
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func sectionName(s *ini.Section) string {
	if s == nil {
		return ""
	}
	return s.Name()
}

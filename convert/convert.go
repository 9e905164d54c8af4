// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package convert converts between Go values and the raw strings stored in
// configuration settings.
//
// A Registry holds custom converters keyed by type. Conversions consult the
// registry first and fall back to built-in conversions for strings, booleans,
// integers, floating point numbers, time.Duration and time.Time.
package convert

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	// ErrInvalidOperation is returned when registering a type twice or
	// deregistering a type that has no converter.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidArgument is returned for a nil type or converter function.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported is returned when no converter handles a type.
	ErrUnsupported = errors.New("unsupported type")
)

// A Converter converts values of one type to and from strings.
type Converter struct {
	// ToString formats v, which has the converter's type.
	ToString func(v reflect.Value) string
	// FromString parses s. It reports false if s is not a valid
	// representation.
	FromString func(s string) (reflect.Value, bool)
}

// A Registry maps types to custom converters. The zero value is an empty
// registry. A Registry must not be modified concurrently with its use.
type Registry struct {
	converters map[reflect.Type]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return new(Registry)
}

// Register adds a converter for type t. It returns an error wrapping
// ErrInvalidOperation if t already has a converter.
func (r *Registry) Register(t reflect.Type, c Converter) error {
	if t == nil {
		return fmt.Errorf("register converter: %w: nil type", ErrInvalidArgument)
	}
	if c.ToString == nil || c.FromString == nil {
		return fmt.Errorf("register converter for %v: %w: nil function", t, ErrInvalidArgument)
	}
	if _, exists := r.converters[t]; exists {
		return fmt.Errorf("register converter for %v: %w: already registered", t, ErrInvalidOperation)
	}
	if r.converters == nil {
		r.converters = make(map[reflect.Type]Converter)
	}
	r.converters[t] = c
	return nil
}

// RegisterFunc adds a converter for T built from a pair of typed functions.
func RegisterFunc[T any](r *Registry, toString func(T) string, fromString func(string) (T, bool)) error {
	if toString == nil || fromString == nil {
		return fmt.Errorf("register converter: %w: nil function", ErrInvalidArgument)
	}
	return r.Register(reflect.TypeOf((*T)(nil)).Elem(), Converter{
		ToString: func(v reflect.Value) string {
			return toString(v.Interface().(T))
		},
		FromString: func(s string) (reflect.Value, bool) {
			x, ok := fromString(s)
			if !ok {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(&x).Elem(), true
		},
	})
}

// Deregister removes the converter for type t. It returns an error wrapping
// ErrInvalidOperation if t has no converter.
func (r *Registry) Deregister(t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("deregister converter: %w: nil type", ErrInvalidArgument)
	}
	if _, exists := r.converters[t]; !exists {
		return fmt.Errorf("deregister converter for %v: %w: not registered", t, ErrInvalidOperation)
	}
	delete(r.converters, t)
	return nil
}

// Find returns the custom converter for type t.
func (r *Registry) Find(t reflect.Type) (Converter, bool) {
	if r == nil || t == nil {
		return Converter{}, false
	}
	c, ok := r.converters[t]
	return c, ok
}

// Handles reports whether values of type t can be converted, either by a
// custom converter or a built-in conversion.
func (r *Registry) Handles(t reflect.Type) bool {
	if _, ok := r.Find(t); ok {
		return true
	}
	switch t {
	case durationType, timeType:
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// Format converts v to its string representation. Floating point numbers use
// the decimal separator of locale.
func (r *Registry) Format(v reflect.Value, locale language.Tag) (string, error) {
	if !v.IsValid() {
		return "", fmt.Errorf("format value: %w: invalid value", ErrInvalidArgument)
	}
	t := v.Type()
	if c, ok := r.Find(t); ok {
		return c.ToString(v), nil
	}
	switch t {
	case durationType:
		return time.Duration(v.Int()).String(), nil
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339Nano), nil
	}
	switch t.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		s := strconv.FormatFloat(v.Float(), 'g', -1, t.Bits())
		if sep := DecimalSeparator(locale); sep != "." {
			s = strings.Replace(s, ".", sep, 1)
		}
		return s, nil
	}
	return "", fmt.Errorf("format %v: %w", t, ErrUnsupported)
}

// Parse converts s to a value of type t.
func (r *Registry) Parse(s string, t reflect.Type, locale language.Tag) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, fmt.Errorf("parse value: %w: nil type", ErrInvalidArgument)
	}
	if c, ok := r.Find(t); ok {
		v, ok := c.FromString(s)
		if !ok {
			return reflect.Value{}, fmt.Errorf("parse %q as %v: invalid representation", s, t)
		}
		return v, nil
	}
	v := reflect.New(t).Elem()
	switch t {
	case durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parse %q as %v: %w", s, t, err)
		}
		v.SetInt(int64(d))
		return v, nil
	case timeType:
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parse %q as %v: %w", s, t, err)
		}
		v.Set(reflect.ValueOf(tm))
		return v, nil
	}
	var err error
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		var b bool
		b, err = strconv.ParseBool(s)
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		n, err = strconv.ParseInt(s, 10, t.Bits())
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		n, err = strconv.ParseUint(s, 10, t.Bits())
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if sep := DecimalSeparator(locale); sep != "." {
			s = strings.Replace(s, sep, ".", 1)
		}
		var f float64
		f, err = strconv.ParseFloat(s, t.Bits())
		v.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("parse %v: %w", t, ErrUnsupported)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("parse %q as %v: %w", s, t, err)
	}
	return v, nil
}

var separators sync.Map // language.Tag -> string

// DecimalSeparator returns the decimal separator used by locale. The
// undetermined locale uses ".".
func DecimalSeparator(locale language.Tag) string {
	if locale == language.Und {
		return "."
	}
	if sep, ok := separators.Load(locale); ok {
		return sep.(string)
	}
	p := message.NewPrinter(locale)
	s := p.Sprintf("%v", number.Decimal(1.5, number.NoSeparator()))
	sep := strings.TrimSuffix(strings.TrimPrefix(s, "1"), "5")
	if sep == "" || sep == s {
		sep = "."
	}
	separators.Store(locale, sep)
	return sep
}

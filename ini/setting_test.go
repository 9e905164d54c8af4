// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseArray(t *testing.T) {
	tests := []struct {
		raw    string
		sep    rune
		want   []string
		wantOK bool
	}{
		{raw: "", sep: ',', wantOK: false},
		{raw: "abc", sep: ',', wantOK: false},
		{raw: "{abc", sep: ',', wantOK: false},
		{raw: "{}", sep: ',', want: []string{}, wantOK: true},
		{raw: "{  }", sep: ',', want: []string{}, wantOK: true},
		{raw: "{a}", sep: ',', want: []string{"a"}, wantOK: true},
		{raw: "{a, b ,c}", sep: ',', want: []string{"a", "b", "c"}, wantOK: true},
		{raw: "{a,,b}", sep: ',', want: []string{"a", "", "b"}, wantOK: true},
		{raw: "{a|b|c}", sep: '|', want: []string{"a", "b", "c"}, wantOK: true},
		{raw: "{a,b|c}", sep: '|', want: []string{"a,b", "c"}, wantOK: true},
		{raw: `{"a, b", c}`, sep: ',', want: []string{"a, b", "c"}, wantOK: true},
		{raw: `{" padded ", x}`, sep: ',', want: []string{" padded ", "x"}, wantOK: true},
		{raw: `{"say \"hi\", ok", "C:\\"}`, sep: ',', want: []string{`say "hi", ok`, `C:\`}, wantOK: true},
		{raw: `{""}`, sep: ',', want: []string{""}, wantOK: true},
		{raw: "{α·β·γ}", sep: '·', want: []string{"α", "β", "γ"}, wantOK: true},
	}
	for _, test := range tests {
		got, ok := ParseArray(test.raw, test.sep)
		if ok != test.wantOK {
			t.Errorf("ParseArray(%q, %q) ok = %t; want %t", test.raw, test.sep, ok, test.wantOK)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ParseArray(%q, %q) (-want +got):\n%s", test.raw, test.sep, diff)
		}
	}
}

func TestFormatArray(t *testing.T) {
	tests := []struct {
		values []string
		sep    rune
		want   string
	}{
		{values: nil, sep: ',', want: "{}"},
		{values: []string{"a"}, sep: ',', want: "{a}"},
		{values: []string{"String1", "String2", "String3"}, sep: '|', want: "{String1|String2|String3}"},
		{values: []string{"a,b", "c"}, sep: ',', want: `{"a,b",c}`},
		{values: []string{"a,b", "c"}, sep: '|', want: "{a,b|c}"},
		{values: []string{" x", ""}, sep: ',', want: `{" x",""}`},
		{values: []string{`q"uote`, "{brace}"}, sep: ',', want: `{"q\"uote","{brace}"}`},
	}
	for _, test := range tests {
		got := FormatArray(test.values, test.sep)
		if got != test.want {
			t.Errorf("FormatArray(%q, %q) = %q; want %q", test.values, test.sep, got, test.want)
		}
		back, ok := ParseArray(got, test.sep)
		if !ok {
			t.Errorf("ParseArray(%q, %q) not an array", got, test.sep)
			continue
		}
		want := test.values
		if want == nil {
			want = []string{}
		}
		if diff := cmp.Diff(want, back); diff != "" {
			t.Errorf("ParseArray(FormatArray(%q)) (-want +got):\n%s", test.values, diff)
		}
	}
}

func TestSettingArrayValues(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.SetArraySeparator('|'); err != nil {
		t.Fatal(err)
	}
	setting, err := NewSetting("List", "")
	if err != nil {
		t.Fatal(err)
	}
	if setting.IsArray() {
		t.Error("empty value IsArray() = true")
	}
	if _, ok := setting.ArrayValues(opts); ok {
		t.Error("ArrayValues on non-array value reported ok")
	}
	setting.SetArrayValues([]string{"String1", "String2", "String3"}, opts)
	if got, want := setting.Value(), "{String1|String2|String3}"; got != want {
		t.Errorf("Value() = %q; want %q", got, want)
	}
	if !setting.IsArray() {
		t.Error("IsArray() = false after SetArrayValues")
	}
	got, ok := setting.ArrayValues(opts)
	if !ok {
		t.Fatal("ArrayValues reported not an array")
	}
	if diff := cmp.Diff([]string{"String1", "String2", "String3"}, got); diff != "" {
		t.Errorf("ArrayValues (-want +got):\n%s", diff)
	}
}

func TestSettingMultiline(t *testing.T) {
	tests := []struct {
		value     string
		multiline bool
		inner     string
	}{
		{value: "", multiline: false},
		{value: "[[", multiline: false},
		{value: "[[]]", multiline: true, inner: ""},
		{value: "[[a\nb]]", multiline: true, inner: "a\nb"},
		{value: "[[a]", multiline: false},
		{value: "x[[a]]", multiline: false},
	}
	for _, test := range tests {
		setting, err := NewSetting("k", test.value)
		if err != nil {
			t.Fatal(err)
		}
		if got := setting.IsMultiline(); got != test.multiline {
			t.Errorf("NewSetting(\"k\", %q).IsMultiline() = %t; want %t", test.value, got, test.multiline)
		}
		inner, ok := setting.MultilineValue()
		if ok != test.multiline || inner != test.inner {
			t.Errorf("NewSetting(\"k\", %q).MultilineValue() = %q, %t; want %q, %t", test.value, inner, ok, test.inner, test.multiline)
		}
	}

	setting, _ := NewSetting("Text", "")
	setting.SetMultilineValue("first\n  second")
	if got, want := setting.Value(), "[[first\n  second]]"; got != want {
		t.Errorf("Value() = %q; want %q", got, want)
	}
	cfg := New()
	if err := cfg.Default().Add(setting); err != nil {
		t.Fatal(err)
	}
	text := cfg.Format(nil)
	if want := "Text = [[\nfirst\n  second\n]]\n"; text != want {
		t.Errorf("Format(nil) = %q; want %q", text, want)
	}
	cfg2, err := ParseString(text, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cfg2.Default().Get("Text")
	if err != nil {
		t.Fatal(err)
	}
	if got.Value() != setting.Value() {
		t.Errorf("round trip value = %q; want %q", got.Value(), setting.Value())
	}
}

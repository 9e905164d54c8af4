// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const binaryTestDocument = `# leading
global = 1

[Net] # network settings
Host = example.com
; port number
Port = 8080
Motd = [[
Hello,
  world!
]]

[Empty]

[Größe]
"a=b" = {x, "y, z"}
`

func TestBinaryRoundTrip(t *testing.T) {
	cfg, err := ParseString(binaryTestDocument, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	if err := cfg.EncodeBinary(buf, nil); err != nil {
		t.Fatal("EncodeBinary:", err)
	}
	got, err := DecodeBinary(buf)
	if err != nil {
		t.Fatal("DecodeBinary:", err)
	}
	if diff := cmp.Diff(snapshot(cfg), snapshot(got), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("DecodeBinary(EncodeBinary(...)) (-want +got):\n%s", diff)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left unread", buf.Len())
	}

	data, err := cfg.MarshalBinary()
	if err != nil {
		t.Fatal("MarshalBinary:", err)
	}
	got2 := New()
	if err := got2.UnmarshalBinary(data); err != nil {
		t.Fatal("UnmarshalBinary:", err)
	}
	if diff := cmp.Diff(snapshot(cfg), snapshot(got2), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("UnmarshalBinary(MarshalBinary()) (-want +got):\n%s", diff)
	}
}

func TestEncodeBinaryLayout(t *testing.T) {
	cfg := New()
	s := cfg.Section("S")
	s.Setting("k").SetValue("v")
	s.Setting("k").Comment = "c"
	got, err := cfg.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		1, 0, 0, 0, // section count
		1, 'S', // section name
		1, 0, 0, 0, // setting count
		0, 0, // section comments
		1, 'k', // setting name
		1, 'v', // setting value
		1, '#', 1, 'c', // inline comment
		0, // no pre-comment
	}
	if !bytes.Equal(got, want) {
		t.Errorf("MarshalBinary() = %v; want %v", got, want)
	}
}

func TestDecodeBinaryIgnoresLegacyChar(t *testing.T) {
	cfg, err := ParseString("# pre\nk = v ; c\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	hash := new(bytes.Buffer)
	if err := cfg.EncodeBinary(hash, nil); err != nil {
		t.Fatal(err)
	}
	semi := new(bytes.Buffer)
	if err := cfg.EncodeBinary(semi, &Options{PreferredCommentChar: ';'}); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(hash.Bytes(), semi.Bytes()) {
		t.Fatal("encodings with different comment chars are identical")
	}
	a, err := DecodeBinary(hash)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeBinary(semi)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snapshot(a), snapshot(b)); diff != "" {
		t.Errorf("decoded configurations differ (-'#' +';'):\n%s", diff)
	}
}

func TestDecodeBinaryTruncated(t *testing.T) {
	cfg, err := ParseString(binaryTestDocument, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := cfg.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < len(data); n++ {
		_, err := DecodeBinary(bytes.NewReader(data[:n]))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("DecodeBinary(data[:%d]) = _, %v; want %v", n, err, io.ErrUnexpectedEOF)
		}
	}
}

func TestDecodeBinaryInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		is   error
	}{
		{
			name: "NegativeCount",
			data: []byte{0xff, 0xff, 0xff, 0xff},
		},
		{
			name: "EmptySectionName",
			data: []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			is:   ErrInvalidArgument,
		},
		{
			name: "DuplicateSection",
			data: []byte{
				2, 0, 0, 0,
				1, 'A', 0, 0, 0, 0, 0, 0,
				1, 'a', 0, 0, 0, 0, 0, 0,
			},
			is: ErrDuplicateName,
		},
		{
			name: "DuplicateSetting",
			data: []byte{
				1, 0, 0, 0,
				1, 'A', 2, 0, 0, 0, 0, 0,
				1, 'k', 0, 0, 0,
				1, 'K', 0, 0, 0,
			},
			is: ErrDuplicateName,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeBinary(bytes.NewReader(test.data))
			if err == nil {
				t.Fatal("DecodeBinary did not return an error")
			}
			if test.is != nil && !errors.Is(err, test.is) {
				t.Errorf("DecodeBinary(...) = _, %v; want %v", err, test.is)
			}
		})
	}
}

func TestEncodeBinaryNilWriter(t *testing.T) {
	if err := New().EncodeBinary(nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("EncodeBinary(nil, nil) = %v; want %v", err, ErrInvalidArgument)
	}
	if _, err := DecodeBinary(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("DecodeBinary(nil) = _, %v; want %v", err, ErrInvalidArgument)
	}
}

// onlyReader hides the io.ByteReader implementation of its underlying reader.
type onlyReader struct {
	r io.Reader
}

func (r onlyReader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func TestDecodeBinaryBuffersPlainReader(t *testing.T) {
	cfg := New()
	cfg.Default().Setting("k").SetValue("v")
	data, err := cfg.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeBinary(onlyReader{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snapshot(cfg), snapshot(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

// Binary layout, all integers little-endian:
//
//	int32 sectionCount
//	sectionCount × {
//		string name
//		int32  settingCount
//		comments
//		settingCount × { string name; string value; comments }
//	}
//
// where comments is
//
//	bool hasComment    [char legacy; string comment]
//	bool hasPreComment [char legacy; string preComment]
//
// A string is its UTF-8 byte length as a uvarint followed by the bytes. A
// char is one UTF-8 encoded rune. The legacy char once held the comment
// delimiter; it is still written but ignored when reading.

// EncodeBinary writes the configuration to w in binary format. The preferred
// comment character from opts is written in the legacy char positions.
func (c *Configuration) EncodeBinary(w io.Writer, opts *Options) error {
	if w == nil {
		return fmt.Errorf("encode binary ini: %w: nil writer", ErrInvalidArgument)
	}
	if _, err := w.Write(c.appendBinary(nil, opts)); err != nil {
		return fmt.Errorf("encode binary ini: %w", err)
	}
	return nil
}

func (c *Configuration) appendBinary(buf []byte, opts *Options) []byte {
	legacy := opts.preferredCommentChar()
	buf = appendInt32(buf, c.Len())
	for _, s := range c.Sections() {
		buf = appendString(buf, s.name)
		buf = appendInt32(buf, len(s.settings))
		buf = appendComments(buf, &s.Element, legacy)
		for _, setting := range s.settings {
			buf = appendString(buf, setting.name)
			buf = appendString(buf, setting.value)
			buf = appendComments(buf, &setting.Element, legacy)
		}
	}
	return buf
}

func appendInt32(buf []byte, n int) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(int32(n)))
	return append(buf, b[:]...)
}

func appendString(buf []byte, s string) []byte {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(s)))
	buf = append(buf, b[:n]...)
	return append(buf, s...)
}

func appendComments(buf []byte, e *Element, legacy rune) []byte {
	for _, comment := range [...]string{e.Comment, e.PreComment} {
		if comment == "" {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		buf = appendRune(buf, legacy)
		buf = appendString(buf, comment)
	}
	return buf
}

func appendRune(buf []byte, r rune) []byte {
	var b [utf8.UTFMax]byte
	n := utf8.EncodeRune(b[:], r)
	return append(buf, b[:n]...)
}

// binaryReader is the subset of *bufio.Reader used for decoding.
type binaryReader interface {
	io.Reader
	io.ByteReader
	io.RuneReader
}

// DecodeBinary reads a configuration in binary format from r. If r does not
// implement io.ByteReader and io.RuneReader, it is buffered, and DecodeBinary
// may read past the end of the configuration.
//
// Decoding is strict: a truncated stream produces an error wrapping
// io.ErrUnexpectedEOF, and duplicate or empty names are rejected.
func DecodeBinary(r io.Reader) (*Configuration, error) {
	if r == nil {
		return nil, fmt.Errorf("decode binary ini: %w: nil reader", ErrInvalidArgument)
	}
	br, ok := r.(binaryReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &decoder{r: br}
	cfg, err := d.configuration()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("decode binary ini: %w", err)
	}
	return cfg, nil
}

type decoder struct {
	r binaryReader
}

func (d *decoder) configuration() (*Configuration, error) {
	cfg := New()
	sectionCount, err := d.count()
	if err != nil {
		return nil, err
	}
	for i := 0; i < sectionCount; i++ {
		name, err := d.string()
		if err != nil {
			return nil, err
		}
		s, err := NewSection(name)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		settingCount, err := d.count()
		if err != nil {
			return nil, err
		}
		if err := d.comments(&s.Element); err != nil {
			return nil, err
		}
		for j := 0; j < settingCount; j++ {
			if err := d.setting(s); err != nil {
				return nil, fmt.Errorf("section %q: %w", name, err)
			}
		}
		if err := cfg.Add(s); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (d *decoder) setting(s *Section) error {
	name, err := d.string()
	if err != nil {
		return err
	}
	value, err := d.string()
	if err != nil {
		return err
	}
	setting, err := NewSetting(name, value)
	if err != nil {
		return err
	}
	if err := d.comments(&setting.Element); err != nil {
		return err
	}
	return s.Add(setting)
}

func (d *decoder) comments(e *Element) error {
	for _, dst := range [...]*string{&e.Comment, &e.PreComment} {
		present, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		if present == 0 {
			continue
		}
		if _, _, err := d.r.ReadRune(); err != nil {
			return err
		}
		if *dst, err = d.string(); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) count() (int, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	n := int32(binary.LittleEndian.Uint32(b[:]))
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return int(n), nil
}

func (d *decoder) string() (string, error) {
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		return "", err
	}
	if n > math.MaxInt32 {
		return "", fmt.Errorf("string length %d too large", n)
	}
	// Copy incrementally so a corrupt length can't force a huge allocation.
	sb := new(strings.Builder)
	if _, err := io.CopyN(sb, d.r, int64(n)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

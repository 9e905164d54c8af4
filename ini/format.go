// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"fmt"
	"io"
)

// Format serializes the configuration in text format. Nil options are
// treated identically as passing DefaultOptions().
//
// The default section is written first and without a header. Other sections
// follow in order, separated by blank lines. Formatting the same
// configuration twice produces identical text.
func (c *Configuration) Format(opts *Options) string {
	return string(c.appendText(nil, opts))
}

// Write serializes the configuration in text format to w.
func (c *Configuration) Write(w io.Writer, opts *Options) error {
	if w == nil {
		return fmt.Errorf("write ini: %w: nil writer", ErrInvalidArgument)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("write ini: %w", err)
	}
	if _, err := w.Write(c.appendText(nil, opts)); err != nil {
		return fmt.Errorf("write ini: %w", err)
	}
	return nil
}

func (c *Configuration) appendText(buf []byte, opts *Options) []byte {
	if c == nil {
		return buf
	}
	if i := c.index(DefaultSectionName); i >= 0 {
		buf = c.sections[i].appendText(buf, opts)
	}
	for _, s := range c.sections {
		if s.IsDefault() {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, '\n')
		}
		buf = s.appendText(buf, opts)
	}
	return buf
}

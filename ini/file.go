// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ParseFile parses the text file at the given path.
func ParseFile(path string, opts *Options) (*Configuration, error) {
	if path == "" {
		return nil, fmt.Errorf("parse ini file: %w: empty path", ErrInvalidArgument)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse ini file: %w", err)
	}
	defer f.Close() // Close errors irrelevant.
	cfg, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseBinaryFile decodes the binary file at the given path.
func ParseBinaryFile(path string) (*Configuration, error) {
	if path == "" {
		return nil, fmt.Errorf("decode binary ini file: %w: empty path", ErrInvalidArgument)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode binary ini file: %w", err)
	}
	defer f.Close()
	cfg, err := DecodeBinary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile writes the configuration in text format to the given path. The
// file is replaced atomically.
func (c *Configuration) SaveFile(path string, opts *Options) error {
	if path == "" {
		return fmt.Errorf("save ini file: %w: empty path", ErrInvalidArgument)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("save ini file: %w", err)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return c.Write(w, opts)
	})
}

// SaveBinaryFile writes the configuration in binary format to the given
// path. The file is replaced atomically.
func (c *Configuration) SaveBinaryFile(path string, opts *Options) error {
	if path == "" {
		return fmt.Errorf("save binary ini file: %w: empty path", ErrInvalidArgument)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return c.EncodeBinary(w, opts)
	})
}

// writeFileAtomic writes to a temporary file in the destination directory and
// renames it over path once fully synced.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer os.Remove(tempFile.Name()) // Clean up temp file if rename fails.

	if err := write(tempFile); err != nil {
		tempFile.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Chmod(tempFile.Name(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

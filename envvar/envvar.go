// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package envvar provides functions to read environment variables for
// configuration.
package envvar

import (
	"os"
	"strconv"
	"strings"

	"github.com/yourbase/confkit/ini"
)

// Get returns the value of the given environment variable. If it is empty or
// unset, it returns the default value.
func Get(key string, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// Bool returns the value of a boolean environment variable. If it is unset or
// not one of the strings 1, t, T, TRUE, true, or True, then it returns false.
func Bool(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// SectionSeparator separates the section from the setting in the names of
// override variables.
const SectionSeparator = "__"

// Apply overrides settings in cfg from environment variables named
// prefix + "SECTION__SETTING". A variable without a section part, like
// prefix + "SETTING", addresses the default section. Sections and settings
// are matched case-insensitively and created if missing. environ holds
// "key=value" strings as returned by os.Environ; if nil, the process
// environment is used. Apply returns the number of settings it set.
func Apply(cfg *ini.Configuration, prefix string, environ []string) int {
	if environ == nil {
		environ = os.Environ()
	}
	n := 0
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		section, setting, found := strings.Cut(key[len(prefix):], SectionSeparator)
		if !found {
			section, setting = ini.DefaultSectionName, section
		}
		if section == "" || setting == "" {
			continue
		}
		cfg.Section(section).Setting(setting).SetValue(value)
		n++
	}
	return n
}

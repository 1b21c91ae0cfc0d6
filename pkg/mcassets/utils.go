// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSizeString parses a human-readable size string (e.g. "32MiB",
// "5GB", "1024") into bytes, returning def when s is empty. Exported
// for config-file loaders outside this package (internal/cli).
func ParseSizeString(s string, def uint64) (uint64, error) {
	return parseSizeString(s, def)
}

// parseSizeString parses a human-readable size string (e.g. "32MiB",
// "5GB", "1024") into bytes, returning def when s is empty.
func parseSizeString(s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}

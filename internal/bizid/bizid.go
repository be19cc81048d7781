// Package bizid generates human-readable sequential business identifiers
// such as MSB-2025-0001 or MSBI-0001 from the identifiers already stored.
package bizid

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultWidth = 4

	// Longer suffixes are treated as malformed so max+1 never overflows.
	maxDigits = 9
)

// Scheme describes the shape of one family of business IDs.
type Scheme struct {
	Prefix   string `yaml:"prefix"`
	WithYear bool   `yaml:"with_year"`
	Width    int    `yaml:"width"`
}

// Pattern returns the leading part shared by every ID of the scheme for
// the given year, e.g. "MSB-2025-" or "MSBI-".
func (s Scheme) Pattern(year int) string {
	if s.WithYear {
		return fmt.Sprintf("%s-%04d-", s.Prefix, year)
	}
	return s.Prefix + "-"
}

func (s Scheme) width() int {
	if s.Width <= 0 {
		return defaultWidth
	}
	return s.Width
}

// Format builds the ID carrying sequence number n.
func (s Scheme) Format(year, n int) string {
	return fmt.Sprintf("%s%0*d", s.Pattern(year), s.width(), n)
}

// Sequence extracts the trailing number of id. ok is false when id does
// not belong to the scheme/year or its last segment is not numeric.
func (s Scheme) Sequence(year int, id string) (int, bool) {
	pattern := s.Pattern(year)
	if !strings.HasPrefix(id, pattern) {
		return 0, false
	}

	// MSBI-0001 must not be read as a member of MSB-2025-...
	suffix := id[len(pattern):]
	if suffix == "" || len(suffix) > maxDigits || !allDigits(suffix) {
		return 0, false
	}

	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Next returns the ID following the highest sequence found in existing.
// Malformed or foreign identifiers are ignored, so an empty or unrelated
// set yields sequence 1.
func Next(s Scheme, year int, existing []string) string {
	max := 0
	for _, id := range existing {
		if n, ok := s.Sequence(year, strings.TrimSpace(id)); ok && n > max {
			max = n
		}
	}
	return s.Format(year, max+1)
}

package utils

import (
	"fmt"
	"strings"
	"time"
)

// Session timestamps arrive from clients and older API consumers as
// ISO-8601-like strings that sometimes omit the zone designator. They are
// always UTC; ParseUTC is the single normalization point for them.
func ParseUTC(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	if !hasZoneDesignator(s) {
		s = s + "Z"
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func hasZoneDesignator(s string) bool {
	// The first 10 characters are the date; dashes there are not an offset.
	if len(s) <= 10 {
		return false
	}
	rest := s[10:]
	return strings.ContainsAny(rest, "Zz+") || strings.Contains(rest, "-")
}

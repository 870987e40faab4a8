package models

import (
	"strings"
	"unicode"
)

// ParseYear extracts the first 4-digit run from a free-form date string.
// The second return value is false when no year is present.
func ParseYear(date string) (int, bool) {
	run := 0
	year := 0

	for _, r := range date {
		if unicode.IsDigit(r) {
			run++
			year = year*10 + int(r-'0')
			if run == 4 {
				return year, true
			}
		} else {
			run = 0
			year = 0
		}
	}

	return 0, false
}

// AuthorNames extracts display names for creators with the author role,
// in order. Two-part names become "Last, First"; single-field names are
// used as-is; entries with no name at all become "Unknown".
func AuthorNames(creators []Creator) []string {
	var names []string

	for _, c := range creators {
		if c.CreatorType != "author" {
			continue
		}
		names = append(names, c.DisplayName())
	}

	return names
}

// DisplayName renders a creator as a display string.
func (c Creator) DisplayName() string {
	last := strings.TrimSpace(c.LastName)
	first := strings.TrimSpace(c.FirstName)

	switch {
	case last != "" && first != "":
		return last + ", " + first
	case last != "":
		return last
	case first != "":
		return first
	case strings.TrimSpace(c.Name) != "":
		return strings.TrimSpace(c.Name)
	default:
		return "Unknown"
	}
}

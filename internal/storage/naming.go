package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxNameLen caps a sanitized last name.
const maxNameLen = 40

// GenerateFilename derives a deterministic, collision-free attachment
// filename from the ordered author list and publication year. The exists
// check is the only interaction with the environment; given a stable
// file listing the result is deterministic.
//
// Name shapes: "Smith2024.pdf", "SmithJones2024.pdf", "SmithEtAl2024.pdf",
// "UntitledNoYear.pdf". On collision, single-letter suffixes b..z are
// tried before falling back to a timestamp.
func GenerateFilename(authors []string, year int, exists func(string) bool) string {
	var base string
	switch len(authors) {
	case 0:
		base = "Untitled"
	case 1:
		base = sanitizeName(lastName(authors[0]))
	case 2:
		base = sanitizeName(lastName(authors[0])) + sanitizeName(lastName(authors[1]))
	default:
		base = sanitizeName(lastName(authors[0])) + "EtAl"
	}

	// Names that sanitize to nothing (no Latin letters at all) fall back
	// to the no-author shape.
	if base == "" || base == "EtAl" {
		base = "Untitled"
	}

	yearStr := "NoYear"
	if year > 0 {
		yearStr = fmt.Sprintf("%d", year)
	}

	candidate := base + yearStr + ".pdf"
	if !exists(candidate) {
		return candidate
	}

	// Suffixes start at "b": the unsuffixed name is the implicit "a".
	for c := 'b'; c <= 'z'; c++ {
		candidate = base + yearStr + string(c) + ".pdf"
		if !exists(candidate) {
			return candidate
		}
	}

	return fmt.Sprintf("%s%s_%d.pdf", base, yearStr, time.Now().Unix())
}

// lastName extracts the family name from a display name: the part before
// the first comma, or the last whitespace-delimited token.
func lastName(display string) string {
	if idx := strings.Index(display, ","); idx >= 0 {
		return strings.TrimSpace(display[:idx])
	}

	fields := strings.Fields(display)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// sanitizeName strips diacritics, drops everything outside
// [A-Za-z0-9_], and truncates to 40 characters.
func sanitizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var sb strings.Builder
	for _, r := range stripped {
		if r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}

	out := sb.String()
	if len(out) > maxNameLen {
		out = out[:maxNameLen]
	}
	return out
}

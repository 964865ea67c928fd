package contents

import (
	"strings"
)

// Entry is the parsed form of one Contents line: a file path and the ordered
// list of packages referencing it.
//
// Packages always has at least one element. When a line carries no package
// column the list is the single empty string. That sentinel reproduces an
// observed quirk of published Contents files; it is deliberately not filtered
// out, so it flows through counting like any other identifier.
type Entry struct {
	// Path is the installed file path. Empty for a blank line.
	Path string

	// Packages is the comma-separated package list in original order.
	// Duplicates are preserved; no per-line deduplication happens.
	Packages []string
}

// ParseLine converts one raw manifest line into an Entry.
//
// Runs of consecutive ASCII spaces are collapsed into a single space and the
// line is stripped of leading and trailing whitespace. The result is split on
// the one remaining space into at most two fields: the file path and the
// comma-separated package list.
//
// ParseLine never fails. A blank line, or a line without a package column,
// yields the empty-string package sentinel rather than an error: Contents
// files are large and externally produced, and a single malformed line must
// not halt aggregation. Fields beyond the second are ignored.
func ParseLine(line string) Entry {
	collapsed := collapseSpaces(strings.TrimSpace(line))

	fields := strings.Split(collapsed, " ")
	if len(fields) == 1 {
		return Entry{Path: fields[0], Packages: []string{""}}
	}

	return Entry{Path: fields[0], Packages: strings.Split(fields[1], ",")}
}

// collapseSpaces replaces every run of consecutive ASCII space characters
// with a single space. Only the space character is collapsed; it is the
// field separator actually used by Contents files.
func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

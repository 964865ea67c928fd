package model

import (
	"errors"
	"fmt"
	"strings"
)

// Architecture errors.
var (
	// ErrInvalidArchitecture is returned when the architecture is not in the
	// accepted set. The user-facing message enumerates the valid values.
	ErrInvalidArchitecture = errors.New("invalid architecture")
	// ErrEmptyArchitecture is returned when the architecture is empty.
	ErrEmptyArchitecture = errors.New("architecture cannot be empty")
)

// Architecture is an immutable value object representing a Debian machine
// architecture for which the mirror publishes a Contents index.
//
// Design decision: We validate at construction time rather than at each point
// of use. A value of this type is always a member of the accepted set, so
// downstream code (URL construction, database storage) never re-checks it.
type Architecture string

// architectures is the fixed set of accepted Debian architectures.
// The order here is the order shown in error messages and shell completion.
var architectures = []Architecture{
	"i386",
	"amd64",
	"armel",
	"arm64",
	"armhf",
	"mips",
	"mipsel",
	"mips64el",
	"ppc64el",
	"s390x",
}

// Architectures returns the accepted architecture identifiers in display order.
// The returned slice is a copy; callers may modify it freely.
func Architectures() []Architecture {
	out := make([]Architecture, len(architectures))
	copy(out, architectures)
	return out
}

// ArchitectureNames returns the accepted identifiers as plain strings.
// This is a convenience for cobra completion and help text.
func ArchitectureNames() []string {
	names := make([]string, len(architectures))
	for i, a := range architectures {
		names[i] = string(a)
	}
	return names
}

// ParseArchitecture validates s and returns it as an Architecture.
// Leading and trailing whitespace is trimmed and the value is lowercased
// before validation, so "AMD64 " parses to "amd64".
//
// Returns ErrEmptyArchitecture for an empty input and a wrapped
// ErrInvalidArchitecture (with the accepted set in the message) otherwise.
func ParseArchitecture(s string) (Architecture, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", ErrEmptyArchitecture
	}

	for _, a := range architectures {
		if Architecture(normalized) == a {
			return a, nil
		}
	}

	return "", fmt.Errorf("%w: %q (accepted: %s)",
		ErrInvalidArchitecture, s, strings.Join(ArchitectureNames(), ", "))
}

// String returns the architecture identifier.
func (a Architecture) String() string {
	return string(a)
}

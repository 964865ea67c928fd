package model

import (
	"errors"
	"strings"
	"testing"
)

// TestParseArchitecture tests validation of architecture identifiers.
func TestParseArchitecture(t *testing.T) {
	t.Parallel()

	t.Run("accepts every architecture in the set", func(t *testing.T) {
		t.Parallel()

		for _, name := range ArchitectureNames() {
			arch, err := ParseArchitecture(name)
			if err != nil {
				t.Errorf("expected %q to parse, got error: %v", name, err)
			}
			if arch.String() != name {
				t.Errorf("expected %q, got %q", name, arch)
			}
		}
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		t.Parallel()

		arch, err := ParseArchitecture("  AMD64 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if arch != "amd64" {
			t.Errorf("expected amd64, got %q", arch)
		}
	})

	t.Run("empty input returns ErrEmptyArchitecture", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseArchitecture("   "); !errors.Is(err, ErrEmptyArchitecture) {
			t.Errorf("expected ErrEmptyArchitecture, got %v", err)
		}
	})

	t.Run("unknown value returns ErrInvalidArchitecture", func(t *testing.T) {
		t.Parallel()

		_, err := ParseArchitecture("riscv64")
		if !errors.Is(err, ErrInvalidArchitecture) {
			t.Fatalf("expected ErrInvalidArchitecture, got %v", err)
		}
	})

	t.Run("error message enumerates the accepted set", func(t *testing.T) {
		t.Parallel()

		_, err := ParseArchitecture("sparc")
		if err == nil {
			t.Fatal("expected error")
		}
		for _, name := range ArchitectureNames() {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("expected error message to mention %q: %s", name, err)
			}
		}
	})
}

// TestArchitectures verifies the accessor returns a defensive copy.
func TestArchitectures(t *testing.T) {
	t.Parallel()

	archs := Architectures()
	if len(archs) != 10 {
		t.Fatalf("expected 10 architectures, got %d", len(archs))
	}

	archs[0] = "mutated"
	if Architectures()[0] == "mutated" {
		t.Error("expected Architectures to return a copy")
	}
}

package contents

import (
	"strings"
	"testing"
)

// TestNewScanner tests line scanning over a manifest stream.
func TestNewScanner(t *testing.T) {
	t.Parallel()

	t.Run("yields every line in order", func(t *testing.T) {
		t.Parallel()

		sc := NewScanner(strings.NewReader("one a\ntwo b\nthree c\n"))
		var lines []string
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		if len(lines) != 3 || lines[0] != "one a" || lines[2] != "three c" {
			t.Errorf("unexpected lines: %v", lines)
		}
	})

	t.Run("stream exhaustion is not an error", func(t *testing.T) {
		t.Parallel()

		sc := NewScanner(strings.NewReader(""))
		if sc.Scan() {
			t.Error("expected no lines from empty stream")
		}
		if err := sc.Err(); err != nil {
			t.Errorf("expected nil error at end of input, got %v", err)
		}
	})

	t.Run("accepts lines longer than the default scanner limit", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("a", 128<<10) + " util-a"
		sc := NewScanner(strings.NewReader(long + "\n"))
		if !sc.Scan() {
			t.Fatalf("expected to scan long line, err: %v", sc.Err())
		}
		if sc.Text() != long {
			t.Error("long line was truncated")
		}
	})
}

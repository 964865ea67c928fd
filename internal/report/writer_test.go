package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkgstats/pkgstats/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport(model.Architecture("amd64"),
		"http://ftp.uk.debian.org/debian", "stable", "main")
	report.DateGenerated = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report.Duration = 3 * time.Second
	report.LinesProcessed = 1234567
	report.DistinctPackages = 4204
	report.TopN = 3
	report.Packages = []model.PackageCount{
		{Package: "devel/piglit", Count: 51784},
		{Package: "science/esys-particle", Count: 18015},
		{Package: "math/acl2-books", Count: 16907},
	}
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the ranked list in column format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3", len(lines))
		}

		want := fmt.Sprintf("%4d. %-50s\t%d", 1, "devel/piglit", 51784)
		if lines[0] != want {
			t.Errorf("line 0 = %q, want %q", lines[0], want)
		}
		if !strings.HasPrefix(lines[1], "   2. science/esys-particle") {
			t.Errorf("line 1 = %q, want rank 2 for science/esys-particle", lines[1])
		}
	})

	t.Run("truncates long package identifiers", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Packages = []model.PackageCount{
			{Package: strings.Repeat("x", 60), Count: 1},
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), strings.Repeat("x", 47)+"...") {
			t.Errorf("expected truncated identifier with ellipsis, got %q", buf.String())
		}
		if strings.Contains(buf.String(), strings.Repeat("x", 48)) {
			t.Errorf("identifier not truncated to column width: %q", buf.String())
		}
	})

	t.Run("empty result writes nothing", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Packages = []model.PackageCount{}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected empty output, got %q", buf.String())
		}
	})

	t.Run("verbose adds header and grouped totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Architecture: amd64") {
			t.Error("expected output to contain architecture")
		}
		if !strings.Contains(output, "Status:       Complete") {
			t.Error("expected output to contain status")
		}
		if !strings.Contains(output, "1,234,567") {
			t.Error("expected grouped line total in footer")
		}
	})

	t.Run("verbose reports timeout status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.TimedOut = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TIMED OUT") {
			t.Error("expected timed-out status in header")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if decoded.Architecture != "amd64" {
			t.Errorf("architecture = %q, want amd64", decoded.Architecture)
		}
		if len(decoded.Packages) != 3 {
			t.Errorf("len(packages) = %d, want 3", len(decoded.Packages))
		}
		if decoded.Packages[0].Package != "devel/piglit" {
			t.Errorf("packages[0] = %q, want devel/piglit", decoded.Packages[0].Package)
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"architecture\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("full writer wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.2.3")

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if wrapped.Version != "1.2.3" {
			t.Errorf("version = %q, want 1.2.3", wrapped.Version)
		}
		if wrapped.Report == nil || wrapped.Report.DistinctPackages != 4204 {
			t.Error("expected embedded report with totals")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header table and package table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Package Statistics Report") {
			t.Error("expected report title")
		}
		if !strings.Contains(output, "`amd64`") {
			t.Error("expected architecture in header table")
		}
		if !strings.Contains(output, "Top 3 Packages") {
			t.Error("expected ranked section heading")
		}
		if !strings.Contains(output, "`devel/piglit`") {
			t.Error("expected top package in table")
		}
	})

	t.Run("renders the empty package sentinel distinctly", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Packages = []model.PackageCount{{Package: "", Count: 7}}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "*(no package column)*") {
			t.Error("expected sentinel placeholder in table")
		}
	})

	t.Run("empty result states no packages", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Packages = nil

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No packages counted.") {
			t.Error("expected empty-result message")
		}
	})
}

// failWriter always fails after n bytes, for MultiWriter error paths.
type failWriter struct{}

func (failWriter) Write(_ *model.Report) (int, error) {
	return 0, errors.New("sink closed")
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, jsonBuf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&jsonBuf))

		if _, err := mw.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failWriter{}, NewSimpleWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected no output after failing writer")
		}
	})
}

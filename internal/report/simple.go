package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkgstats/pkgstats/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// packageColumnWidth is the fixed column width for package identifiers in
// the ranked list. Longer identifiers are truncated with an ellipsis.
const packageColumnWidth = 50

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display: a ranked list of packages
// with aligned columns, optionally framed by a run summary.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the header and totals footer around the ranked list.
	verbose bool

	// printer formats grouped numbers in the totals footer.
	printer *message.Printer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the run summary header and totals footer.
// The default output is only the ranked list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
//
// Each entry is rendered as the rank right-aligned to four columns, the
// package identifier left-aligned to a fixed width, a tab, and the count.
// Ranks start at 1 in result order.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	if w.verbose {
		w.writeHeader(&sb, report)
	}

	for i, pkg := range report.Packages {
		sb.WriteString(fmt.Sprintf("%4d. %-*s\t%d\n",
			i+1, packageColumnWidth, truncateString(pkg.Package, packageColumnWidth), pkg.Count))
	}

	if w.verbose {
		w.writeFooter(&sb, report)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run parameters above the ranked list.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Architecture: %s\n", report.Architecture))
	sb.WriteString(fmt.Sprintf("Mirror:       %s\n", report.Mirror))
	sb.WriteString(fmt.Sprintf("Suite:        %s/%s\n", report.Suite, report.Component))
	sb.WriteString(fmt.Sprintf("Generated:    %s\n", report.DateGenerated.Format("2006-01-02 15:04:05 MST")))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:       TIMED OUT (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:       ERROR - %s\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:       Complete\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeFooter writes the aggregation totals below the ranked list.
// Number grouping follows English locale conventions (1,234,567).
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(w.printer.Sprintf("Lines processed:   %d\n", report.LinesProcessed))
	sb.WriteString(w.printer.Sprintf("Distinct packages: %d\n", report.DistinctPackages))
	sb.WriteString(fmt.Sprintf("Elapsed:           %s\n", report.Duration.Round(time.Millisecond)))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

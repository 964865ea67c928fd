package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/pkgstats/pkgstats/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writePackages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run parameters table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Package Statistics Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Architecture", "`" + string(report.Architecture) + "`"},
			{"Mirror", report.Mirror},
			{"Suite", report.Suite + "/" + report.Component},
			{"Generated", report.DateGenerated.Format("2006-01-02 15:04:05 MST")},
			{"Lines Processed", strconv.Itoa(report.LinesProcessed)},
			{"Distinct Packages", strconv.Itoa(report.DistinctPackages)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writePackages writes the ranked package table.
func (w *MarkdownWriter) writePackages(md *markdown.Markdown, report *model.Report) {
	md.H2("Top " + strconv.Itoa(report.TopN) + " Packages by File Count")
	md.PlainText("")

	if len(report.Packages) == 0 {
		md.PlainText("No packages counted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Packages))
	for i, pkg := range report.Packages {
		name := pkg.Package
		if name == "" {
			name = "*(no package column)*"
		} else {
			name = "`" + name + "`"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			name,
			strconv.Itoa(pkg.Count),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Package", "Files"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by pkgstats*")
}

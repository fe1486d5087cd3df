package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations write audit results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or several
// destinations at once with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AuditReport) (int, error)
}

// NewWriter returns the Writer for the given format.
// version is embedded in JSON output.
func NewWriter(format config.ReportFormat, output io.Writer, version string, verbose bool) (Writer, error) {
	switch format {
	case config.FormatText, "":
		return NewSimpleWriter(output, WithVerbose(verbose)), nil
	case config.FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case config.FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case config.FormatCSV:
		return NewCSVWriter(output), nil
	case config.FormatXLSX:
		return NewXLSXWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownReportFormat, format)
	}
}

// MultiWriter sends one report to several Writers in order, such as a
// report file and a summary on the terminal. Unlike io.MultiWriter, each
// destination renders the report in its own format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report with every Writer and returns the total bytes.
// Writers after a failing one are not called.
func (m *MultiWriter) Write(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts bytes for writers whose encoder owns the output.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// label turns a status value such as "needs_improvement" into "Needs Improvement".
func label(status string) string {
	if status == "" {
		return "-"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(status, "_", " "))
}

// score formats a one-decimal score.
func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// statusText describes how the audit ended.
func statusText(report *model.AuditReport) string {
	switch {
	case report.TimedOut:
		return "Timed out (partial results)"
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// pageRow is the per-page score row shared by the tabular formats.
func pageRow(p *model.PageAnalysis) []string {
	return []string{
		p.URL,
		score(p.OverallScore),
		score(p.Technical.Percentage),
		score(p.Content.Percentage),
		score(p.Accessibility.Percentage),
		strconv.Itoa(len(p.Issues)),
		strconv.Itoa(len(p.Warnings)),
	}
}

// pageColumns are the headers matching pageRow.
var pageColumns = []string{"URL", "Overall Score", "Technical SEO", "Content SEO", "Accessibility", "Critical Issues", "Warnings"}

const dateLayout = "2006-01-02 15:04:05 MST"

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/seoscan/internal/model"
	"github.com/rodaine/table"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for the terminal.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Tables from rodaine/table stay aligned without escape codes
type SimpleWriter struct {
	baseWriter

	// verbose adds per-page findings after the page table.
	verbose bool

	// summaryOnly limits the output to the header and site summary.
	summaryOnly bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-page issue, warning and highlight listings.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithSummaryOnly writes only the header and the site summary.
// It is used next to a report file, where the full report already lives.
func WithSummaryOnly() SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.summaryOnly = true
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if w.summaryOnly {
		w.writeFooter(&sb)
		return io.WriteString(w.output, sb.String())
	}
	w.writePages(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeAdvice(&sb, report)
	if w.verbose {
		w.writePageDetails(&sb, report)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          SEOSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:            %s\n", report.URL)
	fmt.Fprintf(sb, "Audit Date:     %s\n", report.Timestamp.Format(dateLayout))
	fmt.Fprintf(sb, "Audit ID:       %s\n", report.ID)
	fmt.Fprintf(sb, "Pages Crawled:  %d\n", report.CrawlStats.PagesCrawled)
	fmt.Fprintf(sb, "Links Found:    %d\n", report.CrawlStats.LinksFound)
	fmt.Fprintf(sb, "Status:         %s\n\n", statusText(report))
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	section(sb, "SITE SUMMARY")

	s := report.Summary
	if !s.Valid() {
		msg := "No summary available"
		if s != nil {
			msg = s.Error
		}
		fmt.Fprintf(sb, "  %s\n\n", msg)
		return
	}

	fmt.Fprintf(sb, "  Health:          %s\n", label(string(s.HealthStatus)))
	fmt.Fprintf(sb, "  Overall:         %s/100\n", score(s.AverageScores.Overall))
	fmt.Fprintf(sb, "  Technical SEO:   %s%%\n", score(s.AverageScores.Technical))
	fmt.Fprintf(sb, "  Content SEO:     %s%%\n", score(s.AverageScores.Content))
	fmt.Fprintf(sb, "  Accessibility:   %s%%\n\n", score(s.AverageScores.Accessibility))
	fmt.Fprintf(sb, "  Pages analyzed:  %d of %d\n", s.TotalPagesAnalyzed, s.TotalPagesCrawled)
	fmt.Fprintf(sb, "  Critical issues: %d\n", s.TotalIssues.Critical)
	fmt.Fprintf(sb, "  Warnings:        %d\n", s.TotalIssues.Warnings)
	fmt.Fprintf(sb, "  Broken links:    %d\n\n", s.TotalBrokenLinks)

	if len(s.CommonIssues) > 0 {
		sb.WriteString("  Most common issues:\n")
		for _, ci := range s.CommonIssues {
			fmt.Fprintf(sb, "    %3d x %s\n", ci.Count, ci.Issue)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Pages) == 0 {
		return
	}
	section(sb, "PAGES")

	tbl := table.New("URL", "Overall", "Tech", "Content", "Access", "Issues", "Warnings").WithWriter(sb)
	for _, p := range report.Pages {
		if p.IsError() {
			tbl.AddRow(truncateString(p.URL, 50), "error", "-", "-", "-", "-", "-")
			continue
		}
		row := pageRow(p)
		tbl.AddRow(truncateString(row[0], 50), row[1], row[2], row[3], row[4], row[5], row[6])
	}
	tbl.Print()
	sb.WriteString("\n")

	for _, p := range report.ErrorPages() {
		fmt.Fprintf(sb, "  [!] %s: %s\n", p.URL, p.Error)
	}
	if len(report.ErrorPages()) > 0 {
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.AuditReport) {
	if len(report.BrokenLinks) == 0 {
		return
	}
	section(sb, "BROKEN LINKS")

	tbl := table.New("URL", "Status", "Found On").WithWriter(sb)
	for _, bl := range report.BrokenLinks {
		status := strconv.Itoa(bl.StatusCode)
		if bl.StatusCode == 0 {
			status = "unreachable"
		}
		tbl.AddRow(truncateString(bl.URL, 50), status, truncateString(bl.FoundOn, 40))
	}
	tbl.Print()
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAdvice(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Advice) == 0 {
		return
	}
	section(sb, "ADVICE")

	for _, a := range report.Advice {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", adviceIndicator(a.Type), a.Category, a.Message)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePageDetails(sb *strings.Builder, report *model.AuditReport) {
	valid := report.ValidPages()
	if len(valid) == 0 {
		return
	}
	section(sb, "PAGE DETAILS")

	for _, p := range valid {
		fmt.Fprintf(sb, "%s (%s)\n", p.URL, score(p.OverallScore))
		for _, is := range p.Issues {
			fmt.Fprintf(sb, "  [!!!] %s\n        %s\n", is.Issue, is.Recommendation)
		}
		for _, is := range p.Warnings {
			fmt.Fprintf(sb, "  [!] %s\n      %s\n", is.Issue, is.Recommendation)
		}
		for _, r := range p.Recommendations {
			fmt.Fprintf(sb, "  [i] %s\n", r.Recommendation)
		}
		for _, h := range p.Highlights {
			fmt.Fprintf(sb, "  [+] %s\n", h.Highlight)
		}
		sb.WriteString("\n")
	}
}

func adviceIndicator(t model.AdviceType) string {
	switch t {
	case model.AdviceCritical:
		return "!!!"
	case model.AdviceWarning:
		return "!"
	case model.AdviceSuccess:
		return "+"
	default:
		return "i"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by seoscan\n")
	sb.WriteString("https://github.com/nao1215/seoscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

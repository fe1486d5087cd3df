package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/seoscan/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and mermaid charts
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeBrokenLinks(md, report)
	w.writeAdvice(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("SEO Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", report.URL},
			{"Audit Date", report.Timestamp.Format(dateLayout)},
			{"Audit ID", "`" + report.ID + "`"},
			{"Pages Crawled", strconv.Itoa(report.CrawlStats.PagesCrawled)},
			{"Links Found", strconv.Itoa(report.CrawlStats.LinksFound)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Site Summary")
	md.PlainText("")

	s := report.Summary
	if !s.Valid() {
		msg := "No summary available."
		if s != nil {
			msg = s.Error
		}
		md.Caution(msg)
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Health", label(string(s.HealthStatus))},
			{"Overall Score", score(s.AverageScores.Overall)},
			{"Technical SEO", score(s.AverageScores.Technical) + "%"},
			{"Content SEO", score(s.AverageScores.Content) + "%"},
			{"Accessibility", score(s.AverageScores.Accessibility) + "%"},
			{"Pages Analyzed", strconv.Itoa(s.TotalPagesAnalyzed)},
			{"Critical Issues", strconv.Itoa(s.TotalIssues.Critical)},
			{"Warnings", strconv.Itoa(s.TotalIssues.Warnings)},
			{"Broken Links", strconv.Itoa(s.TotalBrokenLinks)},
		},
	})
	md.PlainText("")

	if s.TotalIssues.Critical+s.TotalIssues.Warnings > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)

	if len(s.CommonIssues) > 0 {
		md.H3("Most Common Issues")
		md.PlainText("")
		rows := make([][]string, len(s.CommonIssues))
		for i, ci := range s.CommonIssues {
			rows[i] = []string{ci.Issue, strconv.Itoa(ci.Count)}
		}
		md.Table(markdown.TableSet{Header: []string{"Issue", "Pages"}, Rows: rows})
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of critical issues vs warnings.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.SiteSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)
	if s.TotalIssues.Critical > 0 {
		chart.LabelAndIntValue("Critical", uint64(s.TotalIssues.Critical))
	}
	if s.TotalIssues.Warnings > 0 {
		chart.LabelAndIntValue("Warning", uint64(s.TotalIssues.Warnings))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the site health.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.SiteSummary) {
	switch s.HealthStatus {
	case model.HealthPoor:
		md.Cautionf("Poor SEO health. %d critical issue(s) need immediate attention.", s.TotalIssues.Critical)
	case model.HealthNeedsImprovement:
		md.Warningf("SEO needs improvement. %d critical issue(s) and %d warning(s) found.",
			s.TotalIssues.Critical, s.TotalIssues.Warnings)
	case model.HealthGood:
		md.Note("Good SEO foundation. Address the warnings to reach excellent status.")
	default:
		md.Tip("Excellent SEO health.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Pages) == 0 {
		return
	}
	md.H2("Pages")
	md.PlainText("")

	valid := report.ValidPages()
	rows := make([][]string, 0, len(valid))
	for _, p := range valid {
		row := pageRow(p)
		row[0] = truncateString(row[0], 60)
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		md.Table(markdown.TableSet{Header: pageColumns, Rows: rows})
		md.PlainText("")
	}

	if failed := report.ErrorPages(); len(failed) > 0 {
		items := make([]string, len(failed))
		for i, p := range failed {
			items[i] = p.URL + ": " + p.Error
		}
		md.H3("Pages That Failed To Load")
		md.PlainText("")
		md.BulletList(items...)
		md.PlainText("")
	}

	for _, p := range valid {
		w.writePageFindings(md, p)
	}
}

// writePageFindings writes a collapsible block of one page's findings.
func (w *MarkdownWriter) writePageFindings(md *markdown.Markdown, p *model.PageAnalysis) {
	if len(p.Issues)+len(p.Warnings)+len(p.Recommendations) == 0 {
		return
	}

	body := markdown.NewMarkdown(io.Discard)
	for _, is := range p.Issues {
		body.PlainTextf("- **Critical:** %s. %s", is.Issue, is.Recommendation)
	}
	for _, is := range p.Warnings {
		body.PlainTextf("- **Warning:** %s. %s", is.Issue, is.Recommendation)
	}
	for _, r := range p.Recommendations {
		body.PlainTextf("- %s", r.Recommendation)
	}
	md.Details(p.URL, body.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Broken Links")
	md.PlainText("")

	if len(report.BrokenLinks) == 0 {
		md.PlainText("No broken links found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.BrokenLinks))
	for i, bl := range report.BrokenLinks {
		status := strconv.Itoa(bl.StatusCode)
		if bl.StatusCode == 0 {
			status = "unreachable"
		}
		rows[i] = []string{bl.URL, status, bl.FoundOn, truncateString(bl.LinkText, 40)}
	}
	md.Table(markdown.TableSet{Header: []string{"URL", "Status", "Found On", "Link Text"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAdvice(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Advice) == 0 {
		return
	}
	md.H2("Advice")
	md.PlainText("")

	items := make([]string, len(report.Advice))
	for i, a := range report.Advice {
		items[i] = "**" + a.Category + "** (" + string(a.Type) + "): " + a.Message
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [seoscan](https://github.com/nao1215/seoscan)*")
}

package report

import (
	"fmt"
	"io"

	"github.com/nao1215/seoscan/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX workbook.
const (
	SheetSummary     = "Summary"
	SheetPages       = "Pages"
	SheetBrokenLinks = "Broken Links"
)

// XLSXWriter outputs an Excel workbook with Summary, Pages and Broken Links
// sheets. Numeric cells are written as numbers so they can be sorted and
// charted in a spreadsheet.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write builds the workbook and writes it to the output.
func (w *XLSXWriter) Write(report *model.AuditReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return 0, err
	}
	if err := writeSummarySheet(f, report); err != nil {
		return 0, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writePagesSheet(f, report); err != nil {
		return 0, fmt.Errorf("pages sheet: %w", err)
	}
	if err := writeBrokenLinksSheet(f, report); err != nil {
		return 0, fmt.Errorf("broken links sheet: %w", err)
	}

	cw := &countingWriter{w: w.output}
	if err := f.Write(cw); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeSummarySheet(f *excelize.File, report *model.AuditReport) error {
	rows := [][]any{
		{"URL", report.URL},
		{"Audit ID", report.ID},
		{"Audit Date", report.Timestamp.Format(dateLayout)},
		{"Pages Crawled", report.CrawlStats.PagesCrawled},
		{"Links Found", report.CrawlStats.LinksFound},
		{"Status", statusText(report)},
	}

	if s := report.Summary; s.Valid() {
		rows = append(rows,
			[]any{"Health", label(string(s.HealthStatus))},
			[]any{"Overall Score", s.AverageScores.Overall},
			[]any{"Technical SEO", s.AverageScores.Technical},
			[]any{"Content SEO", s.AverageScores.Content},
			[]any{"Accessibility", s.AverageScores.Accessibility},
			[]any{"Pages Analyzed", s.TotalPagesAnalyzed},
			[]any{"Critical Issues", s.TotalIssues.Critical},
			[]any{"Warnings", s.TotalIssues.Warnings},
			[]any{"Broken Links", s.TotalBrokenLinks},
		)
	} else if s != nil {
		rows = append(rows, []any{"Error", s.Error})
	}

	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 18)
}

func writePagesSheet(f *excelize.File, report *model.AuditReport) error {
	if _, err := f.NewSheet(SheetPages); err != nil {
		return err
	}

	header := make([]any, len(pageColumns))
	for i, c := range pageColumns {
		header[i] = c
	}
	if err := setRow(f, SheetPages, 1, header); err != nil {
		return err
	}

	for i, p := range report.ValidPages() {
		row := []any{
			p.URL,
			p.OverallScore,
			p.Technical.Percentage,
			p.Content.Percentage,
			p.Accessibility.Percentage,
			len(p.Issues),
			len(p.Warnings),
		}
		if err := setRow(f, SheetPages, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetPages, "A", "A", 60)
}

func writeBrokenLinksSheet(f *excelize.File, report *model.AuditReport) error {
	if _, err := f.NewSheet(SheetBrokenLinks); err != nil {
		return err
	}
	if err := setRow(f, SheetBrokenLinks, 1, []any{"URL", "Status Code", "Found On", "Link Text"}); err != nil {
		return err
	}
	for i, bl := range report.BrokenLinks {
		if err := setRow(f, SheetBrokenLinks, i+2, []any{bl.URL, bl.StatusCode, bl.FoundOn, bl.LinkText}); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetBrokenLinks, "A", "C", 50)
}

package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/seoscan/internal/model"
)

// CSVWriter outputs one row per successfully analyzed page.
// Error pages are omitted because they have no scores.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the page score table in CSV format.
func (w *CSVWriter) Write(report *model.AuditReport) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := csv.NewWriter(cw)

	if err := enc.Write(pageColumns); err != nil {
		return cw.n, err
	}
	for _, p := range report.ValidPages() {
		if err := enc.Write(pageRow(p)); err != nil {
			return cw.n, err
		}
	}
	enc.Flush()
	return cw.n, enc.Error()
}

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is tabular content ready for rendering. Row cells are keyed by
// header name; missing cells render empty.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders datasets into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset as CSV with a header row.
func (e *CSVExporter) Render(ds Dataset) ([]byte, error) {
	if len(ds.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(ds.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range ds.Rows {
		record := make([]string, len(ds.Headers))
		for i, header := range ds.Headers {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

package app

import (
	"encoding/csv"
	"fmt"
	"io"

	"skincare_reviews/internal/domain"
)

// ExportAll writes every record as CSV using the upstream column names, so
// the output loads back into an identical dataset.
func (d *Dataset) ExportAll(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(domain.CanonicalFields))
	for i, f := range domain.CanonicalFields {
		header[i] = exportHeader[f]
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(domain.CanonicalFields))
	for _, r := range d.records {
		for i, f := range domain.CanonicalFields {
			rec[i] = formatValue(r.Value(f))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

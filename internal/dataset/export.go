package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Exporter renders rows as CSV records.
type Exporter[T any] struct {
	Header []string
	Row    func(T) []string
}

// WriteCSV writes the header followed by one record per row.
func (e Exporter[T]) WriteCSV(w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(e.Row(rows[i])); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes records with a header row taken from the first record.
// Nothing is written for an empty slice.
func WriteCSV(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(records[0].Names()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(records[0]))
	for i, rec := range records {
		row = row[:0]
		for _, f := range rec {
			row = append(row, text(f.Value))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

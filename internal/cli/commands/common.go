package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sensorwatch/sensorwatch/internal/export"
)

// newTable returns a writer aligning tab-separated columns
func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// parseSensorID parses a sensor id argument
func parseSensorID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid sensor id '%s'", arg)
	}
	return id, nil
}

// formatValue renders an optional value with its unit, "-" when absent
func formatValue(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

// printRecords writes export records as an aligned table
func printRecords(out io.Writer, records []export.Record) error {
	if len(records) == 0 {
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, strings.Join(records[0].Names(), "\t"))
	for _, rec := range records {
		cells := make([]string, 0, len(rec))
		for _, v := range rec.Values() {
			if v == nil {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, fmt.Sprint(v))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

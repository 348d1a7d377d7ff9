// Package export writes ordered tabular records as CSV or XLSX files.
package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is one named value of a record
type Field struct {
	Name  string
	Value any
}

// Record is an ordered list of fields. Records of one export share the same field names.
type Record []Field

// Names returns the field names in order
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Values returns the field values in order
func (r Record) Values() []any {
	values := make([]any, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

// Format is an export file format
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, nil
	case XLSX, "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format '%s', must be one of: csv, xlsx", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// text renders a value as a table cell
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	default:
		return fmt.Sprint(x)
	}
}

package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Write writes records to w in format
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case CSV:
		return WriteCSV(w, records)
	case XLSX:
		return WriteXLSX(w, records)
	}
	return fmt.Errorf("unsupported export format '%s'", format)
}

// FileName returns "<base>.<format>" with path separators removed from base
func FileName(base string, format Format) string {
	base = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(base))
	if base == "" {
		base = "export"
	}
	return base + "." + string(format)
}

// WriteFile writes records to dir/<base>.<format> and returns the path
func WriteFile(dir, base string, format Format, records []Record) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, records); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(base, format))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// In file: internal/claims/csv.go
package claims

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// IdentityParam is the query parameter that names an export file.
const IdentityParam = "reportedZipCode"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WriteCSV writes the header row followed by one row per record.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range t.records {
		row := t.Row(i)
		if len(row) == 1 && row[0] == "" {
			// A bare empty field would be a blank line, which readers skip.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. The header must name known,
// distinct columns; every row must have as many fields as the header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read CSV header: %w", ErrNoColumns)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		var rec Record
		for i, val := range row {
			if err := rec.SetField(columns[i], val); err != nil {
				return nil, fmt.Errorf("CSV line %d: %w", line, err)
			}
		}
		records = append(records, rec)
	}

	return NewTable(columns, records)
}

// ExportFileName names the CSV export after the query's identifying
// parameter: reportedZipCode when present, otherwise the value of the first
// parameter by key, otherwise "all".
func ExportFileName(params map[string]string) string {
	id := params[IdentityParam]
	if id == "" {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if params[k] != "" {
				id = params[k]
				break
			}
		}
	}
	id = strings.Trim(unsafeFileChars.ReplaceAllString(id, "_"), "_")
	if id == "" {
		id = "all"
	}
	return fmt.Sprintf("fema_data_%s.csv", id)
}

// WriteCSVFile writes t to dir/name, creating dir if needed, and returns the path.
func WriteCSVFile(dir, name string, t *Table) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

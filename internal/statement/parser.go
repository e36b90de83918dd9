// Package statement turns uploaded CSV bank statements into transaction
// candidates: a tolerant row parser followed by a normalizer that resolves
// amounts, dates and descriptions from bank-specific column names.
package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RawRow maps a header name to the cell value of one CSV line.
// Rows are ephemeral: produced and consumed within a single upload request.
type RawRow map[string]string

// ParseRows reads a CSV buffer with a header row into raw rows. Cells are
// trimmed; empty lines are skipped. A malformed file (unbalanced quotes,
// wrong column count) fails the whole parse, there is no partial-row
// recovery.
func ParseRows(data []byte) ([]RawRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		row := make(RawRow, len(header))
		empty := true
		for i, col := range header {
			val := strings.TrimSpace(record[i])
			row[col] = val
			if val != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// column returns the value of the first header matching one of the
// candidate names, case-insensitively. Candidate order decides ties.
func (r RawRow) column(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		for col, val := range r {
			if strings.EqualFold(col, candidate) {
				return val, true
			}
		}
	}
	return "", false
}

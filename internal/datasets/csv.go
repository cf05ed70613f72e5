package datasets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a header row followed by data rows. Blank cells become nil,
// numeric cells become float64, and everything else stays a string.
// Ragged rows are returned as-is for Import to validate.
func ParseCSV(data []byte) ([]string, [][]any, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrNoHeaders
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]any, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}

		row := make([]any, len(record))
		for i, field := range record {
			row[i] = parseCell(field)
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

func parseCell(field string) any {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return field
}

// Package datasets stores imported tabular survey data: a header row, the
// data rows, and per-column visibility flags. Raw uploads are archived to
// blob storage so the original file can be retrieved later.
package datasets

import (
	"io"
	"time"
)

// Dataset is an imported table. Cells hold a string, a float64, or nil.
type Dataset struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	UploadedAt     time.Time `json:"uploaded_at"`
	Headers        []string  `json:"headers"`
	Rows           [][]any   `json:"rows"`
	VisibleColumns []bool    `json:"visible_columns"`
	SourceKey      *string   `json:"source_key,omitempty"`
	ContentType    *string   `json:"content_type,omitempty"`
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of columns, which is the header count.
func (d *Dataset) ColumnCount() int {
	return len(d.Headers)
}

// Cell returns the value at (row, col) and whether the position is in bounds.
func (d *Dataset) Cell(row, col int) (any, bool) {
	if row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Headers) {
		return nil, false
	}
	if col >= len(d.Rows[row]) {
		return nil, true
	}
	return d.Rows[row][col], true
}

// Summary is the list view of a dataset without its cell data.
type Summary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	UploadedAt  time.Time `json:"uploaded_at"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
	SourceKey   *string   `json:"source_key,omitempty"`
	ContentType *string   `json:"content_type,omitempty"`
}

// ImportCommand carries parsed table data. Rows shorter than Headers are
// padded with nil; longer rows are rejected.
type ImportCommand struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// FileCommand carries a raw CSV upload. Name defaults to the file's base name.
type FileCommand struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// VisibilityCommand replaces the per-column visibility flags.
type VisibilityCommand struct {
	VisibleColumns []bool `json:"visible_columns"`
}

// Source is an archived raw upload. The caller must close Body.
type Source struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

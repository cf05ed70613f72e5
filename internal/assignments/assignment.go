// Package assignments is the label ledger: an append-only record of labels
// applied to dataset cells and rows. Every application gets a version number
// scoped to its target, counting how many times that target has been labeled.
package assignments

import (
	"strconv"
	"strings"
	"time"
)

// TargetKind distinguishes cell targets from whole-row targets.
type TargetKind string

const (
	TargetCell TargetKind = "cell"
	TargetRow  TargetKind = "row"
)

// Target identifies what a ledger entry labels. Build it with CellTarget or
// RowTarget. Row targets carry Column -1, matching their stored form.
type Target struct {
	Kind   TargetKind `json:"kind"`
	Row    int        `json:"row"`
	Column int        `json:"column"`
}

// CellTarget targets the cell at (row, col).
func CellTarget(row, col int) Target {
	return Target{Kind: TargetCell, Row: row, Column: col}
}

// RowTarget targets the whole row.
func RowTarget(row int) Target {
	return Target{Kind: TargetRow, Row: row, Column: -1}
}

// IsRow reports whether t targets a whole row.
func (t Target) IsRow() bool {
	return t.Kind == TargetRow
}

// Validate rejects negative indices and unknown kinds.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetCell:
		if t.Row < 0 || t.Column < 0 {
			return ErrInvalidTarget
		}
	case TargetRow:
		if t.Row < 0 || t.Column != -1 {
			return ErrInvalidTarget
		}
	default:
		return ErrInvalidTarget
	}
	return nil
}

func (t Target) String() string {
	if t.IsRow() {
		return "row " + strconv.Itoa(t.Row)
	}
	return "cell " + CellKey(t.Row, t.Column)
}

// Assignment is one immutable ledger entry.
type Assignment struct {
	ID        int64     `json:"id"`
	FileID    int64     `json:"file_id"`
	Target    Target    `json:"target"`
	LabelID   string    `json:"label_id"`
	AppliedAt time.Time `json:"applied_at"`
	AppliedBy *string   `json:"applied_by,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Version   int       `json:"version"`
}

// ApplyCommand describes a single label application.
type ApplyCommand struct {
	LabelID   string  `json:"label_id"`
	AppliedBy *string `json:"applied_by,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// CellRef addresses one cell in a batch.
type CellRef struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// BatchCommand applies one label to many cells and rows. Items are applied
// independently; a failure does not undo the others.
type BatchCommand struct {
	LabelID   string    `json:"label_id"`
	Cells     []CellRef `json:"cells"`
	Rows      []int     `json:"rows"`
	AppliedBy *string   `json:"applied_by,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
}

// BatchResult reports the outcome for one batch item.
type BatchResult struct {
	Target     Target      `json:"target"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Index is the in-memory view of a dataset's ledger, in ledger order and not
// deduplicated. Cells are keyed by CellKey.
type Index struct {
	Cells map[string][]string `json:"cells"`
	Rows  map[int][]string    `json:"rows"`
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		Cells: make(map[string][]string),
		Rows:  make(map[int][]string),
	}
}

// CellKey formats the "row-col" key used by Index.Cells.
func CellKey(row, col int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(col)
}

// ParseCellKey splits a "row-col" key.
func ParseCellKey(key string) (row, col int, ok bool) {
	rs, cs, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	r, err := strconv.Atoi(rs)
	if err != nil {
		return 0, 0, false
	}
	c, err := strconv.Atoi(cs)
	if err != nil {
		return 0, 0, false
	}
	return r, c, true
}

// Add records one entry's label at its target.
func (ix *Index) Add(a Assignment) {
	if a.Target.IsRow() {
		ix.Rows[a.Target.Row] = append(ix.Rows[a.Target.Row], a.LabelID)
		return
	}
	key := CellKey(a.Target.Row, a.Target.Column)
	ix.Cells[key] = append(ix.Cells[key], a.LabelID)
}

// CellLabels returns the labels applied to a cell.
func (ix *Index) CellLabels(row, col int) []string {
	return ix.Cells[CellKey(row, col)]
}

// RowLabels returns the labels applied to a whole row.
func (ix *Index) RowLabels(row int) []string {
	return ix.Rows[row]
}

// Entries counts label occurrences across all keys.
func (ix *Index) Entries() int {
	n := 0
	for _, ids := range ix.Cells {
		n += len(ids)
	}
	for _, ids := range ix.Rows {
		n += len(ids)
	}
	return n
}

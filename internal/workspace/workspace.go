// Package workspace holds the labeling session for one running service: the
// active dataset, the columns treated as demographics, the key column used to
// find respondents, and the ledger index of the active dataset.
//
// Ledger writes made through the workspace rebuild the index, so readers
// always see the ledger as of the last mutation.
package workspace

import (
	"strconv"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
)

// RowLabelsKey groups whole-row labels in Respondent.Labels. Cell labels are
// grouped under CellLabelsKey.
const RowLabelsKey = "row"

// State is a snapshot of the workspace. Dataset is nil when nothing is active.
type State struct {
	Dataset            *datasets.Dataset  `json:"dataset"`
	VisibleColumns     []bool             `json:"visible_columns"`
	DemographicColumns []string           `json:"demographic_columns"`
	KeyColumn          *string            `json:"key_column,omitempty"`
	Index              *assignments.Index `json:"index"`
}

// DemographicsCommand replaces the demographic column set by header name.
type DemographicsCommand struct {
	Columns []string `json:"columns"`
}

// KeyColumnCommand sets the column searched by Search. A nil Column clears it.
type KeyColumnCommand struct {
	Column *string `json:"column"`
}

// SearchResult lists the rows whose key column value matched a query.
type SearchResult struct {
	Column string `json:"column"`
	Query  string `json:"query"`
	Rows   []int  `json:"rows"`
}

// SelectionCommand labels every cell in the cross product of Rows and the
// selected columns. A header in Columns selects every column carrying it;
// ColumnIndices selects by position, which tells repeated headers apart.
type SelectionCommand struct {
	LabelID       string   `json:"label_id"`
	Rows          []int    `json:"rows"`
	Columns       []string `json:"columns,omitempty"`
	ColumnIndices []int    `json:"column_indices,omitempty"`
	AppliedBy *string  `json:"applied_by,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

// RespondentColumn is one cell of a respondent's row.
type RespondentColumn struct {
	Index       int                      `json:"index"`
	Header      string                   `json:"header"`
	Value       any                      `json:"value"`
	Demographic bool                     `json:"demographic"`
	Visible     bool                     `json:"visible"`
	Labels      []assignments.Assignment `json:"labels"`
}

// Respondent summarizes one row: its cells and every label on it. Labels
// groups the same entries under RowLabelsKey and CellLabelsKey(col).
type Respondent struct {
	Row       int                                 `json:"row"`
	Columns   []RespondentColumn                  `json:"columns"`
	RowLabels []assignments.Assignment            `json:"row_labels"`
	Labels    map[string][]assignments.Assignment `json:"labels"`
}

// CellLabelsKey is the Respondent.Labels key for a column's cell labels.
func CellLabelsKey(col int) string {
	return "cell-" + strconv.Itoa(col)
}

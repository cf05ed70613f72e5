package assignments

import (
	"fmt"

	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
)

var projection = query.
	NewProjectionMap("label_assignments", "a").
	Project("id", "ID").
	Project("file_id", "FileID").
	Project("row_index", "RowIndex").
	Project("column_index", "ColumnIndex").
	Project("label_id", "LabelID").
	Project("is_row_label", "IsRowLabel").
	Project("applied_at", "AppliedAt").
	Project("applied_by", "AppliedBy").
	Project("notes", "Notes").
	Project("version", "Version")

var ledgerOrder = query.SortField{Field: "ID"}

var historyOrder = []query.SortField{
	{Field: "Version", Descending: true},
	{Field: "ID", Descending: true},
}

// targetQuery selects every entry for the exact target, regardless of label.
func targetQuery(fileID int64, t Target) *query.Builder {
	return query.
		NewBuilder(projection, ledgerOrder).
		WhereEquals("FileID", fileID).
		WhereEquals("RowIndex", t.Row).
		WhereEquals("ColumnIndex", t.Column).
		WhereEquals("IsRowLabel", t.IsRow())
}

func scanAssignment(s repository.Scanner) (Assignment, error) {
	var (
		a     Assignment
		row   int
		col   int
		isRow bool
	)

	err := s.Scan(
		&a.ID,
		&a.FileID,
		&row,
		&col,
		&a.LabelID,
		&isRow,
		&a.AppliedAt,
		&a.AppliedBy,
		&a.Notes,
		&a.Version,
	)
	if err != nil {
		return a, err
	}

	if isRow {
		a.Target = RowTarget(row)
	} else {
		a.Target = CellTarget(row, col)
	}
	if a.Target.Column != col || a.Target.Validate() != nil {
		return a, fmt.Errorf("%w: entry %d", ErrCorruptEntry, a.ID)
	}
	return a, nil
}

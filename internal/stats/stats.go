// Package stats derives label statistics and row selections from a dataset,
// its ledger index, and the label catalog. Everything is recomputed from its
// inputs on each call.
package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/labels"
)

// Fallbacks for labels missing from the catalog.
const (
	UnknownLabelName  = "Unknown"
	UnknownLabelColor = "#8884D8"
)

// LabelCount is the number of ledger occurrences of one label.
type LabelCount struct {
	LabelID string `json:"label_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Count   int    `json:"count"`
}

// ColumnCount is the number of distinct labeled cells in one column.
type ColumnCount struct {
	Column int    `json:"column"`
	Header string `json:"header"`
	Count  int    `json:"count"`
}

// Summary aggregates label statistics for one dataset.
type Summary struct {
	TotalCells   int           `json:"total_cells"`
	TotalRows    int           `json:"total_rows"`
	LabeledCells int           `json:"labeled_cells"`
	LabeledRows  int           `json:"labeled_rows"`
	TotalEntries int           `json:"total_entries"`
	Coverage     float64       `json:"coverage"`
	Frequency    []LabelCount  `json:"frequency"`
	Columns      []ColumnCount `json:"columns"`
}

// Summarize computes every statistic for a dataset with the given headers
// and row count.
func Summarize(headers []string, rowCount int, ix *assignments.Index, catalog []labels.Label) Summary {
	cells, rows := labeledTargets(len(headers), rowCount, ix)

	return Summary{
		TotalCells:   rowCount * len(headers),
		TotalRows:    rowCount,
		LabeledCells: cells,
		LabeledRows:  rows,
		TotalEntries: ix.Entries(),
		Coverage:     Coverage(len(headers), rowCount, ix),
		Frequency:    Frequency(ix, catalog),
		Columns:      ColumnCounts(headers, rowCount, ix),
	}
}

// Frequency counts every label occurrence across cell and row entries,
// most frequent first with ties ordered by label id.
func Frequency(ix *assignments.Index, catalog []labels.Label) []LabelCount {
	counts := make(map[string]int)
	for _, ids := range ix.Cells {
		for _, id := range ids {
			counts[id]++
		}
	}
	for _, ids := range ix.Rows {
		for _, id := range ids {
			counts[id]++
		}
	}

	byID := make(map[string]labels.Label, len(catalog))
	for _, l := range catalog {
		byID[l.ID] = l
	}

	out := make([]LabelCount, 0, len(counts))
	for id, n := range counts {
		lc := LabelCount{LabelID: id, Name: UnknownLabelName, Color: UnknownLabelColor, Count: n}
		if l, ok := byID[id]; ok {
			lc.Name, lc.Color = l.Name, l.Color
		}
		out = append(out, lc)
	}

	slices.SortFunc(out, func(a, b LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.LabelID, b.LabelID)
	})
	return out
}

// Coverage is the share of cell and row targets carrying at least one label,
// as a percentage rounded half away from zero to one decimal.
func Coverage(columns, rowCount int, ix *assignments.Index) float64 {
	total := rowCount*columns + rowCount
	if total == 0 {
		return 0
	}
	cells, rows := labeledTargets(columns, rowCount, ix)
	return Round1(float64(cells+rows) / float64(total) * 100)
}

// ColumnCounts reports distinct labeled cells per column, in column order,
// omitting columns with none.
func ColumnCounts(headers []string, rowCount int, ix *assignments.Index) []ColumnCount {
	per := make([]int, len(headers))
	for key, ids := range ix.Cells {
		row, col, ok := assignments.ParseCellKey(key)
		if !ok || len(ids) == 0 || !inBounds(row, col, len(headers), rowCount) {
			continue
		}
		per[col]++
	}

	out := make([]ColumnCount, 0)
	for col, n := range per {
		if n > 0 {
			out = append(out, ColumnCount{Column: col, Header: headers[col], Count: n})
		}
	}
	return out
}

// Round1 rounds x to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// MatchRows returns the indices of rows whose value in column contains
// search, ignoring case. Blank searches and out-of-range columns match nothing.
func MatchRows(rows [][]any, column int, search string) []int {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]int, 0)
	if search == "" || column < 0 {
		return out
	}

	for i, row := range rows {
		if column >= len(row) || row[column] == nil {
			continue
		}
		if strings.Contains(strings.ToLower(cellText(row[column])), search) {
			out = append(out, i)
		}
	}
	return out
}

// SelectCells expands rows and columns into every (row, column) pair,
// row-major, for a batch apply.
func SelectCells(rows, columns []int) []assignments.CellRef {
	out := make([]assignments.CellRef, 0, len(rows)*len(columns))
	for _, r := range rows {
		for _, c := range columns {
			out = append(out, assignments.CellRef{Row: r, Column: c})
		}
	}
	return out
}

func labeledTargets(columns, rowCount int, ix *assignments.Index) (cells, rows int) {
	for key, ids := range ix.Cells {
		row, col, ok := assignments.ParseCellKey(key)
		if ok && len(ids) > 0 && inBounds(row, col, columns, rowCount) {
			cells++
		}
	}
	for row, ids := range ix.Rows {
		if len(ids) > 0 && row >= 0 && row < rowCount {
			rows++
		}
	}
	return cells, rows
}

func inBounds(row, col, columns, rowCount int) bool {
	return row >= 0 && row < rowCount && col >= 0 && col < columns
}

func cellText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

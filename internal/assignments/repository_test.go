package assignments_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/dbtest"
	"github.com/JaimeStill/tagline/pkg/metrics"
	"github.com/JaimeStill/tagline/pkg/repository"
)

type fixture struct {
	ledger  assignments.System
	db      *sql.DB
	metrics *metrics.OperationMetrics
	fileID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)

	m, err := metrics.NewOperationMetrics(prometheus.NewRegistry(), "tagline", "ledger")
	require.NoError(t, err)

	return &fixture{
		ledger:  assignments.New(db, dbtest.Logger(), m, 4),
		db:      db,
		metrics: m,
		fileID:  insertDataset(t, db),
	}
}

func insertDataset(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO datasets (name, uploaded_at, headers, row_data, row_count, column_count, visible_columns)
		 VALUES ('survey', $1, '["Q1","Q2"]', '[["a","b"],["c","d"]]', 2, 2, '[true,true]') RETURNING id`,
		time.Now().UTC(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func versions(items []assignments.Assignment) []int {
	out := make([]int, len(items))
	for i, a := range items {
		out[i] = a.Version
	}
	return out
}

func labelIDs(items []assignments.Assignment) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.LabelID
	}
	return out
}

func TestCellHistoryScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 0, "L1")
	require.NoError(t, err)

	history, err := f.ledger.CellHistory(ctx, f.fileID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions(history))
	assert.Equal(t, []string{"L1"}, labelIDs(history))

	_, err = f.ledger.ApplyCell(ctx, f.fileID, 0, 0, "L2")
	require.NoError(t, err)

	history, err = f.ledger.CellHistory(ctx, f.fileID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, versions(history))
	assert.Equal(t, []string{"L2", "L1"}, labelIDs(history))

	n, err := f.ledger.RemoveCell(ctx, f.fileID, 0, 0, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err = f.ledger.CellHistory(ctx, f.fileID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, "L2", history[0].LabelID)
}

func TestRowAndCellCountersAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row, err := f.ledger.ApplyRow(ctx, f.fileID, 1, "L3")
	require.NoError(t, err)
	cell, err := f.ledger.ApplyCell(ctx, f.fileID, 1, 0, "L4")
	require.NoError(t, err)

	assert.Equal(t, 1, row.Version)
	assert.Equal(t, 1, cell.Version)
	assert.True(t, row.Target.IsRow())
	assert.Equal(t, -1, row.Target.Column)
	assert.Equal(t, assignments.CellTarget(1, 0), cell.Target)
}

func TestVersionsFollowCallOrderAcrossLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := []string{"a", "b", "a", "c", "b"}
	for _, id := range ids {
		_, err := f.ledger.ApplyCell(ctx, f.fileID, 1, 1, id)
		require.NoError(t, err)
	}

	current, err := f.ledger.CurrentCell(ctx, f.fileID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, versions(current))
	assert.Equal(t, ids, labelIDs(current))
}

func TestConcurrentAppliesGetDistinctVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Go(func() {
			if _, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 1, "L"); err != nil {
				errs <- err
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("apply: %v", err)
	}

	history, err := f.ledger.CellHistory(ctx, f.fileID, 0, 1)
	require.NoError(t, err)
	require.Len(t, history, n)
	for i, a := range history {
		assert.Equal(t, n-i, a.Version)
	}
}

func TestRemoveMatchesExactTuple(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 0, "L1")
		require.NoError(t, err)
	}
	_, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 0, "L2")
	require.NoError(t, err)
	_, err = f.ledger.ApplyCell(ctx, f.fileID, 0, 1, "L1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyRow(ctx, f.fileID, 0, "L1")
	require.NoError(t, err)

	n, err := f.ledger.RemoveCell(ctx, f.fileID, 0, 0, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cell, err := f.ledger.CurrentCell(ctx, f.fileID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"L2"}, labelIDs(cell))

	other, err := f.ledger.CurrentCell(ctx, f.fileID, 0, 1)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	row, err := f.ledger.CurrentRow(ctx, f.fileID, 0)
	require.NoError(t, err)
	assert.Len(t, row, 1)

	n, err = f.ledger.RemoveRow(ctx, f.fileID, 0, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err := f.ledger.RowHistory(ctx, f.fileID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRemoveByIDKeepsOtherHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.ApplyCell(ctx, f.fileID, 1, 1, "L1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyCell(ctx, f.fileID, 1, 1, "L1")
	require.NoError(t, err)

	require.NoError(t, f.ledger.RemoveByID(ctx, first.ID))

	current, err := f.ledger.CurrentCell(ctx, f.fileID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, versions(current))

	assert.ErrorIs(t, f.ledger.RemoveByID(ctx, first.ID), assignments.ErrNotFound)
}

func TestLoadIndexCountsEveryApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	applies := []struct {
		target assignments.Target
		label  string
	}{
		{assignments.CellTarget(0, 0), "L1"},
		{assignments.CellTarget(0, 0), "L1"},
		{assignments.CellTarget(1, 1), "L2"},
		{assignments.RowTarget(0), "L3"},
		{assignments.RowTarget(0), "L2"},
	}
	for _, a := range applies {
		_, err := f.ledger.Apply(ctx, f.fileID, a.target, assignments.ApplyCommand{LabelID: a.label})
		require.NoError(t, err)
	}

	ix, err := f.ledger.LoadIndex(ctx, f.fileID)
	require.NoError(t, err)

	assert.Equal(t, len(applies), ix.Entries())
	assert.Equal(t, []string{"L1", "L1"}, ix.CellLabels(0, 0))
	assert.Equal(t, []string{"L2"}, ix.CellLabels(1, 1))
	assert.Equal(t, []string{"L3", "L2"}, ix.RowLabels(0))
	assert.Nil(t, ix.CellLabels(1, 0))
}

func TestRowEntriesSpanCellsAndRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 1, "L1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyRow(ctx, f.fileID, 0, "L2")
	require.NoError(t, err)
	_, err = f.ledger.ApplyCell(ctx, f.fileID, 1, 0, "L3")
	require.NoError(t, err)

	items, err := f.ledger.RowEntries(ctx, f.fileID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, assignments.CellTarget(0, 1), items[0].Target)
	assert.Equal(t, assignments.RowTarget(0), items[1].Target)

	_, err = f.ledger.RowEntries(ctx, f.fileID, -1)
	assert.ErrorIs(t, err, assignments.ErrInvalidTarget)
}

func TestApplyStoresAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	by, notes := "coder-1", "ambiguous answer"
	a, err := f.ledger.Apply(ctx, f.fileID, assignments.CellTarget(0, 1), assignments.ApplyCommand{
		LabelID:   "L1",
		AppliedBy: &by,
		Notes:     &notes,
	})
	require.NoError(t, err)

	current, err := f.ledger.CurrentCell(ctx, f.fileID, 0, 1)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, a.ID, current[0].ID)
	require.NotNil(t, current[0].AppliedBy)
	assert.Equal(t, by, *current[0].AppliedBy)
	require.NotNil(t, current[0].Notes)
	assert.Equal(t, notes, *current[0].Notes)
}

func TestUnsavedDatasetIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.ledger.ApplyCell(ctx, 0, 0, 0, "L1")
	assert.NoError(t, err)
	assert.Nil(t, a)

	n, err := f.ledger.RemoveRow(ctx, -1, 0, "L1")
	assert.NoError(t, err)
	assert.Zero(t, n)

	items, err := f.ledger.CellHistory(ctx, 0, 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, items)

	ix, err := f.ledger.LoadIndex(ctx, 0)
	assert.NoError(t, err)
	assert.Zero(t, ix.Entries())

	results, err := f.ledger.ApplyBatch(ctx, 0, assignments.BatchCommand{LabelID: "L1", Rows: []int{0}})
	assert.NoError(t, err)
	assert.Empty(t, results)

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM label_assignments").Scan(&count))
	assert.Zero(t, count)
}

func TestApplyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ApplyCell(ctx, f.fileID, -1, 0, "L1")
	assert.ErrorIs(t, err, assignments.ErrInvalidTarget)

	_, err = f.ledger.ApplyCell(ctx, f.fileID, 0, -1, "L1")
	assert.ErrorIs(t, err, assignments.ErrInvalidTarget)

	_, err = f.ledger.ApplyRow(ctx, f.fileID, 0, "  ")
	assert.ErrorIs(t, err, assignments.ErrEmptyLabel)

	_, err = f.ledger.Apply(ctx, f.fileID, assignments.Target{Kind: "column"}, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, assignments.ErrInvalidTarget)

	_, err = f.ledger.ApplyCell(ctx, f.fileID+100, 0, 0, "L1")
	assert.ErrorIs(t, err, assignments.ErrDatasetNotFound)
}

func TestApplyBatchReportsPerItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.ledger.ApplyBatch(ctx, f.fileID, assignments.BatchCommand{
		LabelID: "L1",
		Cells: []assignments.CellRef{
			{Row: 0, Column: 0},
			{Row: 0, Column: -5},
			{Row: 1, Column: 1},
		},
		Rows: []int{0, 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, assignments.CellTarget(0, 0), results[0].Target)
	assert.NotNil(t, results[0].Assignment)
	assert.Empty(t, results[0].Error)

	assert.Nil(t, results[1].Assignment)
	assert.NotEmpty(t, results[1].Error)

	assert.Equal(t, assignments.RowTarget(1), results[4].Target)
	assert.NotNil(t, results[4].Assignment)

	ix, err := f.ledger.LoadIndex(ctx, f.fileID)
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Entries())
}

func TestDeleteByLabelRunsInCallerTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := insertDataset(t, f.db)

	for _, fileID := range []int64{f.fileID, other} {
		_, err := f.ledger.ApplyCell(ctx, fileID, 0, 0, "gone")
		require.NoError(t, err)
		_, err = f.ledger.ApplyRow(ctx, fileID, 1, "gone")
		require.NoError(t, err)
		_, err = f.ledger.ApplyCell(ctx, fileID, 0, 0, "kept")
		require.NoError(t, err)
	}

	n, err := repository.WithTx(ctx, f.db, func(tx *sql.Tx) (int64, error) {
		return f.ledger.DeleteByLabel(ctx, tx, "gone")
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	var remaining int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM label_assignments WHERE label_id = 'gone'").Scan(&remaining))
	assert.Zero(t, remaining)
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM label_assignments").Scan(&remaining))
	assert.Equal(t, 2, remaining)
}

func TestOperationsAreMetered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ApplyCell(ctx, f.fileID, 0, 0, "L1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyCell(ctx, f.fileID, -1, 0, "L1")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Count("apply", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Count("apply", metrics.StatusError)))
}

package workspace_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/dbtest"
	"github.com/JaimeStill/tagline/internal/labels"
	"github.com/JaimeStill/tagline/internal/workspace"
	"github.com/JaimeStill/tagline/pkg/pagination"
	"github.com/JaimeStill/tagline/pkg/storage"
)

type fixture struct {
	ws       workspace.System
	datasets datasets.System
	ledger   assignments.System
	labels   labels.System
	survey   *datasets.Dataset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	logger := dbtest.Logger()

	cfg := storage.Config{Provider: storage.ProviderFilesystem, Root: t.TempDir()}
	require.NoError(t, cfg.Finalize(nil))
	store, err := storage.New(&cfg, logger)
	require.NoError(t, err)

	ledger := assignments.New(db, logger, nil, 2)
	catalog := labels.New(db, ledger, logger, "#3B82F6", time.Minute)
	ds := datasets.New(db, store, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	survey, err := ds.Import(context.Background(), datasets.ImportCommand{
		Name:    "wave 1",
		Headers: []string{"id", "age", "Q1", "Q2"},
		Rows: [][]any{
			{"R-001", 34, "good service", "slow"},
			{"R-002", 51, "bad", nil},
			{"r-010", 29, "okay", "fine"},
		},
	})
	require.NoError(t, err)

	return &fixture{
		ws:       workspace.New(ds, ledger, catalog, logger),
		datasets: ds,
		ledger:   ledger,
		labels:   catalog,
		survey:   survey,
	}
}

func (f *fixture) activate(t *testing.T) {
	t.Helper()
	_, err := f.ws.Activate(context.Background(), f.survey.ID)
	require.NoError(t, err)
}

func TestInactiveWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Dataset)
	assert.Equal(t, 0, st.Index.Entries())

	_, err = f.ws.SetColumnVisibility(ctx, []bool{true})
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.SetDemographicColumns(ctx, []string{"age"})
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.Search(ctx, "R")
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.ApplyCell(ctx, 0, 0, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.ApplyRow(ctx, 0, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.RemoveCell(ctx, 0, 0, "L1")
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.Stats(ctx)
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	_, err = f.ws.Respondent(ctx, 0)
	assert.ErrorIs(t, err, workspace.ErrNoActiveDataset)
	assert.ErrorIs(t, f.ws.RemoveByID(ctx, 1), workspace.ErrNoActiveDataset)
}

func TestActivateMissingDataset(t *testing.T) {
	f := newFixture(t)

	_, err := f.ws.Activate(context.Background(), f.survey.ID+100)
	assert.ErrorIs(t, err, datasets.ErrNotFound)
}

func TestActivateLoadsExistingLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ApplyCell(ctx, f.survey.ID, 0, 2, "L1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyRow(ctx, f.survey.ID, 2, "L2")
	require.NoError(t, err)

	st, err := f.ws.Activate(ctx, f.survey.ID)
	require.NoError(t, err)

	assert.Equal(t, f.survey.ID, st.Dataset.ID)
	assert.Equal(t, []string{"L1"}, st.Index.CellLabels(0, 2))
	assert.Equal(t, []string{"L2"}, st.Index.RowLabels(2))
	assert.Equal(t, []bool{true, true, true, true}, st.VisibleColumns)
}

func TestWritesRefreshIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	a, err := f.ws.ApplyCell(ctx, 0, 2, assignments.ApplyCommand{LabelID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Version)

	_, err = f.ws.ApplyCell(ctx, 0, 2, assignments.ApplyCommand{LabelID: "L1"})
	require.NoError(t, err)
	r, err := f.ws.ApplyRow(ctx, 1, assignments.ApplyCommand{LabelID: "L2"})
	require.NoError(t, err)

	st, err := f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L1"}, st.Index.CellLabels(0, 2))
	assert.Equal(t, []string{"L2"}, st.Index.RowLabels(1))

	n, err := f.ws.RemoveCell(ctx, 0, 2, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, f.ws.RemoveByID(ctx, r.ID))

	st, err = f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Index.Entries())

	assert.ErrorIs(t, f.ws.RemoveByID(ctx, r.ID), assignments.ErrNotFound)
}

func TestApplyRejectsOutOfRangeTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.ApplyCell(ctx, 3, 0, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)

	_, err = f.ws.ApplyCell(ctx, 0, 4, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrColumnOutOfRange)

	_, err = f.ws.ApplyRow(ctx, 3, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)

	_, err = f.ws.ApplyRow(ctx, 0, assignments.ApplyCommand{LabelID: " "})
	assert.ErrorIs(t, err, assignments.ErrEmptyLabel)
}

func TestDemographicColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.SetDemographicColumns(ctx, []string{"age", "income"})
	assert.ErrorIs(t, err, workspace.ErrUnknownColumn)

	st, err := f.ws.SetDemographicColumns(ctx, []string{"age", "age"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, st.DemographicColumns)

	_, err = f.ws.ApplyCell(ctx, 0, 1, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrDemographicColumn)

	st, err = f.ws.SetColumnVisibility(ctx, []bool{true, false, false, true})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, true}, st.VisibleColumns)
	assert.Equal(t, []bool{true, true, false, true}, st.Dataset.VisibleColumns)

	_, err = f.ws.SetColumnVisibility(ctx, []bool{true})
	assert.ErrorIs(t, err, datasets.ErrVisibilityLength)
}

func TestActivateDropsMissingColumnChoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.SetDemographicColumns(ctx, []string{"age", "id"})
	require.NoError(t, err)
	key := "id"
	_, err = f.ws.SetKeyColumn(ctx, &key)
	require.NoError(t, err)

	other, err := f.datasets.Import(ctx, datasets.ImportCommand{
		Name:    "wave 2",
		Headers: []string{"age", "Q9"},
		Rows:    [][]any{{40, "fine"}},
	})
	require.NoError(t, err)

	st, err := f.ws.Activate(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, st.DemographicColumns)
	assert.Nil(t, st.KeyColumn)
}

func TestSearchByKeyColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.Search(ctx, "R-0")
	assert.ErrorIs(t, err, workspace.ErrNoKeyColumn)

	bogus := "respondent"
	_, err = f.ws.SetKeyColumn(ctx, &bogus)
	assert.ErrorIs(t, err, workspace.ErrUnknownColumn)

	key := "id"
	st, err := f.ws.SetKeyColumn(ctx, &key)
	require.NoError(t, err)
	require.NotNil(t, st.KeyColumn)
	assert.Equal(t, "id", *st.KeyColumn)

	res, err := f.ws.Search(ctx, "r-0")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, res.Rows)

	res, err = f.ws.Search(ctx, "01")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, res.Rows)

	res, err = f.ws.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	st, err = f.ws.SetKeyColumn(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, st.KeyColumn)
}

func TestApplySelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.SetDemographicColumns(ctx, []string{"age"})
	require.NoError(t, err)

	results, err := f.ws.ApplySelection(ctx, workspace.SelectionCommand{
		LabelID: "L1",
		Rows:    []int{0, 2},
		Columns: []string{"Q1", "Q2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Empty(t, r.Error)
	}
	assert.Equal(t, assignments.CellTarget(2, 2), results[2].Target)

	st, err := f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Index.Entries())
	assert.Equal(t, []string{"L1"}, st.Index.CellLabels(2, 3))

	_, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{LabelID: "L1", Rows: []int{0}, Columns: []string{"age"}})
	assert.ErrorIs(t, err, workspace.ErrDemographicColumn)

	_, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{LabelID: "L1", Rows: []int{0}, Columns: []string{"Q7"}})
	assert.ErrorIs(t, err, workspace.ErrUnknownColumn)

	_, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{LabelID: "L1", Rows: []int{9}, Columns: []string{"Q1"}})
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)
}

func TestRepeatedHeadersResolveByPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dup, err := f.datasets.Import(ctx, datasets.ImportCommand{
		Name:    "repeated",
		Headers: []string{"id", "note", "Q", "note", "Q"},
		Rows: [][]any{
			{"a-1", "x", "yes", "y", "no"},
			{"b-2", "x", "no", "y", "yes"},
		},
	})
	require.NoError(t, err)
	_, err = f.ws.Activate(ctx, dup.ID)
	require.NoError(t, err)

	results, err := f.ws.ApplySelection(ctx, workspace.SelectionCommand{
		LabelID: "L1",
		Rows:    []int{0},
		Columns: []string{"Q"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, assignments.CellTarget(0, 2), results[0].Target)
	assert.Equal(t, assignments.CellTarget(0, 4), results[1].Target)

	results, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{
		LabelID:       "L2",
		Rows:          []int{1},
		ColumnIndices: []int{4, 4},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, assignments.CellTarget(1, 4), results[0].Target)

	_, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{LabelID: "L2", Rows: []int{1}, ColumnIndices: []int{5}})
	assert.ErrorIs(t, err, workspace.ErrColumnOutOfRange)

	st, err := f.ws.SetDemographicColumns(ctx, []string{"note"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, true, true}, st.VisibleColumns)

	st, err = f.ws.SetColumnVisibility(ctx, []bool{true, false, false, false, false})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, true, false}, st.VisibleColumns)

	_, err = f.ws.ApplyCell(ctx, 0, 3, assignments.ApplyCommand{LabelID: "L1"})
	assert.ErrorIs(t, err, workspace.ErrDemographicColumn)
	_, err = f.ws.ApplySelection(ctx, workspace.SelectionCommand{LabelID: "L1", Rows: []int{0}, ColumnIndices: []int{3}})
	assert.ErrorIs(t, err, workspace.ErrDemographicColumn)

	key := "Q"
	_, err = f.ws.SetKeyColumn(ctx, &key)
	require.NoError(t, err)
	res, err := f.ws.Search(ctx, "yes")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Rows)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	pos, err := f.labels.Create(ctx, labels.CreateCommand{Name: "Positive", Color: "#22C55E"})
	require.NoError(t, err)

	for _, apply := range []func() (*assignments.Assignment, error){
		func() (*assignments.Assignment, error) {
			return f.ws.ApplyCell(ctx, 0, 2, assignments.ApplyCommand{LabelID: pos.ID})
		},
		func() (*assignments.Assignment, error) {
			return f.ws.ApplyRow(ctx, 1, assignments.ApplyCommand{LabelID: pos.ID})
		},
		func() (*assignments.Assignment, error) {
			return f.ws.ApplyCell(ctx, 1, 3, assignments.ApplyCommand{LabelID: "ghost"})
		},
	} {
		_, err := apply()
		require.NoError(t, err)
	}

	s, err := f.ws.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 12, s.TotalCells)
	assert.Equal(t, 3, s.TotalRows)
	assert.Equal(t, 2, s.LabeledCells)
	assert.Equal(t, 1, s.LabeledRows)
	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, 20.0, s.Coverage)

	require.Len(t, s.Frequency, 2)
	assert.Equal(t, "Positive", s.Frequency[0].Name)
	assert.Equal(t, 2, s.Frequency[0].Count)
	assert.Equal(t, "Unknown", s.Frequency[1].Name)
}

func TestRespondent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	_, err := f.ws.SetDemographicColumns(ctx, []string{"age"})
	require.NoError(t, err)

	_, err = f.ws.ApplyCell(ctx, 1, 2, assignments.ApplyCommand{LabelID: "L1"})
	require.NoError(t, err)
	_, err = f.ws.ApplyRow(ctx, 1, assignments.ApplyCommand{LabelID: "L2"})
	require.NoError(t, err)
	_, err = f.ws.ApplyCell(ctx, 1, 3, assignments.ApplyCommand{LabelID: "L3"})
	require.NoError(t, err)
	_, err = f.ws.ApplyCell(ctx, 0, 2, assignments.ApplyCommand{LabelID: "L4"})
	require.NoError(t, err)

	resp, err := f.ws.Respondent(ctx, 1)
	require.NoError(t, err)

	require.Len(t, resp.Columns, 4)
	assert.Equal(t, "R-002", resp.Columns[0].Value)
	assert.Equal(t, 51.0, resp.Columns[1].Value)
	assert.True(t, resp.Columns[1].Demographic)
	assert.Nil(t, resp.Columns[3].Value)
	assert.Empty(t, resp.Columns[0].Labels)
	require.Len(t, resp.Columns[2].Labels, 1)
	assert.Equal(t, "L1", resp.Columns[2].Labels[0].LabelID)

	require.Len(t, resp.RowLabels, 1)
	assert.Equal(t, "L2", resp.RowLabels[0].LabelID)

	assert.Len(t, resp.Labels, 3)
	assert.Contains(t, resp.Labels, workspace.RowLabelsKey)
	assert.Contains(t, resp.Labels, "cell-2")
	assert.Contains(t, resp.Labels, "cell-3")

	_, err = f.ws.Respondent(ctx, 3)
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)
}

func TestInvalidateRescansOnNextRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activate(t)

	l, err := f.labels.Create(ctx, labels.CreateCommand{Name: "Negative"})
	require.NoError(t, err)

	_, err = f.ws.ApplyCell(ctx, 1, 2, assignments.ApplyCommand{LabelID: l.ID})
	require.NoError(t, err)
	require.NoError(t, f.labels.Delete(ctx, l.ID))

	st, err := f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Index.Entries())

	f.ws.Invalidate()

	st, err = f.ws.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Index.Entries())
}

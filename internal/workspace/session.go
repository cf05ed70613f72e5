package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/labels"
	"github.com/JaimeStill/tagline/internal/stats"
)

type session struct {
	datasets datasets.System
	ledger   assignments.System
	labels   labels.System
	logger   *slog.Logger

	// mu guards the fields below. Writes hold it across the ledger call and
	// the index rebuild so the index never lags a completed mutation.
	mu           sync.Mutex
	active       *datasets.Dataset
	demographics []string
	keyColumn    *string
	index        *assignments.Index
}

// New creates a workspace with no active dataset.
func New(
	ds datasets.System,
	ledger assignments.System,
	catalog labels.System,
	logger *slog.Logger,
) System {
	return &session{
		datasets:     ds,
		ledger:       ledger,
		labels:       catalog,
		logger:       logger.With("system", "workspace"),
		demographics: []string{},
	}
}

func (s *session) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// Activate makes the dataset active and rebuilds its index. Demographic and
// key column choices survive when the new dataset has the same headers.
func (s *session) Activate(ctx context.Context, id int64) (*State, error) {
	ds, err := s.datasets.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ix, err := s.ledger.LoadIndex(ctx, ds.ID)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = ds
	s.index = ix
	s.demographics = slices.DeleteFunc(s.demographics, func(h string) bool {
		return !slices.Contains(ds.Headers, h)
	})
	if s.keyColumn != nil && !slices.Contains(ds.Headers, *s.keyColumn) {
		s.keyColumn = nil
	}

	s.logger.Info("dataset activated", "id", ds.ID, "name", ds.Name, "entries", ix.Entries())
	return s.snapshot(), nil
}

func (s *session) Active(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		if _, err := s.ensureIndex(ctx); err != nil {
			return nil, err
		}
	}
	return s.snapshot(), nil
}

// SetColumnVisibility persists flags for the active dataset. Demographic
// columns are stored visible whatever their flag says.
func (s *session) SetColumnVisibility(ctx context.Context, flags []bool) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}

	flags = slices.Clone(flags)
	if len(flags) == s.active.ColumnCount() {
		for _, col := range s.demographicIndices() {
			flags[col] = true
		}
	}

	ds, err := s.datasets.SetColumnVisibility(ctx, s.active.ID, flags)
	if err != nil {
		return nil, err
	}
	s.active = ds

	return s.snapshot(), nil
}

func (s *session) SetDemographicColumns(ctx context.Context, headers []string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}

	set := make([]string, 0, len(headers))
	for _, h := range headers {
		if !slices.Contains(s.active.Headers, h) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, h)
		}
		if !slices.Contains(set, h) {
			set = append(set, h)
		}
	}
	s.demographics = set

	s.logger.Info("demographic columns set", "id", s.active.ID, "columns", set)
	return s.snapshot(), nil
}

func (s *session) SetKeyColumn(ctx context.Context, header *string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}

	if header == nil || *header == "" {
		s.keyColumn = nil
		return s.snapshot(), nil
	}
	if !slices.Contains(s.active.Headers, *header) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, *header)
	}

	h := *header
	s.keyColumn = &h
	return s.snapshot(), nil
}

// Search matches q against the key column, ignoring case. When the key
// header repeats, the first column carrying it is searched.
func (s *session) Search(ctx context.Context, q string) (*SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}
	if s.keyColumn == nil {
		return nil, ErrNoKeyColumn
	}

	col := slices.Index(s.active.Headers, *s.keyColumn)
	return &SearchResult{
		Column: *s.keyColumn,
		Query:  q,
		Rows:   stats.MatchRows(s.active.Rows, col, q),
	}, nil
}

func (s *session) ApplyCell(ctx context.Context, row, col int, cmd assignments.ApplyCommand) (*assignments.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCell(row, col); err != nil {
		return nil, err
	}

	a, err := s.ledger.Apply(ctx, s.active.ID, assignments.CellTarget(row, col), cmd)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return a, nil
}

func (s *session) ApplyRow(ctx context.Context, row int, cmd assignments.ApplyCommand) (*assignments.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRow(row); err != nil {
		return nil, err
	}

	a, err := s.ledger.Apply(ctx, s.active.ID, assignments.RowTarget(row), cmd)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return a, nil
}

// ApplySelection labels every cell where a selected row meets a selected
// column. Unknown or demographic columns reject the whole selection; after
// that, items succeed or fail independently.
func (s *session) ApplySelection(ctx context.Context, cmd SelectionCommand) ([]assignments.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}

	cols := make([]int, 0, len(cmd.Columns)+len(cmd.ColumnIndices))
	for _, h := range cmd.Columns {
		matched := s.columnsNamed(h)
		if len(matched) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, h)
		}
		cols = append(cols, matched...)
	}
	for _, col := range cmd.ColumnIndices {
		if col < 0 || col >= s.active.ColumnCount() {
			return nil, fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
		}
		cols = append(cols, col)
	}
	slices.Sort(cols)
	cols = slices.Compact(cols)
	for _, col := range cols {
		if h := s.active.Headers[col]; slices.Contains(s.demographics, h) {
			return nil, fmt.Errorf("%w: %q", ErrDemographicColumn, h)
		}
	}
	for _, row := range cmd.Rows {
		if err := s.checkRow(row); err != nil {
			return nil, err
		}
	}

	results, err := s.ledger.ApplyBatch(ctx, s.active.ID, assignments.BatchCommand{
		LabelID:   cmd.LabelID,
		Cells:     stats.SelectCells(cmd.Rows, cols),
		AppliedBy: cmd.AppliedBy,
		Notes:     cmd.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return results, nil
}

func (s *session) RemoveCell(ctx context.Context, row, col int, labelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return 0, ErrNoActiveDataset
	}

	n, err := s.ledger.RemoveCell(ctx, s.active.ID, row, col, labelID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.refresh(ctx)
	}
	return n, nil
}

func (s *session) RemoveRow(ctx context.Context, row int, labelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return 0, ErrNoActiveDataset
	}

	n, err := s.ledger.RemoveRow(ctx, s.active.ID, row, labelID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.refresh(ctx)
	}
	return n, nil
}

func (s *session) RemoveByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveDataset
	}

	if err := s.ledger.RemoveByID(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *session) Stats(ctx context.Context) (*stats.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, ErrNoActiveDataset
	}

	ix, err := s.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := s.labels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	summary := stats.Summarize(s.active.Headers, s.active.RowCount(), ix, catalog)
	return &summary, nil
}

// Respondent gathers one row's cells with every ledger entry on the row.
func (s *session) Respondent(ctx context.Context, row int) (*Respondent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRow(row); err != nil {
		return nil, err
	}

	entries, err := s.ledger.RowEntries(ctx, s.active.ID, row)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]assignments.Assignment)
	for _, a := range entries {
		key := RowLabelsKey
		if !a.Target.IsRow() {
			key = CellLabelsKey(a.Target.Column)
		}
		grouped[key] = append(grouped[key], a)
	}

	visible := s.visibility()
	columns := make([]RespondentColumn, len(s.active.Headers))
	for col, header := range s.active.Headers {
		value, _ := s.active.Cell(row, col)
		cellLabels := grouped[CellLabelsKey(col)]
		if cellLabels == nil {
			cellLabels = []assignments.Assignment{}
		}
		columns[col] = RespondentColumn{
			Index:       col,
			Header:      header,
			Value:       value,
			Demographic: slices.Contains(s.demographics, header),
			Visible:     visible[col],
			Labels:      cellLabels,
		}
	}

	rowLabels := grouped[RowLabelsKey]
	if rowLabels == nil {
		rowLabels = []assignments.Assignment{}
	}

	return &Respondent{
		Row:       row,
		Columns:   columns,
		RowLabels: rowLabels,
		Labels:    grouped,
	}, nil
}

func (s *session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
}

func (s *session) checkRow(row int) error {
	if s.active == nil {
		return ErrNoActiveDataset
	}
	if row < 0 || row >= s.active.RowCount() {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return nil
}

func (s *session) checkCell(row, col int) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if col < 0 || col >= s.active.ColumnCount() {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	if slices.Contains(s.demographics, s.active.Headers[col]) {
		return fmt.Errorf("%w: %q", ErrDemographicColumn, s.active.Headers[col])
	}
	return nil
}

// refresh rebuilds the index after a write. A failed rebuild drops the index
// so the next read retries the scan.
func (s *session) refresh(ctx context.Context) {
	ix, err := s.ledger.LoadIndex(ctx, s.active.ID)
	if err != nil {
		s.logger.Warn("index rebuild failed", "id", s.active.ID, "error", err)
		s.index = nil
		return
	}
	s.index = ix
}

func (s *session) ensureIndex(ctx context.Context) (*assignments.Index, error) {
	if s.index != nil {
		return s.index, nil
	}
	ix, err := s.ledger.LoadIndex(ctx, s.active.ID)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	s.index = ix
	return ix, nil
}

// demographicIndices returns every position whose header is demographic.
// Repeated headers are all covered, matching checkCell.
func (s *session) demographicIndices() []int {
	out := make([]int, 0, len(s.demographics))
	for col, h := range s.active.Headers {
		if slices.Contains(s.demographics, h) {
			out = append(out, col)
		}
	}
	return out
}

func (s *session) columnsNamed(header string) []int {
	var out []int
	for col, h := range s.active.Headers {
		if h == header {
			out = append(out, col)
		}
	}
	return out
}

// visibility returns the stored flags with demographic columns forced on.
func (s *session) visibility() []bool {
	flags := make([]bool, s.active.ColumnCount())
	copy(flags, s.active.VisibleColumns)
	for _, col := range s.demographicIndices() {
		flags[col] = true
	}
	return flags
}

func (s *session) snapshot() *State {
	st := &State{
		DemographicColumns: slices.Clone(s.demographics),
		Index:              assignments.NewIndex(),
		VisibleColumns:     []bool{},
	}
	if s.keyColumn != nil {
		k := *s.keyColumn
		st.KeyColumn = &k
	}
	if s.active == nil {
		return st
	}

	st.Dataset = s.active
	st.VisibleColumns = s.visibility()
	if s.index != nil {
		st.Index = s.index
	}
	return st
}

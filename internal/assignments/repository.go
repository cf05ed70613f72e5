package assignments

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/tagline/pkg/metrics"
	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
)

// maxVersionAttempts bounds retries when another writer claims the same
// target version first.
const maxVersionAttempts = 3

type repo struct {
	db          *sql.DB
	logger      *slog.Logger
	metrics     *metrics.OperationMetrics
	concurrency int

	// mu serializes version allocation within this process.
	mu sync.Mutex
}

// New creates a ledger implementing the System interface. batchConcurrency
// caps the number of in-flight items in ApplyBatch. m may be nil.
func New(
	db *sql.DB,
	logger *slog.Logger,
	m *metrics.OperationMetrics,
	batchConcurrency int,
) System {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &repo{
		db:          db,
		logger:      logger.With("system", "assignments"),
		metrics:     m,
		concurrency: batchConcurrency,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Apply(ctx context.Context, fileID int64, target Target, cmd ApplyCommand) (a *Assignment, err error) {
	defer r.observe("apply", time.Now(), &err)

	if fileID <= 0 {
		return nil, nil
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	cmd.LabelID = strings.TrimSpace(cmd.LabelID)
	if cmd.LabelID == "" {
		return nil, ErrEmptyLabel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 1; ; attempt++ {
		a, err = r.insert(ctx, fileID, target, cmd)
		if err == nil || !repository.IsUniqueViolation(err) || attempt == maxVersionAttempts {
			break
		}
		r.logger.Warn("version conflict, retrying", "file_id", fileID, "target", target.String(), "attempt", attempt)
	}

	switch {
	case err == nil:
	case repository.IsForeignKeyViolation(err):
		return nil, ErrDatasetNotFound
	case repository.IsUniqueViolation(err):
		return nil, fmt.Errorf("%w: %s", ErrVersionConflict, target)
	default:
		return nil, fmt.Errorf("apply label: %w", err)
	}

	r.logger.Info("label applied",
		"file_id", fileID,
		"target", target.String(),
		"label_id", a.LabelID,
		"version", a.Version,
	)
	return a, nil
}

func (r *repo) ApplyCell(ctx context.Context, fileID int64, row, col int, labelID string) (*Assignment, error) {
	return r.Apply(ctx, fileID, CellTarget(row, col), ApplyCommand{LabelID: labelID})
}

func (r *repo) ApplyRow(ctx context.Context, fileID int64, row int, labelID string) (*Assignment, error) {
	return r.Apply(ctx, fileID, RowTarget(row), ApplyCommand{LabelID: labelID})
}

// ApplyBatch applies each item independently. Results keep the order of
// cmd.Cells followed by cmd.Rows, and a failed item never cancels the rest.
func (r *repo) ApplyBatch(ctx context.Context, fileID int64, cmd BatchCommand) (results []BatchResult, err error) {
	defer r.observe("batch", time.Now(), &err)

	if fileID <= 0 {
		return []BatchResult{}, nil
	}
	if strings.TrimSpace(cmd.LabelID) == "" {
		return nil, ErrEmptyLabel
	}

	targets := make([]Target, 0, len(cmd.Cells)+len(cmd.Rows))
	for _, c := range cmd.Cells {
		targets = append(targets, CellTarget(c.Row, c.Column))
	}
	for _, row := range cmd.Rows {
		targets = append(targets, RowTarget(row))
	}

	apply := ApplyCommand{LabelID: cmd.LabelID, AppliedBy: cmd.AppliedBy, Notes: cmd.Notes}
	results = make([]BatchResult, len(targets))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, t := range targets {
		g.Go(func() error {
			a, err := r.Apply(ctx, fileID, t, apply)
			results[i] = BatchResult{Target: t, Assignment: a}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	r.logger.Info("batch applied", "file_id", fileID, "label_id", cmd.LabelID, "items", len(results), "failed", failed)

	return results, nil
}

// Remove deletes every entry for the target that carries labelID.
func (r *repo) Remove(ctx context.Context, fileID int64, target Target, labelID string) (n int64, err error) {
	defer r.observe("remove", time.Now(), &err)

	if fileID <= 0 {
		return 0, nil
	}
	if err := target.Validate(); err != nil {
		return 0, err
	}

	q := `
		DELETE FROM label_assignments
		WHERE file_id = $1 AND row_index = $2 AND column_index = $3 AND is_row_label = $4 AND label_id = $5`

	n, err = repository.ExecCount(ctx, r.db, q, fileID, target.Row, target.Column, target.IsRow(), labelID)
	if err != nil {
		return 0, fmt.Errorf("remove label: %w", err)
	}

	r.logger.Info("label removed", "file_id", fileID, "target", target.String(), "label_id", labelID, "removed", n)
	return n, nil
}

func (r *repo) RemoveCell(ctx context.Context, fileID int64, row, col int, labelID string) (int64, error) {
	return r.Remove(ctx, fileID, CellTarget(row, col), labelID)
}

func (r *repo) RemoveRow(ctx context.Context, fileID int64, row int, labelID string) (int64, error) {
	return r.Remove(ctx, fileID, RowTarget(row), labelID)
}

func (r *repo) RemoveByID(ctx context.Context, id int64) (err error) {
	defer r.observe("remove_by_id", time.Now(), &err)

	err = repository.ExecExpectOne(ctx, r.db, "DELETE FROM label_assignments WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrNotFound)
	}

	r.logger.Info("assignment removed", "id", id)
	return nil
}

// Current returns every entry for the target in ledger order.
func (r *repo) Current(ctx context.Context, fileID int64, target Target) (items []Assignment, err error) {
	defer r.observe("current", time.Now(), &err)
	return r.query(ctx, fileID, target, targetQuery(fileID, target))
}

func (r *repo) CurrentCell(ctx context.Context, fileID int64, row, col int) ([]Assignment, error) {
	return r.Current(ctx, fileID, CellTarget(row, col))
}

func (r *repo) CurrentRow(ctx context.Context, fileID int64, row int) ([]Assignment, error) {
	return r.Current(ctx, fileID, RowTarget(row))
}

// History returns the same entries as Current, newest version first.
func (r *repo) History(ctx context.Context, fileID int64, target Target) (items []Assignment, err error) {
	defer r.observe("history", time.Now(), &err)
	return r.query(ctx, fileID, target, targetQuery(fileID, target).OrderByFields(historyOrder))
}

func (r *repo) CellHistory(ctx context.Context, fileID int64, row, col int) ([]Assignment, error) {
	return r.History(ctx, fileID, CellTarget(row, col))
}

func (r *repo) RowHistory(ctx context.Context, fileID int64, row int) ([]Assignment, error) {
	return r.History(ctx, fileID, RowTarget(row))
}

// RowEntries returns every entry on the row, cell and row targets alike, in
// ledger order.
func (r *repo) RowEntries(ctx context.Context, fileID int64, row int) (items []Assignment, err error) {
	defer r.observe("row_entries", time.Now(), &err)

	if fileID <= 0 {
		return []Assignment{}, nil
	}
	if row < 0 {
		return nil, ErrInvalidTarget
	}

	q, args := query.
		NewBuilder(projection, ledgerOrder).
		WhereEquals("FileID", fileID).
		WhereEquals("RowIndex", row).
		Build()

	items, err = repository.QueryMany(ctx, r.db, q, args, scanAssignment)
	if err != nil {
		return nil, fmt.Errorf("query row entries: %w", err)
	}
	return items, nil
}

// LoadIndex rescans every entry for the dataset.
func (r *repo) LoadIndex(ctx context.Context, fileID int64) (ix *Index, err error) {
	defer r.observe("load_index", time.Now(), &err)

	ix = NewIndex()
	if fileID <= 0 {
		return ix, nil
	}

	q, args := query.
		NewBuilder(projection, ledgerOrder).
		WhereEquals("FileID", fileID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanAssignment)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	for _, a := range items {
		ix.Add(a)
	}
	return ix, nil
}

// DeleteByLabel removes every entry carrying labelID across all datasets,
// inside the caller's transaction.
func (r *repo) DeleteByLabel(ctx context.Context, tx *sql.Tx, labelID string) (n int64, err error) {
	defer r.observe("delete_by_label", time.Now(), &err)

	n, err = repository.ExecCount(ctx, tx, "DELETE FROM label_assignments WHERE label_id = $1", labelID)
	if err != nil {
		return 0, err
	}

	r.logger.Info("assignments removed for label", "label_id", labelID, "removed", n)
	return n, nil
}

func (r *repo) insert(ctx context.Context, fileID int64, target Target, cmd ApplyCommand) (*Assignment, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Assignment, error) {
		var current int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version), 0) FROM label_assignments
			WHERE file_id = $1 AND row_index = $2 AND column_index = $3 AND is_row_label = $4`,
			fileID, target.Row, target.Column, target.IsRow(),
		).Scan(&current)
		if err != nil {
			return nil, err
		}

		a := &Assignment{
			FileID:    fileID,
			Target:    target,
			LabelID:   cmd.LabelID,
			AppliedAt: time.Now().UTC(),
			AppliedBy: cmd.AppliedBy,
			Notes:     cmd.Notes,
			Version:   current + 1,
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO label_assignments (file_id, row_index, column_index, label_id, is_row_label, applied_at, applied_by, notes, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			a.FileID, target.Row, target.Column, a.LabelID, target.IsRow(),
			a.AppliedAt, a.AppliedBy, a.Notes, a.Version,
		).Scan(&a.ID)
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}

func (r *repo) query(ctx context.Context, fileID int64, target Target, qb *query.Builder) ([]Assignment, error) {
	if fileID <= 0 {
		return []Assignment{}, nil
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanAssignment)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	return items, nil
}

func (r *repo) observe(operation string, start time.Time, err *error) {
	r.metrics.Observe(operation, start, *err)
}

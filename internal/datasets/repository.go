package datasets

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tagline/pkg/pagination"
	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
	"github.com/JaimeStill/tagline/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a dataset repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "datasets"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(summaryProjection, defaultSort).
		WhereSearch(page.Search, "Name")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Dataset, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDataset)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *repo) Import(ctx context.Context, cmd ImportCommand) (*Dataset, error) {
	d, err := r.insert(ctx, cmd, nil, nil)
	if err != nil {
		return nil, err
	}

	r.logger.Info("dataset imported", "id", d.ID, "name", d.Name, "rows", d.RowCount(), "columns", d.ColumnCount())
	return d, nil
}

// ImportFile parses the upload before archiving it so a malformed file never
// reaches storage. A failed insert removes the archived blob.
func (r *repo) ImportFile(ctx context.Context, cmd FileCommand) (*Dataset, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}

	headers, rows, err := ParseCSV(cmd.Data)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		base := filepath.Base(cmd.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	importCmd := ImportCommand{Name: name, Headers: headers, Rows: rows}
	if err := validateImport(&importCmd); err != nil {
		return nil, err
	}

	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}

	key := buildStorageKey(uuid.New(), sanitizeFilename(cmd.Filename))
	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), contentType); err != nil {
		return nil, fmt.Errorf("archive upload: %w", err)
	}

	d, err := r.insert(ctx, importCmd, &key, &contentType)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	r.logger.Info("dataset uploaded", "id", d.ID, "name", d.Name, "key", key, "rows", d.RowCount())
	return d, nil
}

func (r *repo) SetColumnVisibility(ctx context.Context, id int64, flags []bool) (*Dataset, error) {
	err := repository.Transact(ctx, r.db, func(tx *sql.Tx) error {
		var columns int
		err := tx.QueryRowContext(ctx, "SELECT column_count FROM datasets WHERE id = $1", id).Scan(&columns)
		if err != nil {
			return err
		}
		if len(flags) != columns {
			return fmt.Errorf("%w: got %d flags for %d columns", ErrVisibilityLength, len(flags), columns)
		}

		encoded, err := encodeJSON(flags)
		if err != nil {
			return err
		}
		return repository.ExecExpectOne(ctx, tx,
			"UPDATE datasets SET visible_columns = $1 WHERE id = $2",
			encoded, id,
		)
	})
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("column visibility updated", "id", id)
	return r.Find(ctx, id)
}

func (r *repo) Source(ctx context.Context, id int64) (*Source, error) {
	var key, contentType *string
	err := r.db.QueryRowContext(ctx,
		"SELECT source_key, content_type FROM datasets WHERE id = $1", id,
	).Scan(&key, &contentType)
	if err != nil {
		return nil, mapError(err)
	}
	if key == nil {
		return nil, ErrNoSource
	}

	body, err := r.storage.Download(ctx, *key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoSource
		}
		return nil, fmt.Errorf("download source: %w", err)
	}

	src := &Source{
		Filename:    path.Base(*key),
		ContentType: "application/octet-stream",
		Body:        body,
	}
	if unescaped, err := url.PathUnescape(src.Filename); err == nil {
		src.Filename = unescaped
	}
	if contentType != nil {
		src.ContentType = *contentType
	}
	return src, nil
}

// Delete removes the dataset; its ledger entries go with it through the
// foreign key. Archive cleanup failures are logged and do not fail the call.
func (r *repo) Delete(ctx context.Context, id int64) error {
	var key *string
	err := repository.Transact(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT source_key FROM datasets WHERE id = $1", id).Scan(&key); err != nil {
			return err
		}
		return repository.ExecExpectOne(ctx, tx, "DELETE FROM datasets WHERE id = $1", id)
	})
	if err != nil {
		return mapError(err)
	}

	if key != nil {
		if delErr := r.storage.Delete(ctx, *key); delErr != nil {
			r.logger.Warn("blob delete failed after DB delete", "key", *key, "error", delErr)
		}
	}

	r.logger.Info("dataset deleted", "id", id)
	return nil
}

func (r *repo) insert(ctx context.Context, cmd ImportCommand, key, contentType *string) (*Dataset, error) {
	if err := validateImport(&cmd); err != nil {
		return nil, err
	}

	visible := make([]bool, len(cmd.Headers))
	for i := range visible {
		visible[i] = true
	}

	headersJSON, err := encodeJSON(cmd.Headers)
	if err != nil {
		return nil, fmt.Errorf("encode headers: %w", err)
	}
	rowsJSON, err := encodeJSON(cmd.Rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	visibleJSON, err := encodeJSON(visible)
	if err != nil {
		return nil, fmt.Errorf("encode visibility: %w", err)
	}

	uploadedAt := time.Now().UTC()

	q := `
		INSERT INTO datasets (name, uploaded_at, headers, row_data, row_count, column_count, visible_columns, source_key, content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		var id int64
		err := tx.QueryRowContext(ctx, q,
			cmd.Name, uploadedAt, headersJSON, rowsJSON,
			len(cmd.Rows), len(cmd.Headers), visibleJSON,
			key, contentType,
		).Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("insert dataset: %w", err)
	}

	return &Dataset{
		ID:             id,
		Name:           cmd.Name,
		UploadedAt:     uploadedAt,
		Headers:        cmd.Headers,
		Rows:           cmd.Rows,
		VisibleColumns: visible,
		SourceKey:      key,
		ContentType:    contentType,
	}, nil
}

// validateImport trims the name, pads short rows with nil, and normalizes
// numeric cells to float64 so stored and returned values agree.
func validateImport(cmd *ImportCommand) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return ErrEmptyName
	}
	if len(cmd.Headers) == 0 {
		return ErrNoHeaders
	}

	width := len(cmd.Headers)
	rows := make([][]any, len(cmd.Rows))

	for i, row := range cmd.Rows {
		if len(row) > width {
			return fmt.Errorf("%w: row %d has %d cells, expected at most %d", ErrRowTooLong, i, len(row), width)
		}

		padded := make([]any, width)
		for j, cell := range row {
			v, err := normalizeCell(cell)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			padded[j] = v
		}
		rows[i] = padded
	}

	cmd.Rows = rows
	return nil
}

func normalizeCell(v any) (any, error) {
	switch c := v.(type) {
	case nil, string:
		return c, nil
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, ErrInvalidCell
		}
		return c, nil
	case float32:
		return float64(c), nil
	case int:
		return float64(c), nil
	case int32:
		return float64(c), nil
	case int64:
		return float64(c), nil
	default:
		return nil, ErrInvalidCell
	}
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("datasets/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "upload.csv"
	}
	return url.PathEscape(name)
}

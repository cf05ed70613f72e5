package assignments

import (
	"context"
	"database/sql"
)

// System defines the public contract for the label ledger. A fileID of zero
// or less denotes an unsaved dataset: every operation is then a no-op that
// returns an empty result and no error.
type System interface {
	Handler() *Handler

	Apply(ctx context.Context, fileID int64, target Target, cmd ApplyCommand) (*Assignment, error)
	ApplyCell(ctx context.Context, fileID int64, row, col int, labelID string) (*Assignment, error)
	ApplyRow(ctx context.Context, fileID int64, row int, labelID string) (*Assignment, error)
	ApplyBatch(ctx context.Context, fileID int64, cmd BatchCommand) ([]BatchResult, error)

	Remove(ctx context.Context, fileID int64, target Target, labelID string) (int64, error)
	RemoveCell(ctx context.Context, fileID int64, row, col int, labelID string) (int64, error)
	RemoveRow(ctx context.Context, fileID int64, row int, labelID string) (int64, error)
	RemoveByID(ctx context.Context, id int64) error

	Current(ctx context.Context, fileID int64, target Target) ([]Assignment, error)
	CurrentCell(ctx context.Context, fileID int64, row, col int) ([]Assignment, error)
	CurrentRow(ctx context.Context, fileID int64, row int) ([]Assignment, error)
	History(ctx context.Context, fileID int64, target Target) ([]Assignment, error)
	CellHistory(ctx context.Context, fileID int64, row, col int) ([]Assignment, error)
	RowHistory(ctx context.Context, fileID int64, row int) ([]Assignment, error)
	RowEntries(ctx context.Context, fileID int64, row int) ([]Assignment, error)
	LoadIndex(ctx context.Context, fileID int64) (*Index, error)

	DeleteByLabel(ctx context.Context, tx *sql.Tx, labelID string) (int64, error)
}

package workspace

import (
	"context"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/stats"
)

// System defines the public contract for the labeling session. Operations
// other than Activate and Active fail with ErrNoActiveDataset until a
// dataset is active.
type System interface {
	Handler() *Handler

	Activate(ctx context.Context, id int64) (*State, error)
	Active(ctx context.Context) (*State, error)
	SetColumnVisibility(ctx context.Context, flags []bool) (*State, error)
	SetDemographicColumns(ctx context.Context, headers []string) (*State, error)
	SetKeyColumn(ctx context.Context, header *string) (*State, error)
	Search(ctx context.Context, q string) (*SearchResult, error)

	ApplyCell(ctx context.Context, row, col int, cmd assignments.ApplyCommand) (*assignments.Assignment, error)
	ApplyRow(ctx context.Context, row int, cmd assignments.ApplyCommand) (*assignments.Assignment, error)
	ApplySelection(ctx context.Context, cmd SelectionCommand) ([]assignments.BatchResult, error)
	RemoveCell(ctx context.Context, row, col int, labelID string) (int64, error)
	RemoveRow(ctx context.Context, row int, labelID string) (int64, error)
	RemoveByID(ctx context.Context, id int64) error

	Stats(ctx context.Context) (*stats.Summary, error)
	Respondent(ctx context.Context, row int) (*Respondent, error)

	// Invalidate drops the cached index after a ledger change made outside
	// the workspace, such as a label delete cascade. The next read rescans.
	Invalidate()
}

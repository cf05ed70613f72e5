package api

import (
	"context"
	"database/sql"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/labels"
	"github.com/JaimeStill/tagline/internal/workspace"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Datasets    datasets.System
	Labels      labels.System
	Assignments assignments.System
	Workspace   workspace.System
}

// NewDomain creates all domain systems from the API runtime. The ledger is
// built first because the label catalog cascades deletes through it.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	ledger := assignments.New(
		db,
		runtime.Logger,
		runtime.LedgerMetrics,
		runtime.Labeling.BatchConcurrency,
	)

	cascade := &labelCascade{ledger: ledger}

	catalog := labels.New(
		db,
		cascade,
		runtime.Logger,
		runtime.Labeling.DefaultLabelColor,
		runtime.Labeling.HierarchyCacheTTLDuration(),
	)

	ds := datasets.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	ws := workspace.New(ds, ledger, catalog, runtime.Logger)
	cascade.invalidate = ws.Invalidate

	return &Domain{
		Datasets:    ds,
		Labels:      catalog,
		Assignments: ledger,
		Workspace:   ws,
	}
}

// labelCascade removes a deleted label's ledger entries. Once the delete
// commits, it drops the workspace index if any entries were removed.
type labelCascade struct {
	ledger     assignments.System
	invalidate func()
}

func (c *labelCascade) DeleteByLabel(ctx context.Context, tx *sql.Tx, labelID string) (int64, error) {
	return c.ledger.DeleteByLabel(ctx, tx, labelID)
}

func (c *labelCascade) LabelDeleted(labelID string, removed int64) {
	if removed > 0 && c.invalidate != nil {
		c.invalidate()
	}
}

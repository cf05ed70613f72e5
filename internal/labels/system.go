package labels

import (
	"context"
	"database/sql"
)

// System defines the public contract for the label catalog.
type System interface {
	Handler() *Handler

	List(ctx context.Context) ([]Label, error)
	Find(ctx context.Context, id string) (*Label, error)
	Hierarchy(ctx context.Context) (*Hierarchy, error)
	Create(ctx context.Context, cmd CreateCommand) (*Label, error)
	Update(ctx context.Context, id string, cmd UpdateCommand) (*Label, error)
	Delete(ctx context.Context, id string) error
}

// Cascader removes ledger entries that reference a label. It runs inside the
// transaction that deletes the label.
type Cascader interface {
	DeleteByLabel(ctx context.Context, tx *sql.Tx, labelID string) (int64, error)
}

// DeleteObserver is implemented by a Cascader that needs to know when a
// label delete has committed. LabelDeleted runs after the transaction ends,
// so it may use the database freely.
type DeleteObserver interface {
	LabelDeleted(labelID string, removed int64)
}

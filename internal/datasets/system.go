package datasets

import (
	"context"

	"github.com/JaimeStill/tagline/pkg/pagination"
)

// System defines the public contract for dataset operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	Find(ctx context.Context, id int64) (*Dataset, error)
	Import(ctx context.Context, cmd ImportCommand) (*Dataset, error)
	ImportFile(ctx context.Context, cmd FileCommand) (*Dataset, error)
	SetColumnVisibility(ctx context.Context, id int64, flags []bool) (*Dataset, error)
	Source(ctx context.Context, id int64) (*Source, error)
	Delete(ctx context.Context, id int64) error
}

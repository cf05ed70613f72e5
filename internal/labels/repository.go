package labels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
)

const hierarchyKey = "hierarchy"

type repo struct {
	db           *sql.DB
	cascade      Cascader
	cache        *cache.Cache
	defaultColor string
	logger       *slog.Logger
}

// New creates a label catalog implementing the System interface. The
// hierarchy is cached for cacheTTL and dropped on every catalog mutation.
func New(
	db *sql.DB,
	cascade Cascader,
	logger *slog.Logger,
	defaultColor string,
	cacheTTL time.Duration,
) System {
	return &repo{
		db:           db,
		cascade:      cascade,
		cache:        cache.New(cacheTTL, 2*cacheTTL),
		defaultColor: defaultColor,
		logger:       logger.With("system", "labels"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context) ([]Label, error) {
	q, args := query.NewBuilder(projection, catalogOrder...).Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanLabel)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Label, error) {
	return r.find(ctx, r.db, id)
}

func (r *repo) Hierarchy(ctx context.Context) (*Hierarchy, error) {
	if cached, ok := r.cache.Get(hierarchyKey); ok {
		h := cached.(Hierarchy).Clone()
		return &h, nil
	}

	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	h := BuildHierarchy(all)
	r.cache.SetDefault(hierarchyKey, h)

	out := h.Clone()
	return &out, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Label, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	color := strings.TrimSpace(cmd.Color)
	if color == "" {
		color = r.defaultColor
	}
	if !hexColor.MatchString(color) {
		return nil, ErrInvalidColor
	}

	l := Label{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		ParentID:  normalizeParent(cmd.ParentID),
		CreatedAt: time.Now().UTC(),
	}

	q := `
		INSERT INTO labels (id, name, color, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	err := repository.Transact(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.checkParent(ctx, tx, l.ID, l.ParentID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, q, l.ID, l.Name, l.Color, l.ParentID, l.CreatedAt)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}

	r.invalidate()
	r.logger.Info("label created", "id", l.ID, "name", l.Name)
	return &l, nil
}

func (r *repo) Update(ctx context.Context, id string, cmd UpdateCommand) (*Label, error) {
	l, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Label, error) {
		l, err := r.find(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		if cmd.Name != nil {
			name := strings.TrimSpace(*cmd.Name)
			if name == "" {
				return nil, ErrInvalidName
			}
			l.Name = name
		}

		if cmd.Color != nil {
			color := strings.TrimSpace(*cmd.Color)
			if !hexColor.MatchString(color) {
				return nil, ErrInvalidColor
			}
			l.Color = color
		}

		switch {
		case cmd.ClearParent:
			l.ParentID = nil
		case cmd.ParentID != nil:
			parent := normalizeParent(cmd.ParentID)
			if err := r.checkParent(ctx, tx, id, parent); err != nil {
				return nil, err
			}
			l.ParentID = parent
		}

		err = repository.ExecExpectOne(ctx, tx,
			"UPDATE labels SET name = $1, color = $2, parent_id = $3 WHERE id = $4",
			l.Name, l.Color, l.ParentID, id,
		)
		return l, err
	})
	if err != nil {
		return nil, mapError(err)
	}

	r.invalidate()
	r.logger.Info("label updated", "id", id)
	return l, nil
}

// Delete removes every ledger entry carrying the label, then the label, in
// one transaction. Children keep their parent_id and surface as roots.
func (r *repo) Delete(ctx context.Context, id string) error {
	removed, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		removed, err := r.cascade.DeleteByLabel(ctx, tx, id)
		if err != nil {
			return 0, fmt.Errorf("cascade assignments: %w", err)
		}
		if err := repository.ExecExpectOne(ctx, tx, "DELETE FROM labels WHERE id = $1", id); err != nil {
			return 0, err
		}
		return removed, nil
	})
	if err != nil {
		return mapError(err)
	}

	r.invalidate()
	r.logger.Info("label deleted", "id", id, "assignments_removed", removed)

	if o, ok := r.cascade.(DeleteObserver); ok {
		o.LabelDeleted(id, removed)
	}
	return nil
}

func (r *repo) find(ctx context.Context, db repository.Querier, id string) (*Label, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	l, err := repository.QueryOne(ctx, db, q, args, scanLabel)
	if err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

// checkParent enforces a single level of nesting. A dangling parent is
// accepted, and so is a parent whose own parent no longer exists.
func (r *repo) checkParent(ctx context.Context, tx *sql.Tx, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ErrSelfParent
	}

	parent, err := r.find(ctx, tx, *parentID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if parent.ParentID != nil {
		var n int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM labels WHERE id = $1", *parent.ParentID).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrNestingTooDeep
		}
	}

	var children int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM labels WHERE parent_id = $1", id).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return ErrNestingTooDeep
	}

	return nil
}

func (r *repo) invalidate() {
	r.cache.Delete(hierarchyKey)
}

func normalizeParent(parentID *string) *string {
	if parentID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*parentID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapError(err error) error {
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

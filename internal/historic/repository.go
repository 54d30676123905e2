package historic

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// Querier is satisfied by both pgxpool.Pool and pgx.Tx, letting ledger
// writes join the item mutation's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository defines persistence operations for the change ledger.
type Repository interface {
	Insert(ctx context.Context, q Querier, itemID int64, rec Record) error
	ListByItem(ctx context.Context, itemID int64, scope roles.Scope, page shared.Page, dir shared.SortDirection) ([]Entry, int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// Insert appends one change record. A foreign key violation means the
// item vanished between the mutation and the ledger write; the caller
// decides whether that racing loss is tolerable.
func (r *PGRepository) Insert(ctx context.Context, q Querier, itemID int64, rec Record) error {
	if q == nil {
		q = r.pool
	}
	_, err := q.Exec(ctx,
		`INSERT INTO item_changes (item_id, change, previous_value) VALUES ($1, $2, $3)`,
		itemID, rec.Change, rec.PreviousValue,
	)
	if err != nil {
		return fmt.Errorf("historic: insert change: %w", err)
	}
	return nil
}

// ListByItem returns the item's change history visible to the caller.
// Visibility mirrors the item scope: whoever may see the item may see
// its ledger.
func (r *PGRepository) ListByItem(ctx context.Context, itemID int64, scope roles.Scope, page shared.Page, dir shared.SortDirection) ([]Entry, int64, error) {
	args := []any{itemID}
	guard := scope.SQLFilter("u.id", "u.role", &args)
	base := ` FROM item_changes c
	          JOIN items i ON i.id = c.item_id
	          JOIN users u ON u.id = i.owner_id
	         WHERE c.item_id = $1 AND ` + guard

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := " ORDER BY c.created_at ASC"
	if dir == shared.SortDesc {
		order = " ORDER BY c.created_at DESC"
	}
	args = append(args, page.Take)
	limit := " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, page.Offset())
	limit += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.item_id, c.change, c.previous_value, c.created_at`+base+order+limit,
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Change, &e.PreviousValue, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

var _ Querier = (pgx.Tx)(nil)

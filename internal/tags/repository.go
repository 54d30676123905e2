package tags

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trove-market/trove/internal/shared"
)

// Repository defines persistence operations for the tag catalog.
type Repository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]Tag, error)
	ListWithItemCounts(ctx context.Context, term string, page shared.Page) ([]WithCount, int64, error)
	Create(ctx context.Context, name, description string) (*Tag, error)
	UpdateDescription(ctx context.Context, id int64, description string) (*Tag, error)
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

// FindByIDs resolves tag ids to rows. Unknown ids are silently dropped;
// callers get back whatever subset exists.
func (r *PGRepository) FindByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description FROM tags WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListWithItemCounts returns tags matching the term together with the
// number of items carrying each tag.
func (r *PGRepository) ListWithItemCounts(ctx context.Context, term string, page shared.Page) ([]WithCount, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tags WHERE lower(name) LIKE $1`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.name, t.description, COUNT(it.item_id)
		   FROM tags t
		   LEFT JOIN item_tags it ON it.tag_id = t.id
		  WHERE lower(t.name) LIKE $1
		  GROUP BY t.id, t.name, t.description
		  ORDER BY t.name ASC
		  LIMIT $2 OFFSET $3`,
		pattern, page.Take, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []WithCount
	for rows.Next() {
		var t WithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ItemCount); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Create inserts a tag. The unique index on the folded name backs the
// duplicate check against concurrent creates.
func (r *PGRepository) Create(ctx context.Context, name, description string) (*Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tags (name, normalized_name, description) VALUES ($1, $2, $3)
		 RETURNING id, name, description`,
		shared.NormalizeName(name), shared.FoldName(name), description,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicateName
		}
		return nil, err
	}
	return &t, nil
}

// UpdateDescription changes a tag's description only; names are fixed
// after creation.
func (r *PGRepository) UpdateDescription(ctx context.Context, id int64, description string) (*Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx,
		`UPDATE tags SET description = $1 WHERE id = $2 RETURNING id, name, description`,
		description, id,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

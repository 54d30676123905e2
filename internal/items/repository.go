package items

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trove-market/trove/internal/historic"
	"github.com/trove-market/trove/internal/platform/db"
	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
	"github.com/trove-market/trove/internal/tags"
)

// Repository defines persistence operations for the item directory.
type Repository interface {
	Create(ctx context.Context, item NewItem) (int64, error)
	CountByName(ctx context.Context, name string) (int64, error)
	FindAll(ctx context.Context, scope roles.Scope, query ListQuery, page shared.Page) ([]Item, int64, error)
	FindOne(ctx context.Context, itemID int64, scope roles.Scope) (*Item, error)
	ApplyUpdate(ctx context.Context, itemID int64, set FieldSet, records []historic.Record) error
	ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64, record historic.Record) error
	Delete(ctx context.Context, itemID int64, scope roles.Scope) (bool, error)
	Related(ctx context.Context, tagIDs []int64, callerID int64, page shared.Page, dir shared.SortDirection) ([]Item, int64, error)
}

// PGRepository implements Repository using PostgreSQL. Mutations and
// their ledger writes share one transaction.
type PGRepository struct {
	pool   *pgxpool.Pool
	ledger historic.Repository
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, ledger historic.Repository) *PGRepository {
	return &PGRepository{pool: pool, ledger: ledger}
}

var _ Repository = (*PGRepository)(nil)

// sortColumns is the ORDER BY allow-list. Anything else falls back to
// creation time.
var sortColumns = map[string]string{
	"createdAt": "i.created_at",
	"name":      "i.name",
	"updatedAt": "i.updated_at",
	"price":     "i.price",
	"stock":     "i.stock",
}

func orderClause(sortBy, sortDir string) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "i.created_at"
	}
	return " ORDER BY " + col + " " + string(shared.ParseSortDirection(sortDir))
}

// Create inserts a new item. The unique index on the folded name is the
// backstop for the pre-insert existence check, which is racy on its own.
func (r *PGRepository) Create(ctx context.Context, item NewItem) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (name, normalized_name, price, stock, description, color_theme, image_url, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		shared.NormalizeName(item.Name), shared.FoldName(item.Name),
		item.Price, item.Stock, item.Description, item.ColorTheme, item.ImageURL, item.OwnerID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, shared.ErrDuplicateName
		}
		return 0, err
	}
	return id, nil
}

// CountByName counts items whose folded name matches.
func (r *PGRepository) CountByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE normalized_name = $1`, shared.FoldName(name),
	).Scan(&count)
	return count, err
}

const itemColumns = `i.id, i.name, i.price, i.stock, i.description, i.color_theme, i.image_url,
	i.created_at, i.updated_at, u.id, u.username, u.role`

// FindAll lists items visible to the scope, filtered by search terms and
// tag include/exclude lists.
func (r *PGRepository) FindAll(ctx context.Context, scope roles.Scope, query ListQuery, page shared.Page) ([]Item, int64, error) {
	var args []any
	where := []string{scope.SQLFilter("u.id", "u.role", &args)}

	if len(query.Search) > 0 {
		var terms []string
		for _, term := range query.Search {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			args = append(args, "%"+strings.ToLower(term)+"%")
			terms = append(terms, "lower(i.name) LIKE $"+strconv.Itoa(len(args)))
		}
		if len(terms) > 0 {
			where = append(where, "("+strings.Join(terms, " OR ")+")")
		}
	}
	if len(query.IncludeTags) > 0 {
		args = append(args, query.IncludeTags)
		where = append(where, "EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = i.id AND it.tag_id = ANY($"+strconv.Itoa(len(args))+"))")
	}
	if len(query.ExcludeTags) > 0 {
		args = append(args, query.ExcludeTags)
		where = append(where, "NOT EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = i.id AND it.tag_id = ANY($"+strconv.Itoa(len(args))+"))")
	}

	base := ` FROM items i JOIN users u ON u.id = i.owner_id WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Take)
	limit := " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, page.Offset())
	limit += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+base+orderClause(query.SortBy, query.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindOne fetches one item under the scope guard, with owner and tags
// populated. A hidden item and a missing item are the same ErrNotFound.
func (r *PGRepository) FindOne(ctx context.Context, itemID int64, scope roles.Scope) (*Item, error) {
	args := []any{itemID}
	guard := scope.SQLFilter("u.id", "u.role", &args)
	row := r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN users u ON u.id = i.owner_id
		  WHERE i.id = $1 AND `+guard, args...)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	list := []Item{*item}
	if err := r.attachTags(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ApplyUpdate persists the touched fields and their ledger records in a
// single transaction.
func (r *PGRepository) ApplyUpdate(ctx context.Context, itemID int64, set FieldSet, records []historic.Record) error {
	if set.Empty() {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var assignments []string
		var args []any
		push := func(col string, val any) {
			args = append(args, val)
			assignments = append(assignments, col+" = $"+strconv.Itoa(len(args)))
		}
		if set.Price != nil {
			push("price", *set.Price)
		}
		if set.Stock != nil {
			push("stock", *set.Stock)
		}
		if set.Description != nil {
			push("description", *set.Description)
		}
		if set.ColorTheme != nil {
			push("color_theme", *set.ColorTheme)
		}
		if set.ImageURL != nil {
			push("image_url", *set.ImageURL)
		}
		push("updated_at", time.Now().UTC())

		args = append(args, itemID)
		query := `UPDATE items SET ` + strings.Join(assignments, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		for _, rec := range records {
			if err := r.ledger.Insert(ctx, tx, itemID, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceTags swaps the item's full tag set and writes the single "tags"
// ledger record in the same transaction.
func (r *PGRepository) ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64, record historic.Record) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM item_tags WHERE item_id = $1`, itemID); err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2)`, itemID, tagID); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE items SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), itemID); err != nil {
			return err
		}
		return r.ledger.Insert(ctx, tx, itemID, record)
	})
}

// Delete removes an item the scope can reach. The schema cascades the
// delete to item_changes and item_tags. Returns false when no reachable
// row existed.
func (r *PGRepository) Delete(ctx context.Context, itemID int64, scope roles.Scope) (bool, error) {
	args := []any{itemID}
	guard := scope.SQLFilter("u.id", "u.role", &args)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM items i USING users u WHERE u.id = i.owner_id AND i.id = $1 AND `+guard, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Related lists items sharing at least one of the tags, excluding the
// caller's own items.
func (r *PGRepository) Related(ctx context.Context, tagIDs []int64, callerID int64, page shared.Page, dir shared.SortDirection) ([]Item, int64, error) {
	base := ` FROM items i JOIN users u ON u.id = i.owner_id
	         WHERE i.owner_id <> $1
	           AND EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = i.id AND it.tag_id = ANY($2))`
	args := []any{callerID, tagIDs}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+base+` ORDER BY i.created_at `+string(dir)+` LIMIT $3 OFFSET $4`,
		callerID, tagIDs, page.Take, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// attachTags loads the tag sets for the given items in one query.
func (r *PGRepository) attachTags(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]*Item, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = &items[i]
		items[i].Tags = []tags.Tag{}
	}
	rows, err := r.pool.Query(ctx,
		`SELECT it.item_id, t.id, t.name, t.description
		   FROM item_tags it JOIN tags t ON t.id = it.tag_id
		  WHERE it.item_id = ANY($1) ORDER BY t.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var t tags.Tag
		if err := rows.Scan(&itemID, &t.ID, &t.Name, &t.Description); err != nil {
			return err
		}
		if item, ok := index[itemID]; ok {
			item.Tags = append(item.Tags, t)
		}
	}
	return rows.Err()
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var description, colorTheme *string
	var role string
	err := row.Scan(&item.ID, &item.Name, &item.Price, &item.Stock, &description, &colorTheme,
		&item.ImageURL, &item.CreatedAt, &item.UpdatedAt,
		&item.Owner.ID, &item.Owner.Username, &role)
	if err != nil {
		return nil, err
	}
	if description != nil {
		item.Description = *description
	}
	if colorTheme != nil {
		item.ColorTheme = *colorTheme
	}
	item.Owner.Role = roles.Role(role)
	return &item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

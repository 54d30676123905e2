package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, email, username, passwordHash string) (int64, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	CountWithRoleAmong(ctx context.Context, userID int64, gate roles.Gate) (int64, error)
	List(ctx context.Context, term string, page shared.Page) ([]Summary, int64, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) (int64, error)
	UpdateRole(ctx context.Context, userID int64, role roles.Role) error
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

const userColumns = `id, email, username, password_hash, role, created_at, updated_at`

// Create inserts a new account. Registration always starts at basic.
func (r *PGRepository) Create(ctx context.Context, email, username, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		email, username, passwordHash, string(roles.RoleBasic),
	).Scan(&id)
	return id, err
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmailOrUsername fetches a user matching the email or the
// case-insensitive username. Used by registration duplicate checks and
// sign-in.
func (r *PGRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR lower(username) = lower($2)`,
		email, username,
	)
	return scanUser(row)
}

// CountWithRoleAmong reports whether the user currently holds one of the
// gated roles. Reading the live row keeps endpoint gates honest after a
// role elevation, regardless of what an old token claims.
func (r *PGRepository) CountWithRoleAmong(ctx context.Context, userID int64, gate roles.Gate) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE id = $1 AND role = ANY($2)`,
		userID, gate.Strings(),
	).Scan(&count)
	return count, err
}

// List returns users whose username contains the term, with item counts.
func (r *PGRepository) List(ctx context.Context, term string, page shared.Page) ([]Summary, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE lower(username) LIKE $1`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.role, COUNT(i.id)
		   FROM users u
		   LEFT JOIN items i ON i.owner_id = u.id
		  WHERE lower(u.username) LIKE $1
		  GROUP BY u.id, u.username, u.role
		  ORDER BY u.username ASC
		  LIMIT $2 OFFSET $3`,
		pattern, page.Take, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var role string
		if err := rows.Scan(&s.ID, &s.Username, &role, &s.ItemCount); err != nil {
			return nil, 0, err
		}
		s.Role = roles.Role(role)
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpdatePassword replaces the password hash, returning affected rows.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateRole applies an explicit role elevation.
func (r *PGRepository) UpdateRole(ctx context.Context, userID int64, role roles.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		string(role), time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.Role = roles.Role(role)
	return &u, nil
}

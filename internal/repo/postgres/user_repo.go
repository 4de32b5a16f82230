package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/query"
)

// Fields the API may filter/sort users by, and the subset a partial
// update is allowed to touch. Password and ticket columns are reachable
// only through the dedicated methods below.
var (
	userQueryCols = Columns{
		"name":      {Name: "name"},
		"email":     {Name: "email"},
		"role":      {Name: "role"},
		"createdAt": {Name: "created_at", Kind: kindTime},
	}
	userPatchCols = Columns{
		"name":  {Name: "name"},
		"email": {Name: "email"},
		"photo": {Name: "photo"},
		"role":  {Name: "role"},
	}
)

const userCols = `id, name, email, photo, role, password_hash,
password_changed_at, reset_token_hash, reset_expires_at, active, created_at, updated_at`

type UserRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *UserRepo { return &UserRepo{pool: pool} }

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.PasswordChangedAt, &u.ResetTokenHash, &u.ResetExpiresAt, &u.Active,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	const q = `INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, 'user')
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, name, email, passwordHash))
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// FindMany lists active users only; deactivated accounts stay invisible
// to the admin listing just like everywhere else.
func (r *UserRepo) FindMany(ctx context.Context, spec query.Spec) ([]domain.User, error) {
	sql, args := renderSpec(`SELECT `+userCols+` FROM users WHERE active`, userQueryCols, spec)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, spec.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, id int64, patch map[string]any) (*domain.User, error) {
	set, args, ok := renderPatch(patch, userPatchCols)
	if !ok {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	sql := `UPDATE users SET ` + set + ` WHERE id = $` + itoa(len(args)) + ` RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, sql, args...))
}

func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Deactivate soft-deletes: the row stays, the account stops working.
func (r *UserRepo) Deactivate(ctx context.Context, id int64) error {
	const q = `UPDATE users SET active = false, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// UpdatePassword also bumps password_changed_at, which is what
// invalidates every token issued before the change.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $1, password_changed_at = now(),
reset_token_hash = NULL, reset_expires_at = NULL, updated_at = now()
WHERE id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, passwordHash, id)
	return err
}

// SetResetTicket stores the hashed reset token. Overwrites any earlier
// ticket, so only the latest one can be consumed.
func (r *UserRepo) SetResetTicket(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const q = `UPDATE users SET reset_token_hash = $1, reset_expires_at = $2, updated_at = now() WHERE id = $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, tokenHash, expiresAt, id)
	return err
}

func (r *UserRepo) ClearResetTicket(ctx context.Context, id int64) error {
	const q = `UPDATE users SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// FindByResetHash only matches unexpired tickets.
func (r *UserRepo) FindByResetHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE reset_token_hash = $1 AND reset_expires_at > now()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, tokenHash))
}

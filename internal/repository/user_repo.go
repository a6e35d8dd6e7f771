package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-identity/internal/model"
)

// MaxListLimit bounds a single page of a user listing.
const MaxListLimit = 1000

const userColumns = `id, email, full_name, is_active, role, created_at, updated_at, last_login`

// UserRepository is the Postgres-backed user directory. Email uniqueness is
// enforced by the store's unique index, so concurrent inserts of the same
// email resolve atomically without any read-then-write in this layer.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, storeErr("find user", err)
	}
	return u, nil
}

// PasswordHashByEmail is the only read path that exposes a stored digest.
func (r *UserRepository) PasswordHashByEmail(ctx context.Context, email string) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE email = $1`, email).Scan(&hash)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrUserNotFound
	}
	if err != nil {
		return "", storeErr("find credentials", err)
	}
	return hash, nil
}

func (r *UserRepository) Insert(ctx context.Context, u model.User, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, full_name, is_active, role, created_at, updated_at, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.FullName, u.IsActive, u.Role, u.CreatedAt, u.UpdatedAt, passwordHash)
	if isUniqueViolation(err) {
		return model.ErrEmailTaken
	}
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

// Update applies only the fields present in the partial update and stamps
// updated_at. An email collision with a different row surfaces as
// ErrEmailTaken through the unique index; rewriting a row's own email is
// not a collision.
func (r *UserRepository) Update(ctx context.Context, id string, fields model.UserUpdate) (model.User, error) {
	set := make([]string, 0, 5)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.FullName != nil {
		add("full_name", *fields.FullName)
	}
	if fields.IsActive != nil {
		add("is_active", *fields.IsActive)
	}
	if fields.Role != nil {
		add("role", *fields.Role)
	}
	add("updated_at", time.Now().UTC())

	query := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	var u model.User
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return model.User{}, model.ErrEmailTaken
	}
	if err != nil {
		return model.User{}, storeErr("update user", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return storeErr("update last login", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// List returns users in insertion order. The limit is clamped to
// [1, MaxListLimit] and negative offsets are treated as zero.
func (r *UserRepository) List(ctx context.Context, filter model.ListFilter) ([]model.User, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += ` WHERE role = $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/authkeeper/internal/model"
)

const uniqueViolation = "23505"

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, wrapErr("failed to get user by email", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, wrapErr("failed to get user by id", err)
	}

	return user, nil
}

// Create inserts user. A duplicate email yields model.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return model.User{}, wrapErr("failed to create user", err)
	}

	return saved, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (model.User, error) {
	query := `UPDATE users SET is_active = $2, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, wrapErr("failed to update user status", err)
	}

	return user, nil
}

// Update sets the non-nil fields of update. A duplicate email yields
// model.ErrConflict.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, update model.UserUpdate) (model.User, error) {
	query := `UPDATE users SET
			      name = COALESCE($2, name),
			      email = COALESCE($3, email),
			      role = COALESCE($4, role),
			      is_active = COALESCE($5, is_active),
			      updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns

	var role *string
	if update.Role != nil {
		v := string(*update.Role)
		role = &v
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, id, update.Name, update.Email, role, update.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return model.User{}, wrapErr("failed to update user", err)
	}

	return user, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return wrapErr("failed to ping postgres", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

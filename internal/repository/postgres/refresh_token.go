package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository keeps the refresh token ledger in the refresh_tokens table.
// Expired rows stay until DeleteExpired removes them but are never returned.
type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const insertRefreshToken = `
        INSERT INTO refresh_tokens (id, user_id, session_id, token_hash, rotated_from, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, insertRefreshToken,
		token.ID, token.UserID, token.SessionID, token.TokenHash, token.RotatedFrom, token.ExpiresAt, createdAt(token),
	)
	if err != nil {
		return wrapErr("failed to create refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, userID uuid.UUID, tokenHash []byte) (model.RefreshToken, error) {
	const query = `
        SELECT id, user_id, session_id, token_hash, rotated_from, expires_at, created_at
        FROM refresh_tokens
        WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, userID, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.SessionID, &rt.TokenHash, &rt.RotatedFrom, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, wrapErr("failed to find refresh token", err)
	}
	return rt, nil
}

// Revoke deletes only a row owned by userID.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, userID uuid.UUID, tokenHash []byte) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2`
	if _, err := r.db.Exec(ctx, query, userID, tokenHash); err != nil {
		return wrapErr("failed to revoke refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return wrapErr("failed to revoke refresh tokens by user", err)
	}
	return nil
}

// Rotate deletes the old record and inserts next in one transaction. Of two
// concurrent rotations of the same token the second one deletes nothing and
// gets model.ErrNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID uuid.UUID, oldHash []byte, next model.RefreshToken) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const deleteQuery = `
        DELETE FROM refresh_tokens
        WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()
    `
	tag, err := tx.Exec(ctx, deleteQuery, userID, oldHash)
	if err != nil {
		return wrapErr("failed to delete rotated refresh token", err)
	}
	if tag.RowsAffected() != 1 {
		return model.ErrNotFound
	}

	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	_, err = tx.Exec(ctx, insertRefreshToken,
		next.ID, next.UserID, next.SessionID, next.TokenHash, next.RotatedFrom, next.ExpiresAt, createdAt(next),
	)
	if err != nil {
		return wrapErr("failed to insert rotated refresh token", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("failed to commit rotation", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, wrapErr("failed to delete expired refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return wrapErr("failed to ping postgres", err)
	}
	return nil
}

func createdAt(token model.RefreshToken) time.Time {
	if token.CreatedAt.IsZero() {
		return time.Now()
	}
	return token.CreatedAt
}

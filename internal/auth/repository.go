package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recoleo/recoleo/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed token repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, token AccessToken) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO access_tokens (user_id, name, secret_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, token.UserID, token.Name, token.SecretHash, token.ExpiresAt, token.CreatedAt).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*AccessToken, error) {
	var token AccessToken
	var expiresAt, lastUsedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, secret_hash, expires_at, last_used_at, created_at
		FROM access_tokens
		WHERE id = $1
	`, id).Scan(&token.ID, &token.UserID, &token.Name, &token.SecretHash, &expiresAt, &lastUsedAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	return &token, nil
}

func (r *repository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE access_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	return err
}

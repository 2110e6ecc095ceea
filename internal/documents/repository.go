package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recoleo/recoleo/internal/shared"
)

// Repository persists document render records.
type Repository interface {
	Create(ctx context.Context, record Record) error
	Get(ctx context.Context, key uuid.UUID) (*Record, error)
	MarkReady(ctx context.Context, key uuid.UUID, storageKey string, renderedAt time.Time) error
	MarkFailed(ctx context.Context, key uuid.UUID, reason string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed document repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, record Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (key, kind, ref_id, status, signature, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
	`, record.Key, string(record.Kind), record.RefID, string(record.Status), record.Signature, record.CreatedBy)
	return err
}

func (r *repository) Get(ctx context.Context, key uuid.UUID) (*Record, error) {
	var record Record
	var kind, status string
	var signature, storageKey, failReason pgtype.Text
	var createdAt, renderedAt pgtype.Timestamptz

	err := r.pool.QueryRow(ctx, `
		SELECT key, kind, ref_id, status, signature, storage_key, fail_reason, created_by, created_at, rendered_at
		FROM documents WHERE key = $1
	`, key).Scan(&record.Key, &kind, &record.RefID, &status, &signature, &storageKey, &failReason,
		&record.CreatedBy, &createdAt, &renderedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	record.Kind = Kind(kind)
	record.Status = Status(status)
	if signature.Valid {
		record.Signature = &signature.String
	}
	if storageKey.Valid {
		record.StorageKey = &storageKey.String
	}
	if failReason.Valid {
		record.Error = &failReason.String
	}
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}
	if renderedAt.Valid {
		record.RenderedAt = &renderedAt.Time
	}
	return &record, nil
}

func (r *repository) MarkReady(ctx context.Context, key uuid.UUID, storageKey string, renderedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET status = 'READY', storage_key = $2, rendered_at = $3, fail_reason = NULL
		WHERE key = $1
	`, key, storageKey, renderedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkFailed(ctx context.Context, key uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET status = 'FAILED', fail_reason = $2 WHERE key = $1
	`, key, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recoleo/recoleo/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed collections repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const collectionColumns = `
	id, code, client_id, contract_id, tank_id, collector_id, collected_at,
	liters, unit_price, total_value, status, receivable_id, document_key,
	notes, created_by, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, collection Collection) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO collections (
			code, client_id, contract_id, tank_id, collector_id, collected_at,
			liters, unit_price, total_value, status, notes, created_by,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW())
		RETURNING id
	`,
		collection.Code, collection.ClientID, collection.ContractID, collection.TankID,
		collection.CollectorID, collection.CollectedAt, collection.Liters,
		collection.UnitPrice, collection.TotalValue, string(collection.Status),
		collection.Notes, collection.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Collection, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM collections WHERE id = $1", collectionColumns), id)
	return scanCollection(row)
}

func (r *repository) List(ctx context.Context, req ListCollectionsRequest) ([]Collection, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("collected_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("collected_at <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM collections %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM collections %s ORDER BY collected_at DESC, id DESC LIMIT $%d OFFSET $%d",
		collectionColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *collection)
	}
	return result, total, rows.Err()
}

var collectionUpdatable = map[string]bool{
	"tank_id":      true,
	"collector_id": true,
	"collected_at": true,
	"liters":       true,
	"unit_price":   true,
	"total_value":  true,
	"notes":        true,
}

func (r *repository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	var sets []string
	var args []interface{}
	argPos := 1

	for column, value := range fields {
		if !collectionUpdatable[column] {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE collections SET %s WHERE id = $%d", strings.Join(sets, ", "), argPos)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE collections SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetReceivable(ctx context.Context, id int64, receivableID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE collections SET receivable_id = $2, updated_at = NOW() WHERE id = $1`, id, receivableID)
	return err
}

func (r *repository) SetDocumentKey(ctx context.Context, id int64, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE collections SET document_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	return err
}

// GenerateCode produces the next collection code for the year. Best effort,
// unique index on code catches races.
func (r *repository) GenerateCode(ctx context.Context, year int) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM collections WHERE date_part('year', collected_at) = $1",
		year).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("COL-%d-%05d", year, count+1), nil
}

func (r *repository) TotalsByClient(ctx context.Context, from, to time.Time) ([]ClientTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.client_id, cl.name, COUNT(*), COALESCE(SUM(c.liters), 0), COALESCE(SUM(c.total_value), 0)
		FROM collections c
		JOIN clients cl ON cl.id = c.client_id
		WHERE c.status = 'POSTED' AND c.collected_at >= $1 AND c.collected_at <= $2
		GROUP BY c.client_id, cl.name
		ORDER BY SUM(c.liters) DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ClientTotal
	for rows.Next() {
		var t ClientTotal
		if err := rows.Scan(&t.ClientID, &t.ClientName, &t.Visits, &t.Liters, &t.TotalValue); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanCollection(row pgx.Row) (*Collection, error) {
	var collection Collection
	var status string
	var contractID, receivableID pgtype.Int8
	var documentKey, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&collection.ID, &collection.Code, &collection.ClientID, &contractID,
		&collection.TankID, &collection.CollectorID, &collection.CollectedAt,
		&collection.Liters, &collection.UnitPrice, &collection.TotalValue,
		&status, &receivableID, &documentKey, &notes,
		&collection.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	collection.Status = Status(status)
	if contractID.Valid {
		collection.ContractID = &contractID.Int64
	}
	if receivableID.Valid {
		collection.ReceivableID = &receivableID.Int64
	}
	if documentKey.Valid {
		collection.DocumentKey = &documentKey.String
	}
	if notes.Valid {
		collection.Notes = &notes.String
	}
	if createdAt.Valid {
		collection.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		collection.UpdatedAt = updatedAt.Time
	}
	return &collection, nil
}

package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists tank stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
	GetBalanceForUpdate(ctx context.Context, tankID int64) (TankBalance, error)
	UpsertBalance(ctx context.Context, balance TankBalance) error
	InsertCardEntry(ctx context.Context, card StockCardEntry, tankID, movementID int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// ErrBalanceNotFound indicates a missing balance row.
var ErrBalanceNotFound = errors.New("inventory balance not found")

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetStockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
		SELECT code, movement_type, posted_at, liters_in, liters_out,
		       balance_liters, unit_cost, balance_cost, note
		FROM stock_card_entries
		WHERE tank_id = $1
		  AND ($2::timestamptz IS NULL OR posted_at >= $2)
		  AND ($3::timestamptz IS NULL OR posted_at <= $3)
		ORDER BY posted_at, id
		LIMIT $4
	`, filter.TankID, tsOrNull(filter.From), tsOrNull(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []StockCardEntry
	for rows.Next() {
		var entry StockCardEntry
		var movementType string
		if err := rows.Scan(&entry.Code, &movementType, &entry.PostedAt, &entry.LitersIn,
			&entry.LitersOut, &entry.BalanceQty, &entry.UnitCost, &entry.BalanceCost,
			&entry.Note); err != nil {
			return nil, err
		}
		entry.Type = MovementType(movementType)
		cards = append(cards, entry)
	}
	return cards, rows.Err()
}

func (r *Repository) ListBalances(ctx context.Context) ([]TankBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tank_id, liters, avg_cost, updated_at
		FROM tank_balances
		ORDER BY tank_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []TankBalance
	for rows.Next() {
		var balance TankBalance
		if err := rows.Scan(&balance.TankID, &balance.Liters, &balance.AvgCost, &balance.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, rows.Err()
}

func (r *txRepo) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (
			code, movement_type, tank_id, liters, unit_cost, ref_module, ref_id,
			note, posted_at, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		RETURNING id
	`, movement.Code, string(movement.Type), movement.TankID, movement.Liters,
		movement.UnitCost, movement.RefModule, int8OrNull(movement.RefID),
		movement.Note, movement.PostedAt, int8OrNull(movement.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepo) GetBalanceForUpdate(ctx context.Context, tankID int64) (TankBalance, error) {
	var balance TankBalance
	err := r.tx.QueryRow(ctx, `
		SELECT tank_id, liters, avg_cost, updated_at
		FROM tank_balances WHERE tank_id = $1
		FOR UPDATE
	`, tankID).Scan(&balance.TankID, &balance.Liters, &balance.AvgCost, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TankBalance{TankID: tankID}, ErrBalanceNotFound
		}
		return TankBalance{}, err
	}
	return balance, nil
}

func (r *txRepo) UpsertBalance(ctx context.Context, balance TankBalance) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO tank_balances (tank_id, liters, avg_cost, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (tank_id) DO UPDATE
		SET liters = EXCLUDED.liters, avg_cost = EXCLUDED.avg_cost, updated_at = NOW()
	`, balance.TankID, balance.Liters, balance.AvgCost)
	return err
}

func (r *txRepo) InsertCardEntry(ctx context.Context, card StockCardEntry, tankID, movementID int64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_card_entries (
			tank_id, movement_id, code, movement_type, liters_in, liters_out,
			balance_liters, unit_cost, balance_cost, posted_at, note
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, tankID, movementID, card.Code, string(card.Type), card.LitersIn, card.LitersOut,
		card.BalanceQty, card.UnitCost, card.BalanceCost, card.PostedAt, card.Note)
	return err
}

func tsOrNull(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func int8OrNull(v int64) pgtype.Int8 {
	return pgtype.Int8{Int64: v, Valid: v != 0}
}

package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/platform/db"
	"github.com/recoleo/recoleo/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const contractColumns = `
	id, number, client_id, status, monthly_liters, price_per_liter,
	total_value, down_payment, installments_number, issue_date, start_date,
	end_date, document_key, notes, created_by, created_at, updated_at
`

func (r *repository) Get(ctx context.Context, id int64) (*Contract, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractColumns), id)
	contract, err := scanContract(row)
	if err != nil {
		return nil, err
	}
	plan, err := r.loadPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	contract.Plan = plan
	return contract, nil
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Contract, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM contracts WHERE number = $1", contractColumns), number)
	return scanContract(row)
}

func (r *repository) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM contracts %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM contracts %s ORDER BY number DESC LIMIT $%d OFFSET $%d",
		contractColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *contract)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, contract Contract) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO contracts (
				number, client_id, status, monthly_liters, price_per_liter,
				total_value, down_payment, installments_number, issue_date,
				start_date, end_date, notes, created_by, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
			RETURNING id
		`,
			contract.Number, contract.ClientID, string(contract.Status),
			contract.MonthlyLiters, contract.PricePerLiter, contract.TotalValue,
			contract.DownPayment, contract.Installments, contract.IssueDate,
			contract.StartDate, contract.EndDate, contract.Notes, contract.CreatedBy,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertPlan(ctx, tx, id, contract.Plan)
	})
	return id, err
}

func (r *repository) SaveTerms(ctx context.Context, contract *Contract) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE contracts SET
				total_value = $2, down_payment = $3, installments_number = $4,
				issue_date = $5, updated_at = NOW()
			WHERE id = $1
		`, contract.ID, contract.TotalValue, contract.DownPayment,
			contract.Installments, contract.IssueDate)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM contract_installments WHERE contract_id = $1`, contract.ID); err != nil {
			return err
		}
		return insertPlan(ctx, tx, contract.ID, contract.Plan)
	})
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contracts SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetDocumentKey(ctx context.Context, id int64, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE contracts SET document_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	return err
}

func (r *repository) GenerateNumber(ctx context.Context, year int) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM contracts WHERE date_part('year', issue_date) = $1", year).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("CT-%d-%04d", year, count+1), nil
}

func (r *repository) loadPlan(ctx context.Context, contractID int64) ([]schedule.Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sequence, due_date, amount, origin
		FROM contract_installments
		WHERE contract_id = $1
		ORDER BY sequence
	`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plan []schedule.Installment
	for rows.Next() {
		var inst schedule.Installment
		var amount decimal.Decimal
		var origin string
		if err := rows.Scan(&inst.Sequence, &inst.DueDate, &amount, &origin); err != nil {
			return nil, err
		}
		inst.Amount = amount
		inst.Origin = schedule.Origin(origin)
		plan = append(plan, inst)
	}
	return plan, rows.Err()
}

func insertPlan(ctx context.Context, tx pgx.Tx, contractID int64, plan []schedule.Installment) error {
	for _, inst := range plan {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contract_installments (contract_id, sequence, due_date, amount, origin)
			VALUES ($1, $2, $3, $4, $5)
		`, contractID, inst.Sequence, inst.DueDate, inst.Amount, string(inst.Origin)); err != nil {
			return err
		}
	}
	return nil
}

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	var status string
	var endDate pgtype.Timestamptz
	var documentKey, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID, &c.Number, &c.ClientID, &status, &c.MonthlyLiters, &c.PricePerLiter,
		&c.TotalValue, &c.DownPayment, &c.Installments, &c.IssueDate, &c.StartDate,
		&endDate, &documentKey, &notes, &c.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	c.Status = Status(status)
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	if documentKey.Valid {
		val := documentKey.String
		c.DocumentKey = &val
	}
	if notes.Valid {
		val := notes.String
		c.Notes = &val
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
}

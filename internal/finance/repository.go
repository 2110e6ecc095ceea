package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// NewRepository returns the Postgres-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const documentColumns = `
	id, number, kind, client_id, contract_id, description, total_value,
	down_payment, status, issue_date, created_by, created_at, updated_at
`

func (r *repository) CreateDocument(ctx context.Context, doc Document, installments []Installment) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO financial_documents (
				number, kind, client_id, contract_id, description, total_value,
				down_payment, status, issue_date, created_by, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
			RETURNING id
		`,
			doc.Number, string(doc.Kind), doc.ClientID, doc.ContractID, doc.Description,
			doc.TotalValue, doc.DownPayment, string(doc.Status), doc.IssueDate, doc.CreatedBy,
		).Scan(&id)
		if err != nil {
			return err
		}
		for _, inst := range installments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO financial_installments (
					document_id, sequence, due_date, amount, paid_amount, status, origin
				) VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, id, inst.Sequence, inst.DueDate, inst.Amount, inst.PaidAmount,
				string(inst.Status), string(inst.Origin)); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (r *repository) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM financial_documents WHERE id = $1", documentColumns), id)
	return scanDocument(row)
}

func (r *repository) GetDocumentWithDetails(ctx context.Context, id int64) (*DocumentWithDetails, error) {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	installments, err := r.ListInstallments(ctx, id)
	if err != nil {
		return nil, err
	}

	paid := decimal.Zero
	outstanding := decimal.Zero
	for _, inst := range installments {
		paid = paid.Add(inst.PaidAmount)
		outstanding = outstanding.Add(inst.Outstanding())
	}
	return &DocumentWithDetails{
		Document:     *doc,
		Installments: installments,
		PaidTotal:    paid,
		Balance:      outstanding,
	}, nil
}

func (r *repository) ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argPos))
		args = append(args, string(*req.Kind))
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM financial_documents %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM financial_documents %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d",
		documentColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *doc)
	}
	return result, total, rows.Err()
}

func (r *repository) SetDocumentStatus(ctx context.Context, id int64, status DocumentStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE financial_documents SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const installmentColumns = `id, document_id, sequence, due_date, amount, paid_amount, status, origin`

func (r *repository) GetInstallment(ctx context.Context, id int64) (*Installment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM financial_installments WHERE id = $1", installmentColumns), id)
	return scanInstallment(row)
}

func (r *repository) ListInstallments(ctx context.Context, documentID int64) ([]Installment, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM financial_installments WHERE document_id = $1 ORDER BY sequence", installmentColumns),
		documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inst)
	}
	return result, rows.Err()
}

func (r *repository) RecordPayment(ctx context.Context, payment Payment, installment *Installment) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO financial_payments (installment_id, amount, paid_at, method, note, created_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW())
			RETURNING id
		`, payment.InstallmentID, payment.Amount, payment.PaidAt, payment.Method,
			payment.Note, payment.CreatedBy).Scan(&id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE financial_installments SET paid_amount = $2, status = $3 WHERE id = $1
		`, installment.ID, installment.PaidAmount, string(installment.Status))
		return err
	})
	return id, err
}

func (r *repository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM financial_installments
		WHERE status IN ('PENDING', 'PARTIAL') AND due_date < $1
		ORDER BY due_date
	`, installmentColumns), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inst)
	}
	return result, rows.Err()
}

func (r *repository) MarkOverdue(ctx context.Context, installmentIDs []int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE financial_installments SET status = 'OVERDUE' WHERE id = ANY($1)`, installmentIDs)
	return err
}

func (r *repository) AgingBuckets(ctx context.Context, kind DocumentKind, asOf time.Time) (*AgingBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.due_date, i.amount - i.paid_amount
		FROM financial_installments i
		JOIN financial_documents d ON d.id = i.document_id
		WHERE d.kind = $1
		  AND d.status NOT IN ('PAID', 'CANCELLED')
		  AND i.status != 'PAID'
	`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bucket := &AgingBucket{
		Current:   decimal.Zero,
		Bucket30:  decimal.Zero,
		Bucket60:  decimal.Zero,
		Bucket90:  decimal.Zero,
		Bucket120: decimal.Zero,
	}
	for rows.Next() {
		var dueDate time.Time
		var outstanding decimal.Decimal
		if err := rows.Scan(&dueDate, &outstanding); err != nil {
			return nil, err
		}
		days := int(asOf.Sub(dueDate).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(outstanding)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(outstanding)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(outstanding)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(outstanding)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(outstanding)
		}
	}
	return bucket, rows.Err()
}

func (r *repository) GenerateNumber(ctx context.Context, kind DocumentKind, year int) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM financial_documents WHERE kind = $1 AND date_part('year', issue_date) = $2",
		string(kind), year).Scan(&count); err != nil {
		return "", err
	}
	prefix := "REC"
	if kind == KindPayable {
		prefix = "PAY"
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, count+1), nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	var kind, status string
	var clientID, contractID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&doc.ID, &doc.Number, &kind, &clientID, &contractID, &doc.Description,
		&doc.TotalValue, &doc.DownPayment, &status, &doc.IssueDate,
		&doc.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	doc.Kind = DocumentKind(kind)
	doc.Status = DocumentStatus(status)
	if clientID.Valid {
		doc.ClientID = &clientID.Int64
	}
	if contractID.Valid {
		doc.ContractID = &contractID.Int64
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}

func scanInstallment(row pgx.Row) (*Installment, error) {
	var inst Installment
	var status, origin string
	err := row.Scan(&inst.ID, &inst.DocumentID, &inst.Sequence, &inst.DueDate,
		&inst.Amount, &inst.PaidAmount, &status, &origin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	inst.Status = InstallmentStatus(status)
	inst.Origin = schedule.Origin(origin)
	return &inst, nil
}

package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recoleo/recoleo/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	GetByCode(ctx context.Context, code string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	GenerateCode(ctx context.Context) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `
	id, code, name, trade_name, tax_id, email, phone, responsible_name,
	address_line1, address_line2, city, state, postal_code,
	collection_every_days, estimated_liters, is_active, notes,
	created_by, created_at, updated_at
`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", clientColumns), id)
	return scanClient(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Client, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM clients WHERE code = $1", clientColumns), code)
	return scanClient(row)
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR trade_name ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM clients %s ORDER BY code LIMIT $%d OFFSET $%d",
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *client)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, client Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (
			code, name, trade_name, tax_id, email, phone, responsible_name,
			address_line1, address_line2, city, state, postal_code,
			collection_every_days, estimated_liters, is_active, notes, created_by,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW(),NOW())
		RETURNING id
	`,
		client.Code, client.Name, client.TradeName, client.TaxID, client.Email,
		client.Phone, client.ResponsibleName, client.AddressLine1, client.AddressLine2,
		client.City, client.State, client.PostalCode, client.CollectionEvery,
		client.EstimatedLiters, client.IsActive, client.Notes, client.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	// Column names come from the service layer, never from user input.
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, column := range []string{
		"name", "trade_name", "tax_id", "email", "phone", "responsible_name",
		"address_line1", "address_line2", "city", "state", "postal_code",
		"collection_every_days", "estimated_liters", "is_active", "notes",
	} {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

func (r *repository) GenerateCode(ctx context.Context) (string, error) {
	// Best-effort suggestion for the form; uniqueness is still enforced by
	// the code column constraint on insert.
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM clients").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("CLI-%05d", count+1), nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var tradeName, taxID, email, phone, responsible pgtype.Text
	var addr1, addr2, city, state, postal, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &tradeName, &taxID, &email, &phone, &responsible,
		&addr1, &addr2, &city, &state, &postal,
		&c.CollectionEvery, &c.EstimatedLiters, &c.IsActive, &notes,
		&c.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	c.TradeName = textPtr(tradeName)
	c.TaxID = textPtr(taxID)
	c.Email = textPtr(email)
	c.Phone = textPtr(phone)
	c.ResponsibleName = textPtr(responsible)
	c.AddressLine1 = textPtr(addr1)
	c.AddressLine2 = textPtr(addr2)
	c.City = textPtr(city)
	c.State = textPtr(state)
	c.PostalCode = textPtr(postal)
	c.Notes = textPtr(notes)
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}

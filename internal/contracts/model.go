package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/shared"
)

// Status enumerates the contract lifecycle.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

// Contract binds a client to a collection commitment and, when the service
// is financed, to an installment plan.
type Contract struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	ClientID      int64           `json:"client_id"`
	Status        Status          `json:"status"`
	MonthlyLiters float64         `json:"monthly_liters"`
	PricePerLiter decimal.Decimal `json:"price_per_liter"`
	TotalValue    decimal.Decimal `json:"total_value"`
	DownPayment   decimal.Decimal `json:"down_payment"`
	Installments  int             `json:"installments_number"`
	IssueDate     time.Time       `json:"issue_date"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	DocumentKey   *string         `json:"document_key,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     int64           `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Plan is hydrated from the installments table alongside the row.
	Plan []schedule.Installment `json:"plan,omitempty"`
}

// AmortizationInput assembles the contract's financing terms for the
// schedule engine.
func (c *Contract) AmortizationInput() schedule.Input {
	return schedule.Input{
		Total:       c.TotalValue,
		DownPayment: c.DownPayment,
		Count:       c.Installments,
		IssueDate:   c.IssueDate,
	}
}

// ValidateTransition checks a status change against the lifecycle policy.
func ValidateTransition(current, target Status) error {
	if current == target {
		return nil
	}
	allowed := map[Status][]Status{
		StatusDraft:  {StatusActive, StatusCancelled},
		StatusActive: {StatusClosed, StatusCancelled},
	}
	for _, next := range allowed[current] {
		if next == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidStatusTransition, current, target)
}

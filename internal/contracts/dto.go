package contracts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
)

type CreateContractRequest struct {
	Number        string          `json:"number" validate:"omitempty,max=50"`
	ClientID      int64           `json:"client_id" validate:"required,gt=0"`
	MonthlyLiters float64         `json:"monthly_liters" validate:"gte=0"`
	PricePerLiter decimal.Decimal `json:"price_per_liter"`
	TotalValue    decimal.Decimal `json:"total_value"`
	DownPayment   decimal.Decimal `json:"down_payment"`
	Installments  int             `json:"installments_number"`
	IssueDate     time.Time       `json:"issue_date" validate:"required"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}

// UpdateTermsRequest changes the financing terms of a draft contract. The
// plan is rebuilt, preserving installments the user edited by hand.
type UpdateTermsRequest struct {
	TotalValue   *decimal.Decimal `json:"total_value,omitempty"`
	DownPayment  *decimal.Decimal `json:"down_payment,omitempty"`
	Installments *int             `json:"installments_number,omitempty"`
	IssueDate    *time.Time       `json:"issue_date,omitempty"`
}

// OverrideInstallmentRequest hand-edits one row of the plan.
type OverrideInstallmentRequest struct {
	Sequence int              `json:"sequence" validate:"required,gt=0"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	DueDate  *time.Time       `json:"due_date,omitempty"`
}

// ReconcileRequest finalizes the down-payment field (the blur event of the
// form) and reports the possibly adjusted installment count.
type ReconcileRequest struct {
	DownPayment decimal.Decimal `json:"down_payment"`
}

// PlanResponse returns a plan along with a non-fatal balance discrepancy,
// when manual edits left one.
type PlanResponse struct {
	Contract        *Contract              `json:"contract"`
	Plan            []schedule.Installment `json:"plan"`
	BalanceMismatch *string                `json:"balance_mismatch,omitempty"`
}

type ListContractsRequest struct {
	ClientID *int64  `json:"client_id,omitempty"`
	Status   *Status `json:"status,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}

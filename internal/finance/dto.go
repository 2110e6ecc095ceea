package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
)

// CreateDocumentInput opens a ledger document. When Plan is empty the
// installments are generated by the amortization engine from the financing
// terms; a caller-supplied plan (e.g. a contract's hand-edited one) is used
// as-is after the balance check.
type CreateDocumentInput struct {
	Number       string
	Kind         DocumentKind
	ClientID     *int64
	ContractID   *int64
	Description  string
	TotalValue   decimal.Decimal
	DownPayment  decimal.Decimal
	Installments int
	IssueDate    time.Time
	Plan         []schedule.Installment
	CreatedBy    int64
}

// CreateDocumentRequest is the HTTP form of CreateDocumentInput.
type CreateDocumentRequest struct {
	Number       string          `json:"number" validate:"omitempty,max=50"`
	Kind         DocumentKind    `json:"kind" validate:"required,oneof=RECEIVABLE PAYABLE"`
	ClientID     *int64          `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Description  string          `json:"description" validate:"required,max=500"`
	TotalValue   decimal.Decimal `json:"total_value"`
	DownPayment  decimal.Decimal `json:"down_payment"`
	Installments int             `json:"installments_number"`
	IssueDate    time.Time       `json:"issue_date" validate:"required"`
}

// RegisterPaymentRequest records a payment against an installment.
type RegisterPaymentRequest struct {
	InstallmentID int64           `json:"installment_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
	Method        string          `json:"method" validate:"required,oneof=CASH PIX TRANSFER BOLETO CARD"`
	Note          *string         `json:"note,omitempty"`
}

// ListDocumentsRequest filters ledger listings.
type ListDocumentsRequest struct {
	Kind     *DocumentKind   `json:"kind,omitempty"`
	Status   *DocumentStatus `json:"status,omitempty"`
	ClientID *int64          `json:"client_id,omitempty"`
	Limit    int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int             `json:"offset" validate:"gte=0"`
}

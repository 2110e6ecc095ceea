// Package finance keeps the ledger of financial documents, their installment
// plans and the payments registered against them.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
)

// DocumentKind separates what the company is owed from what it owes.
type DocumentKind string

const (
	KindReceivable DocumentKind = "RECEIVABLE"
	KindPayable    DocumentKind = "PAYABLE"
)

// DocumentStatus enumerates ledger document states.
type DocumentStatus string

const (
	DocStatusOpen      DocumentStatus = "OPEN"
	DocStatusPartial   DocumentStatus = "PARTIAL"
	DocStatusPaid      DocumentStatus = "PAID"
	DocStatusCancelled DocumentStatus = "CANCELLED"
)

// InstallmentStatus enumerates per-installment payment states.
type InstallmentStatus string

const (
	InstStatusPending InstallmentStatus = "PENDING"
	InstStatusPartial InstallmentStatus = "PARTIAL"
	InstStatusPaid    InstallmentStatus = "PAID"
	InstStatusOverdue InstallmentStatus = "OVERDUE"
)

// Document is a ledger entry: one receivable or payable with a plan.
type Document struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	Kind        DocumentKind    `json:"kind"`
	ClientID    *int64          `json:"client_id,omitempty"`
	ContractID  *int64          `json:"contract_id,omitempty"`
	Description string          `json:"description"`
	TotalValue  decimal.Decimal `json:"total_value"`
	DownPayment decimal.Decimal `json:"down_payment"`
	Status      DocumentStatus  `json:"status"`
	IssueDate   time.Time       `json:"issue_date"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Installment is one scheduled payment of a document.
type Installment struct {
	ID         int64             `json:"id"`
	DocumentID int64             `json:"document_id"`
	Sequence   int               `json:"sequence"`
	DueDate    time.Time         `json:"due_date"`
	Amount     decimal.Decimal   `json:"amount"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Status     InstallmentStatus `json:"status"`
	Origin     schedule.Origin   `json:"origin"`
}

// Outstanding returns what is still owed on the installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// Settled reports whether nothing further is owed. Tolerance only absorbs
// rounding residue left after payments; an installment nobody has paid is
// settled solely when it carries no amount at all.
func (i *Installment) Settled() bool {
	if i.PaidAmount.IsZero() {
		return !i.Outstanding().IsPositive()
	}
	return i.Outstanding().LessThanOrEqual(schedule.Tolerance)
}

// Payment records money received or paid against one installment.
type Payment struct {
	ID            int64           `json:"id"`
	InstallmentID int64           `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
	Method        string          `json:"method"`
	Note          *string         `json:"note,omitempty"`
	CreatedBy     int64           `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DocumentWithDetails bundles a document with its plan for detail views.
type DocumentWithDetails struct {
	Document     Document        `json:"document"`
	Installments []Installment   `json:"installments"`
	PaidTotal    decimal.Decimal `json:"paid_total"`
	Balance      decimal.Decimal `json:"balance"`
}

// AgingBucket summarises outstanding amounts by days overdue.
type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"bucket_30"`
	Bucket60  decimal.Decimal `json:"bucket_60"`
	Bucket90  decimal.Decimal `json:"bucket_90"`
	Bucket120 decimal.Decimal `json:"bucket_120"`
}

// Package collections records oil pickup visits at client sites. Posting a
// collection moves the oil into a tank and opens the matching receivable.
package collections

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/shared"
)

// Status enumerates collection record states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// Collection is one pickup visit at a client site.
type Collection struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	ClientID     int64           `json:"client_id"`
	ContractID   *int64          `json:"contract_id,omitempty"`
	TankID       int64           `json:"tank_id"`
	CollectorID  int64           `json:"collector_id"`
	CollectedAt  time.Time       `json:"collected_at"`
	Liters       float64         `json:"liters"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Status       Status          `json:"status"`
	ReceivableID *int64          `json:"receivable_id,omitempty"`
	DocumentKey  *string         `json:"document_key,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedBy    int64           `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ValidateTransition checks whether the collection may move to the target
// status.
func (c *Collection) ValidateTransition(target Status) error {
	allowed := map[Status][]Status{
		StatusDraft:  {StatusPosted, StatusCancelled},
		StatusPosted: {StatusCancelled},
	}
	for _, next := range allowed[c.Status] {
		if next == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", shared.ErrInvalidStatusTransition, c.Status, target)
}

package collections

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCollectionRequest opens a draft pickup record.
type CreateCollectionRequest struct {
	Code        string          `json:"code" validate:"omitempty,max=50"`
	ClientID    int64           `json:"client_id" validate:"required,gt=0"`
	ContractID  *int64          `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	TankID      int64           `json:"tank_id" validate:"required,gt=0"`
	CollectorID int64           `json:"collector_id" validate:"required,gt=0"`
	CollectedAt time.Time       `json:"collected_at" validate:"required"`
	Liters      float64         `json:"liters" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Notes       *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateCollectionRequest patches a draft record.
type UpdateCollectionRequest struct {
	TankID      *int64           `json:"tank_id,omitempty" validate:"omitempty,gt=0"`
	CollectorID *int64           `json:"collector_id,omitempty" validate:"omitempty,gt=0"`
	CollectedAt *time.Time       `json:"collected_at,omitempty"`
	Liters      *float64         `json:"liters,omitempty" validate:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListCollectionsRequest filters pickup listings.
type ListCollectionsRequest struct {
	ClientID *int64     `json:"client_id,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}

package clients

import "time"

// Client is a collection point: a restaurant, industrial kitchen or other
// establishment whose used cooking oil the company collects.
type Client struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	TradeName       *string   `json:"trade_name,omitempty"`
	TaxID           *string   `json:"tax_id,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	ResponsibleName *string   `json:"responsible_name,omitempty"`
	AddressLine1    *string   `json:"address_line1,omitempty"`
	AddressLine2    *string   `json:"address_line2,omitempty"`
	City            *string   `json:"city,omitempty"`
	State           *string   `json:"state,omitempty"`
	PostalCode      *string   `json:"postal_code,omitempty"`
	CollectionEvery int       `json:"collection_every_days"`
	EstimatedLiters float64   `json:"estimated_liters"`
	IsActive        bool      `json:"is_active"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

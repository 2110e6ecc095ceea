package clients

type CreateClientRequest struct {
	Code            string  `json:"code" validate:"omitempty,max=50"`
	Name            string  `json:"name" validate:"required,max=200"`
	TradeName       *string `json:"trade_name,omitempty" validate:"omitempty,max=200"`
	TaxID           *string `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	ResponsibleName *string `json:"responsible_name,omitempty" validate:"omitempty,max=200"`
	AddressLine1    *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2    *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State           *string `json:"state,omitempty" validate:"omitempty,len=2"`
	PostalCode      *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	CollectionEvery int     `json:"collection_every_days" validate:"gte=0,lte=365"`
	EstimatedLiters float64 `json:"estimated_liters" validate:"gte=0"`
	Notes           *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	TradeName       *string  `json:"trade_name,omitempty" validate:"omitempty,max=200"`
	TaxID           *string  `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	ResponsibleName *string  `json:"responsible_name,omitempty" validate:"omitempty,max=200"`
	AddressLine1    *string  `json:"address_line1,omitempty"`
	AddressLine2    *string  `json:"address_line2,omitempty"`
	City            *string  `json:"city,omitempty"`
	State           *string  `json:"state,omitempty" validate:"omitempty,len=2"`
	PostalCode      *string  `json:"postal_code,omitempty"`
	CollectionEvery *int     `json:"collection_every_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	EstimatedLiters *float64 `json:"estimated_liters,omitempty" validate:"omitempty,gte=0"`
	IsActive        *bool    `json:"is_active,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}

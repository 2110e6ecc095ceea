package inventory

import (
	"context"
	"fmt"

	"github.com/recoleo/recoleo/internal/collections"
)

// CollectionStockAdapter satisfies collections.StockPort: posting a pickup
// moves the collected liters into the destination tank at the pickup price.
type CollectionStockAdapter struct {
	service *Service
}

// NewCollectionStockAdapter builds the adapter.
func NewCollectionStockAdapter(service *Service) *CollectionStockAdapter {
	return &CollectionStockAdapter{service: service}
}

// PostCollectionIn records the inbound movement for a posted collection.
func (a *CollectionStockAdapter) PostCollectionIn(ctx context.Context, collection *collections.Collection) (string, error) {
	unitCost, _ := collection.UnitPrice.Float64()
	card, err := a.service.PostInbound(ctx, InboundInput{
		Code:      fmt.Sprintf("IN-%s", collection.Code),
		TankID:    collection.TankID,
		Liters:    collection.Liters,
		UnitCost:  unitCost,
		Note:      fmt.Sprintf("Collection %s", collection.Code),
		ActorID:   collection.CreatedBy,
		RefModule: "collections",
		RefID:     collection.ID,
	})
	if err != nil {
		return "", err
	}
	return card.Code, nil
}

package finance

import (
	"context"
	"fmt"

	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/contracts"
)

// ContractReceivableAdapter satisfies the contracts.ReceivablePort: activating
// a financed contract opens its receivable in the ledger with the contract's
// plan, hand edits included.
type ContractReceivableAdapter struct {
	service *Service
}

// NewContractReceivableAdapter builds the adapter.
func NewContractReceivableAdapter(service *Service) *ContractReceivableAdapter {
	return &ContractReceivableAdapter{service: service}
}

// OpenContractReceivable opens the ledger document for an activated contract.
func (a *ContractReceivableAdapter) OpenContractReceivable(ctx context.Context, contract *contracts.Contract) (int64, error) {
	contractID := contract.ID
	clientID := contract.ClientID
	details, err := a.service.CreateDocument(ctx, CreateDocumentInput{
		Kind:         KindReceivable,
		ClientID:     &clientID,
		ContractID:   &contractID,
		Description:  fmt.Sprintf("Contract %s collection services", contract.Number),
		TotalValue:   contract.TotalValue,
		DownPayment:  contract.DownPayment,
		Installments: contract.Installments,
		IssueDate:    contract.IssueDate,
		Plan:         contract.Plan,
		CreatedBy:    contract.CreatedBy,
	})
	if err != nil {
		return 0, err
	}
	return details.Document.ID, nil
}

// CollectionReceivableAdapter satisfies collections.LedgerPort: a posted
// pickup with a value opens a single-installment receivable due on the
// collection date.
type CollectionReceivableAdapter struct {
	service *Service
}

// NewCollectionReceivableAdapter builds the adapter.
func NewCollectionReceivableAdapter(service *Service) *CollectionReceivableAdapter {
	return &CollectionReceivableAdapter{service: service}
}

// OpenCollectionReceivable opens the ledger document for a posted collection.
func (a *CollectionReceivableAdapter) OpenCollectionReceivable(ctx context.Context, collection *collections.Collection) (int64, error) {
	clientID := collection.ClientID
	details, err := a.service.CreateDocument(ctx, CreateDocumentInput{
		Kind:         KindReceivable,
		ClientID:     &clientID,
		ContractID:   collection.ContractID,
		Description:  fmt.Sprintf("Collection %s (%.0f L)", collection.Code, collection.Liters),
		TotalValue:   collection.TotalValue,
		Installments: 1,
		IssueDate:    collection.CollectedAt,
		CreatedBy:    collection.CreatedBy,
	})
	if err != nil {
		return 0, err
	}
	return details.Document.ID, nil
}

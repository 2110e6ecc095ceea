package app

import (
	"context"
	"fmt"
	"time"

	"github.com/recoleo/recoleo/internal/clients"
	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/contracts"
	"github.com/recoleo/recoleo/internal/documents"
)

// DocumentSource assembles template data for PDF rendering by composing the
// client, contract and collection services. It also routes storage keys back
// to the record the document was generated for.
type DocumentSource struct {
	clients     *clients.Service
	contracts   *contracts.Service
	collections *collections.Service
}

func NewDocumentSource(cl *clients.Service, ct *contracts.Service, co *collections.Service) *DocumentSource {
	return &DocumentSource{clients: cl, contracts: ct, collections: co}
}

func (s *DocumentSource) ContractData(ctx context.Context, refID int64) (*documents.ContractData, error) {
	contract, err := s.contracts.Get(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("load contract %d: %w", refID, err)
	}
	client, err := s.clients.Get(ctx, contract.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load contract client %d: %w", contract.ClientID, err)
	}

	rows := make([]documents.InstallmentRow, 0, len(contract.Plan))
	for _, inst := range contract.Plan {
		rows = append(rows, documents.InstallmentRow{
			Sequence: inst.Sequence,
			DueDate:  inst.DueDate,
			Amount:   inst.Amount,
		})
	}

	return &documents.ContractData{
		Number:       contract.Number,
		ClientName:   client.Name,
		ClientTaxID:  deref(client.TaxID),
		IssueDate:    contract.IssueDate,
		TotalValue:   contract.TotalValue,
		DownPayment:  contract.DownPayment,
		Installments: rows,
	}, nil
}

func (s *DocumentSource) ReceiptData(ctx context.Context, refID int64) (*documents.ReceiptData, error) {
	collection, err := s.collections.Get(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("load collection %d: %w", refID, err)
	}
	client, err := s.clients.Get(ctx, collection.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load collection client %d: %w", collection.ClientID, err)
	}

	return &documents.ReceiptData{
		Code:        collection.Code,
		ClientName:  client.Name,
		CollectedAt: collection.CollectedAt,
		Liters:      collection.Liters,
		UnitPrice:   collection.UnitPrice,
		TotalValue:  collection.TotalValue,
		Collector:   fmt.Sprintf("Coletor %d", collection.CollectorID),
	}, nil
}

// CertificateData covers the trailing twelve months of posted collections for
// the client identified by refID.
func (s *DocumentSource) CertificateData(ctx context.Context, refID int64) (*documents.CertificateData, error) {
	client, err := s.clients.Get(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("load certificate client %d: %w", refID, err)
	}

	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	totals, err := s.collections.TotalsByClient(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("aggregate collections for client %d: %w", refID, err)
	}

	var liters float64
	for _, total := range totals {
		if total.ClientID == refID {
			liters = total.Liters
			break
		}
	}

	return &documents.CertificateData{
		ClientName:  client.Name,
		ClientTaxID: deref(client.TaxID),
		PeriodFrom:  from,
		PeriodTo:    now,
		Liters:      liters,
		IssuedAt:    now,
	}, nil
}

// AttachDocument records the rendered PDF's storage key on the source record.
func (s *DocumentSource) AttachDocument(ctx context.Context, kind documents.Kind, refID int64, storageKey string) error {
	switch kind {
	case documents.KindContract:
		return s.contracts.AttachDocument(ctx, refID, storageKey)
	case documents.KindReceipt:
		return s.collections.AttachDocument(ctx, refID, storageKey)
	case documents.KindCertificate:
		return nil
	default:
		return fmt.Errorf("unknown document kind %q", kind)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/shared"
)

// StockPort posts the collected oil into a tank. Implemented by the
// inventory module.
type StockPort interface {
	PostCollectionIn(ctx context.Context, collection *Collection) (string, error)
}

// LedgerPort opens the receivable for a posted collection. Implemented by
// the finance module.
type LedgerPort interface {
	OpenCollectionReceivable(ctx context.Context, collection *Collection) (int64, error)
}

// Repository defines data access for collections.
type Repository interface {
	Create(ctx context.Context, collection Collection) (int64, error)
	GetByID(ctx context.Context, id int64) (*Collection, error)
	List(ctx context.Context, req ListCollectionsRequest) ([]Collection, int, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	SetStatus(ctx context.Context, id int64, status Status) error
	SetReceivable(ctx context.Context, id int64, receivableID int64) error
	SetDocumentKey(ctx context.Context, id int64, key string) error
	GenerateCode(ctx context.Context, year int) (string, error)
	TotalsByClient(ctx context.Context, from, to time.Time) ([]ClientTotal, error)
}

// ClientTotal aggregates posted volume and value per client for reports.
type ClientTotal struct {
	ClientID   int64           `json:"client_id"`
	ClientName string          `json:"client_name"`
	Visits     int             `json:"visits"`
	Liters     float64         `json:"liters"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type Service struct {
	repo   Repository
	stock  StockPort
	ledger LedgerPort
}

func NewService(repo Repository, stock StockPort, ledger LedgerPort) *Service {
	return &Service{repo: repo, stock: stock, ledger: ledger}
}

func (s *Service) Create(ctx context.Context, req CreateCollectionRequest, createdBy int64) (*Collection, error) {
	code := req.Code
	if code == "" {
		generated, err := s.repo.GenerateCode(ctx, req.CollectedAt.Year())
		if err != nil {
			return nil, fmt.Errorf("generate collection code: %w", err)
		}
		code = generated
	}

	liters := decimal.NewFromFloat(req.Liters)
	collection := Collection{
		Code:        code,
		ClientID:    req.ClientID,
		ContractID:  req.ContractID,
		TankID:      req.TankID,
		CollectorID: req.CollectorID,
		CollectedAt: req.CollectedAt,
		Liters:      req.Liters,
		UnitPrice:   req.UnitPrice,
		TotalValue:  liters.Mul(req.UnitPrice).Round(2),
		Status:      StatusDraft,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}

	id, err := s.repo.Create(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Collection, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCollectionsRequest) ([]Collection, int, error) {
	return s.repo.List(ctx, req)
}

// Update patches a draft collection. Posted records are immutable apart from
// their attached receipt.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCollectionRequest) (*Collection, error) {
	collection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireDraft(collection); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.TankID != nil {
		fields["tank_id"] = *req.TankID
	}
	if req.CollectorID != nil {
		fields["collector_id"] = *req.CollectorID
	}
	if req.CollectedAt != nil {
		fields["collected_at"] = *req.CollectedAt
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	liters := collection.Liters
	unitPrice := collection.UnitPrice
	if req.Liters != nil {
		liters = *req.Liters
		fields["liters"] = liters
	}
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
		fields["unit_price"] = unitPrice
	}
	if req.Liters != nil || req.UnitPrice != nil {
		fields["total_value"] = decimal.NewFromFloat(liters).Mul(unitPrice).Round(2)
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update collection: %w", err)
		}
	}
	return s.repo.GetByID(ctx, id)
}

// Post confirms the pickup: oil enters the tank and, when the collection has
// a value, its receivable is opened. The record then becomes immutable.
func (s *Service) Post(ctx context.Context, id int64) (*Collection, error) {
	collection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := collection.ValidateTransition(StatusPosted); err != nil {
		return nil, err
	}

	if _, err := s.stock.PostCollectionIn(ctx, collection); err != nil {
		return nil, fmt.Errorf("post stock movement: %w", err)
	}

	if collection.TotalValue.IsPositive() {
		receivableID, err := s.ledger.OpenCollectionReceivable(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("open receivable: %w", err)
		}
		if err := s.repo.SetReceivable(ctx, id, receivableID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetStatus(ctx, id, StatusPosted); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Collection, error) {
	collection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := collection.ValidateTransition(StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// AttachDocument stores the storage key of the rendered receipt PDF.
func (s *Service) AttachDocument(ctx context.Context, id int64, key string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SetDocumentKey(ctx, id, key)
}

// TotalsByClient aggregates posted collections for the per-client report.
func (s *Service) TotalsByClient(ctx context.Context, from, to time.Time) ([]ClientTotal, error) {
	return s.repo.TotalsByClient(ctx, from, to)
}

func requireDraft(collection *Collection) error {
	if collection.Status != StatusDraft {
		return fmt.Errorf("%w: %s collection cannot be edited", shared.ErrInvalidStatusTransition, collection.Status)
	}
	return nil
}

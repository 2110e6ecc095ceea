package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error)
	ListBalances(ctx context.Context) ([]TankBalance, error)
}

// Service coordinates tank stock operations.
type Service struct {
	repo     RepositoryPort
	allowNeg bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, allowNeg: cfg.AllowNegativeStock}
}

// PostInbound posts oil into a tank, normally from a posted collection.
func (s *Service) PostInbound(ctx context.Context, input InboundInput) (StockCardEntry, error) {
	if input.TankID == 0 {
		return StockCardEntry{}, errors.New("inventory: tank required")
	}
	if input.Liters <= 0 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	if input.UnitCost < 0 {
		return StockCardEntry{}, ErrInvalidUnitCost
	}
	return s.postMovement(ctx, movementParams{
		Code:      input.Code,
		TankID:    input.TankID,
		QtyChange: input.Liters,
		UnitCost:  input.UnitCost,
		Type:      MovementIn,
		Note:      input.Note,
		ActorID:   input.ActorID,
		RefModule: input.RefModule,
		RefID:     input.RefID,
	})
}

// PostOutbound posts oil out of a tank at the tank's moving average cost.
func (s *Service) PostOutbound(ctx context.Context, input OutboundInput) (StockCardEntry, error) {
	if input.TankID == 0 {
		return StockCardEntry{}, errors.New("inventory: tank required")
	}
	if input.Liters <= 0 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	return s.postMovement(ctx, movementParams{
		Code:      input.Code,
		TankID:    input.TankID,
		QtyChange: -input.Liters,
		Type:      MovementOut,
		Note:      input.Note,
		ActorID:   input.ActorID,
		RefModule: input.RefModule,
		RefID:     input.RefID,
	})
}

// PostAdjustment posts an adjustment which may be positive or negative.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (StockCardEntry, error) {
	if input.TankID == 0 {
		return StockCardEntry{}, errors.New("inventory: tank required")
	}
	if math.Abs(input.Liters) < 1e-9 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	if input.Liters > 0 && input.UnitCost < 0 {
		return StockCardEntry{}, ErrInvalidUnitCost
	}
	return s.postMovement(ctx, movementParams{
		Code:      input.Code,
		TankID:    input.TankID,
		QtyChange: input.Liters,
		UnitCost:  input.UnitCost,
		Type:      MovementAdjust,
		Note:      input.Note,
		ActorID:   input.ActorID,
	})
}

// PostTransfer moves oil between tanks using OUT + IN at source cost.
func (s *Service) PostTransfer(ctx context.Context, input TransferInput) (StockCardEntry, StockCardEntry, error) {
	if input.SrcTank == 0 || input.DstTank == 0 {
		return StockCardEntry{}, StockCardEntry{}, errors.New("inventory: tank required")
	}
	if input.SrcTank == input.DstTank {
		return StockCardEntry{}, StockCardEntry{}, errors.New("inventory: source and destination tank must differ")
	}
	if input.Liters <= 0 {
		return StockCardEntry{}, StockCardEntry{}, ErrInvalidQuantity
	}

	outCard, err := s.postMovement(ctx, movementParams{
		Code:      fmt.Sprintf("%s-OUT", baseCode(input.Code)),
		TankID:    input.SrcTank,
		QtyChange: -input.Liters,
		Type:      MovementTransfer,
		Note:      fmt.Sprintf("Transfer to tank %d: %s", input.DstTank, input.Note),
		ActorID:   input.ActorID,
	})
	if err != nil {
		return StockCardEntry{}, StockCardEntry{}, err
	}
	inCard, err := s.postMovement(ctx, movementParams{
		Code:      fmt.Sprintf("%s-IN", baseCode(input.Code)),
		TankID:    input.DstTank,
		QtyChange: input.Liters,
		UnitCost:  outCard.UnitCost,
		Type:      MovementTransfer,
		Note:      fmt.Sprintf("Transfer from tank %d: %s", input.SrcTank, input.Note),
		ActorID:   input.ActorID,
	})
	if err != nil {
		return StockCardEntry{}, StockCardEntry{}, err
	}
	return outCard, inCard, nil
}

// GetStockCard lists card entries for a tank.
func (s *Service) GetStockCard(ctx context.Context, filter StockCardFilter) ([]StockCardEntry, error) {
	if filter.TankID == 0 {
		return nil, errors.New("inventory: tank required")
	}
	return s.repo.GetStockCard(ctx, filter)
}

// ListBalances returns the current oil balance of every tank.
func (s *Service) ListBalances(ctx context.Context) ([]TankBalance, error) {
	return s.repo.ListBalances(ctx)
}

type movementParams struct {
	Code      string
	TankID    int64
	QtyChange float64
	UnitCost  float64
	Type      MovementType
	Note      string
	ActorID   int64
	RefModule string
	RefID     int64
}

func (s *Service) postMovement(ctx context.Context, params movementParams) (StockCardEntry, error) {
	now := time.Now().UTC()
	code := params.Code
	if code == "" {
		code = fmt.Sprintf("MOV-%d", now.UnixNano())
	}

	var card StockCardEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, params.TankID)
		if err != nil && !errors.Is(err, ErrBalanceNotFound) {
			return err
		}
		if errors.Is(err, ErrBalanceNotFound) {
			balance = TankBalance{TankID: params.TankID}
		}

		qtyChange := params.QtyChange
		newQty := balance.Liters + qtyChange
		if !s.allowNeg && newQty < -0.0001 {
			return ErrNegativeStock
		}

		var unitCost, newAvg float64
		if qtyChange > 0 {
			unitCost = params.UnitCost
			totalCost := balance.Liters*balance.AvgCost + qtyChange*unitCost
			if newQty != 0 {
				newAvg = totalCost / newQty
			}
		} else {
			unitCost = balance.AvgCost
			if math.Abs(newQty) < 0.0001 {
				newQty = 0
			}
			if newQty > 0 {
				newAvg = balance.AvgCost
			}
		}

		movement := Movement{
			Code:      code,
			Type:      params.Type,
			TankID:    params.TankID,
			Liters:    qtyChange,
			UnitCost:  unitCost,
			RefModule: params.RefModule,
			RefID:     params.RefID,
			Note:      params.Note,
			PostedAt:  now,
			CreatedBy: params.ActorID,
		}
		movementID, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}

		balance.Liters = newQty
		balance.AvgCost = newAvg
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return err
		}

		card = StockCardEntry{
			Code:        code,
			Type:        params.Type,
			PostedAt:    now,
			LitersIn:    math.Max(qtyChange, 0),
			LitersOut:   math.Max(-qtyChange, 0),
			BalanceQty:  newQty,
			UnitCost:    unitCost,
			BalanceCost: newAvg,
			Note:        params.Note,
		}
		return tx.InsertCardEntry(ctx, card, params.TankID, movementID)
	})
	if err != nil {
		return StockCardEntry{}, err
	}
	return card, nil
}

func baseCode(code string) string {
	if code != "" {
		return code
	}
	return fmt.Sprintf("TRF-%d", time.Now().UnixNano())
}

package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	balances map[int64]TankBalance
	cards    []StockCardEntry
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{balances: make(map[int64]TankBalance)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetStockCard(_ context.Context, _ StockCardFilter) ([]StockCardEntry, error) {
	result := make([]StockCardEntry, len(r.cards))
	copy(result, r.cards)
	return result, nil
}

func (r *memoryRepo) ListBalances(_ context.Context) ([]TankBalance, error) {
	var result []TankBalance
	for _, bal := range r.balances {
		result = append(result, bal)
	}
	return result, nil
}

func (tx *memoryTx) InsertMovement(_ context.Context, _ Movement) (int64, error) {
	tx.repo.nextID++
	return tx.repo.nextID, nil
}

func (tx *memoryTx) GetBalanceForUpdate(_ context.Context, tankID int64) (TankBalance, error) {
	if bal, ok := tx.repo.balances[tankID]; ok {
		return bal, nil
	}
	return TankBalance{TankID: tankID}, ErrBalanceNotFound
}

func (tx *memoryTx) UpsertBalance(_ context.Context, balance TankBalance) error {
	tx.repo.balances[balance.TankID] = balance
	return nil
}

func (tx *memoryTx) InsertCardEntry(_ context.Context, card StockCardEntry, _, _ int64) error {
	tx.repo.cards = append(tx.repo.cards, card)
	return nil
}

func TestMovingAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceConfig{})
	ctx := context.Background()

	entry, err := svc.PostInbound(ctx, InboundInput{TankID: 1, Liters: 100, UnitCost: 1.20, Note: "Coleta #1", RefModule: "collections", RefID: 1})
	require.NoError(t, err)
	require.InDelta(t, 100.0, entry.BalanceQty, 0.0001)
	require.InDelta(t, 1.20, entry.BalanceCost, 0.0001)

	entry, err = svc.PostInbound(ctx, InboundInput{TankID: 1, Liters: 50, UnitCost: 1.50, Note: "Coleta #2", RefModule: "collections", RefID: 2})
	require.NoError(t, err)
	require.InDelta(t, 150.0, entry.BalanceQty, 0.0001)
	require.InDelta(t, 1.30, entry.BalanceCost, 0.0001)

	entry, err = svc.PostOutbound(ctx, OutboundInput{TankID: 1, Liters: 80, Note: "Venda recicladora"})
	require.NoError(t, err)
	require.InDelta(t, 70.0, entry.BalanceQty, 0.0001)
	require.InDelta(t, 1.30, entry.UnitCost, 0.0001)
	require.InDelta(t, 1.30, entry.BalanceCost, 0.0001)
}

func TestTransferBetweenTanks(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{TankID: 1, Liters: 200, UnitCost: 1.10, Note: "Coleta"})
	require.NoError(t, err)

	out, in, err := svc.PostTransfer(ctx, TransferInput{SrcTank: 1, DstTank: 2, Liters: 50, Note: "Decantação"})
	require.NoError(t, err)
	require.InDelta(t, 150, out.BalanceQty, 0.0001)
	require.InDelta(t, 50, in.BalanceQty, 0.0001)
	require.InDelta(t, 1.10, in.BalanceCost, 0.0001)

	_, _, err = svc.PostTransfer(ctx, TransferInput{SrcTank: 1, DstTank: 2, Liters: 500, Note: "Too much"})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestNegativeStockGuard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.PostAdjustment(ctx, AdjustmentInput{TankID: 1, Liters: -10, Note: "medição"})
	require.ErrorIs(t, err, ErrNegativeStock)

	_, err = svc.PostOutbound(ctx, OutboundInput{TankID: 1, Liters: 5, Note: "venda"})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestAllowNegativeStockConfig(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceConfig{AllowNegativeStock: true})

	entry, err := svc.PostAdjustment(context.Background(), AdjustmentInput{TankID: 1, Liters: -10, Note: "medição"})
	require.NoError(t, err)
	require.InDelta(t, -10, entry.BalanceQty, 0.0001)
}

func TestInvalidMovementInputs(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceConfig{})
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{TankID: 1, Liters: 0, UnitCost: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.PostInbound(ctx, InboundInput{TankID: 1, Liters: 10, UnitCost: -1})
	require.ErrorIs(t, err, ErrInvalidUnitCost)

	_, _, err = svc.PostTransfer(ctx, TransferInput{SrcTank: 1, DstTank: 1, Liters: 5})
	require.Error(t, err)
}

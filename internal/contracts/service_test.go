package contracts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/shared"
)

type memoryContractRepo struct {
	byID     map[int64]*Contract
	byNumber map[string]int64
	nextID   int64
}

func newMemoryContractRepo() *memoryContractRepo {
	return &memoryContractRepo{byID: make(map[int64]*Contract), byNumber: make(map[string]int64)}
}

func (r *memoryContractRepo) Get(ctx context.Context, id int64) (*Contract, error) {
	contract, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *contract
	copied.Plan = append([]schedule.Installment(nil), contract.Plan...)
	return &copied, nil
}

func (r *memoryContractRepo) GetByNumber(ctx context.Context, number string) (*Contract, error) {
	id, ok := r.byNumber[number]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *memoryContractRepo) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	var result []Contract
	for _, c := range r.byID {
		result = append(result, *c)
	}
	return result, len(result), nil
}

func (r *memoryContractRepo) Create(ctx context.Context, contract Contract) (int64, error) {
	r.nextID++
	contract.ID = r.nextID
	r.byID[contract.ID] = &contract
	r.byNumber[contract.Number] = contract.ID
	return contract.ID, nil
}

func (r *memoryContractRepo) SaveTerms(ctx context.Context, contract *Contract) error {
	stored, ok := r.byID[contract.ID]
	if !ok {
		return shared.ErrNotFound
	}
	*stored = *contract
	stored.Plan = append([]schedule.Installment(nil), contract.Plan...)
	return nil
}

func (r *memoryContractRepo) SetStatus(ctx context.Context, id int64, status Status) error {
	contract, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	contract.Status = status
	return nil
}

func (r *memoryContractRepo) SetDocumentKey(ctx context.Context, id int64, key string) error {
	contract, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	contract.DocumentKey = &key
	return nil
}

func (r *memoryContractRepo) GenerateNumber(ctx context.Context, year int) (string, error) {
	return fmt.Sprintf("CT-%d-%04d", year, r.nextID+1), nil
}

type fakeReceivables struct {
	opened []int64
}

func (f *fakeReceivables) OpenContractReceivable(ctx context.Context, contract *Contract) (int64, error) {
	f.opened = append(f.opened, contract.ID)
	return int64(len(f.opened)), nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*Service, *memoryContractRepo, *fakeReceivables) {
	repo := newMemoryContractRepo()
	receivables := &fakeReceivables{}
	return NewService(repo, receivables), repo, receivables
}

func createDraft(t *testing.T, service *Service) *Contract {
	t.Helper()
	contract, err := service.Create(context.Background(), CreateContractRequest{
		ClientID:      1,
		MonthlyLiters: 400,
		PricePerLiter: dec("2.10"),
		TotalValue:    dec("300.00"),
		Installments:  3,
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		StartDate:     time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}, 9)
	require.NoError(t, err)
	return contract
}

func TestCreateContractBuildsPlan(t *testing.T) {
	service, _, _ := newTestService()
	contract := createDraft(t, service)

	require.Equal(t, StatusDraft, contract.Status)
	require.Len(t, contract.Plan, 3)
	for _, inst := range contract.Plan {
		require.True(t, inst.Amount.Equal(dec("100.00")))
	}
	require.Equal(t, "CT-2024-0001", contract.Number)
}

func TestUpdateTermsRebuildsPreservingEdits(t *testing.T) {
	service, _, _ := newTestService()
	contract := createDraft(t, service)
	ctx := context.Background()

	amount := dec("150.00")
	resp, err := service.OverrideInstallment(ctx, contract.ID, OverrideInstallmentRequest{Sequence: 2, Amount: &amount})
	require.NoError(t, err)
	require.NotNil(t, resp.BalanceMismatch, "manual edit breaks the sum and the mismatch is reported")

	total := dec("400.00")
	resp, err = service.UpdateTerms(ctx, contract.ID, UpdateTermsRequest{TotalValue: &total})
	require.NoError(t, err)

	require.True(t, resp.Plan[1].Amount.Equal(dec("150.00")), "edited installment survives the rebuild")
	require.Equal(t, schedule.OriginUserEdited, resp.Plan[1].Origin)
	require.Nil(t, resp.BalanceMismatch, "generated rows absorb the new total")
}

func TestReconcileDownPaymentFullSettlement(t *testing.T) {
	service, _, _ := newTestService()
	contract := createDraft(t, service)

	resp, err := service.ReconcileDownPayment(context.Background(), contract.ID, dec("300.00"))
	require.NoError(t, err)
	require.Equal(t, 0, resp.Contract.Installments)
	require.Empty(t, resp.Plan)
}

func TestReconcileDownPaymentSuggestsOneInstallment(t *testing.T) {
	service, _, _ := newTestService()
	contract := createDraft(t, service)
	ctx := context.Background()

	// Settle in full first, then lower the down payment again.
	_, err := service.ReconcileDownPayment(ctx, contract.ID, dec("300.00"))
	require.NoError(t, err)

	resp, err := service.ReconcileDownPayment(ctx, contract.ID, dec("100.00"))
	require.NoError(t, err)
	require.Equal(t, 1, resp.Contract.Installments, "zero only bumps to one, the old count is not restored")
	require.Len(t, resp.Plan, 1)
	require.True(t, resp.Plan[0].Amount.Equal(dec("200.00")))
}

func TestActivateOpensReceivable(t *testing.T) {
	service, repo, receivables := newTestService()
	contract := createDraft(t, service)

	activated, err := service.Activate(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, activated.Status)
	require.Equal(t, []int64{contract.ID}, receivables.opened)

	stored, err := repo.Get(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, stored.Status)
}

func TestActivateRejectsMismatchedPlan(t *testing.T) {
	service, _, receivables := newTestService()
	contract := createDraft(t, service)
	ctx := context.Background()

	amount := dec("10.00")
	_, err := service.OverrideInstallment(ctx, contract.ID, OverrideInstallmentRequest{Sequence: 1, Amount: &amount})
	require.NoError(t, err)

	_, err = service.Activate(ctx, contract.ID)
	var mismatch *schedule.BalanceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Empty(t, receivables.opened)
}

func TestTransitionPolicy(t *testing.T) {
	service, _, _ := newTestService()
	contract := createDraft(t, service)
	ctx := context.Background()

	// A draft cannot be closed directly.
	_, err := service.Transition(ctx, contract.ID, StatusClosed)
	require.ErrorIs(t, err, shared.ErrInvalidStatusTransition)

	_, err = service.Activate(ctx, contract.ID)
	require.NoError(t, err)

	// Terms freeze after activation.
	total := dec("999.00")
	_, err = service.UpdateTerms(ctx, contract.ID, UpdateTermsRequest{TotalValue: &total})
	require.ErrorIs(t, err, shared.ErrInvalidStatusTransition)

	closed, err := service.Transition(ctx, contract.ID, StatusClosed)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
}

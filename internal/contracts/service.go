package contracts

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/shared"
)

// Repository persists contracts together with their installment plans.
type Repository interface {
	Get(ctx context.Context, id int64) (*Contract, error)
	GetByNumber(ctx context.Context, number string) (*Contract, error)
	List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error)
	Create(ctx context.Context, contract Contract) (int64, error)
	SaveTerms(ctx context.Context, contract *Contract) error
	SetStatus(ctx context.Context, id int64, status Status) error
	SetDocumentKey(ctx context.Context, id int64, key string) error
	GenerateNumber(ctx context.Context, year int) (string, error)
}

// ReceivablePort opens the financial document for an activated contract.
// Implemented by the finance module; kept as a port so contract logic tests
// run without it.
type ReceivablePort interface {
	OpenContractReceivable(ctx context.Context, contract *Contract) (int64, error)
}

type Service struct {
	repo        Repository
	receivables ReceivablePort
}

func NewService(repo Repository, receivables ReceivablePort) *Service {
	return &Service{repo: repo, receivables: receivables}
}

func (s *Service) Create(ctx context.Context, req CreateContractRequest, createdBy int64) (*Contract, error) {
	number := req.Number
	if number == "" {
		generated, err := s.repo.GenerateNumber(ctx, req.IssueDate.Year())
		if err != nil {
			return nil, fmt.Errorf("generate contract number: %w", err)
		}
		number = generated
	}

	existing, err := s.repo.GetByNumber(ctx, number)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing contract: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: contract number %s", shared.ErrAlreadyExists, number)
	}

	contract := Contract{
		Number:        number,
		ClientID:      req.ClientID,
		Status:        StatusDraft,
		MonthlyLiters: req.MonthlyLiters,
		PricePerLiter: req.PricePerLiter,
		TotalValue:    req.TotalValue,
		DownPayment:   req.DownPayment,
		Installments:  req.Installments,
		IssueDate:     req.IssueDate,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Notes:         req.Notes,
		CreatedBy:     createdBy,
	}

	plan, err := schedule.Split(contract.AmortizationInput())
	if err != nil {
		return nil, err
	}
	contract.Plan = plan

	id, err := s.repo.Create(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	contract.ID = id
	return &contract, nil
}

// UpdateTerms changes the financing terms of a draft and rebuilds the plan,
// keeping rows the user edited as long as their sequence survives.
func (s *Service) UpdateTerms(ctx context.Context, id int64, req UpdateTermsRequest) (*PlanResponse, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != StatusDraft {
		return nil, fmt.Errorf("%w: terms are frozen once the contract is %s",
			shared.ErrInvalidStatusTransition, contract.Status)
	}

	if req.TotalValue != nil {
		contract.TotalValue = *req.TotalValue
	}
	if req.DownPayment != nil {
		contract.DownPayment = *req.DownPayment
	}
	if req.Installments != nil {
		contract.Installments = *req.Installments
	}
	if req.IssueDate != nil {
		contract.IssueDate = *req.IssueDate
	}

	plan, err := schedule.Rebuild(contract.AmortizationInput(), contract.Plan)
	if err != nil {
		return nil, err
	}
	contract.Plan = plan

	if err := s.repo.SaveTerms(ctx, contract); err != nil {
		return nil, fmt.Errorf("save contract terms: %w", err)
	}
	return s.planResponse(contract), nil
}

// OverrideInstallment applies a manual edit to one plan row. A resulting
// balance mismatch is reported in the response, never corrected away.
func (s *Service) OverrideInstallment(ctx context.Context, id int64, req OverrideInstallmentRequest) (*PlanResponse, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != StatusDraft {
		return nil, fmt.Errorf("%w: plan is frozen once the contract is %s",
			shared.ErrInvalidStatusTransition, contract.Status)
	}

	found := false
	for i := range contract.Plan {
		if contract.Plan[i].Sequence != req.Sequence {
			continue
		}
		if req.Amount != nil {
			if req.Amount.IsNegative() {
				return nil, fmt.Errorf("%w: installment amount must not be negative", schedule.ErrValidation)
			}
			contract.Plan[i].Amount = *req.Amount
		}
		if req.DueDate != nil {
			contract.Plan[i].DueDate = *req.DueDate
		}
		contract.Plan[i].Origin = schedule.OriginUserEdited
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%w: installment %d", shared.ErrNotFound, req.Sequence)
	}

	if err := s.repo.SaveTerms(ctx, contract); err != nil {
		return nil, fmt.Errorf("save contract plan: %w", err)
	}
	return s.planResponse(contract), nil
}

// ReconcileDownPayment runs the blur rule for the down-payment field and
// rebuilds the plan under the adjusted installment count.
func (s *Service) ReconcileDownPayment(ctx context.Context, id int64, downPayment decimal.Decimal) (*PlanResponse, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != StatusDraft {
		return nil, fmt.Errorf("%w: terms are frozen once the contract is %s",
			shared.ErrInvalidStatusTransition, contract.Status)
	}

	contract.DownPayment = downPayment
	contract.Installments = schedule.ReconcileCount(contract.TotalValue, downPayment, contract.Installments)

	plan, err := schedule.Rebuild(contract.AmortizationInput(), contract.Plan)
	if err != nil {
		return nil, err
	}
	contract.Plan = plan

	if err := s.repo.SaveTerms(ctx, contract); err != nil {
		return nil, fmt.Errorf("save contract terms: %w", err)
	}
	return s.planResponse(contract), nil
}

// Activate freezes the terms and opens the receivable for the financed value.
// Activation requires the plan to close: a mismatched plan stays a draft.
func (s *Service) Activate(ctx context.Context, id int64) (*Contract, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(contract.Status, StatusActive); err != nil {
		return nil, err
	}
	if err := schedule.CheckBalance(contract.AmortizationInput(), contract.Plan); err != nil {
		return nil, err
	}

	if s.receivables != nil && contract.TotalValue.IsPositive() {
		if _, err := s.receivables.OpenContractReceivable(ctx, contract); err != nil {
			return nil, fmt.Errorf("open contract receivable: %w", err)
		}
	}

	if err := s.repo.SetStatus(ctx, id, StatusActive); err != nil {
		return nil, fmt.Errorf("activate contract: %w", err)
	}
	contract.Status = StatusActive
	return contract, nil
}

func (s *Service) Transition(ctx context.Context, id int64, target Status) (*Contract, error) {
	if target == StatusActive {
		return s.Activate(ctx, id)
	}
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(contract.Status, target); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("set contract status: %w", err)
	}
	contract.Status = target
	return contract, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Contract, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	return s.repo.List(ctx, req)
}

// AttachDocument records the storage key of the signed contract PDF.
func (s *Service) AttachDocument(ctx context.Context, id int64, key string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SetDocumentKey(ctx, id, key)
}

func (s *Service) planResponse(contract *Contract) *PlanResponse {
	resp := &PlanResponse{Contract: contract, Plan: contract.Plan}
	if err := schedule.CheckBalance(contract.AmortizationInput(), contract.Plan); err != nil {
		var mismatch *schedule.BalanceMismatchError
		if errors.As(err, &mismatch) {
			msg := mismatch.Error()
			resp.BalanceMismatch = &msg
		}
	}
	return resp
}

package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/shared"
)

// ErrPaymentExceedsBalance rejects payments above the outstanding amount.
var ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")

// RepositoryPort defines data access for the ledger.
type RepositoryPort interface {
	CreateDocument(ctx context.Context, doc Document, installments []Installment) (int64, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	GetDocumentWithDetails(ctx context.Context, id int64) (*DocumentWithDetails, error)
	ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
	SetDocumentStatus(ctx context.Context, id int64, status DocumentStatus) error
	GetInstallment(ctx context.Context, id int64) (*Installment, error)
	ListInstallments(ctx context.Context, documentID int64) ([]Installment, error)
	RecordPayment(ctx context.Context, payment Payment, installment *Installment) (int64, error)
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Installment, error)
	MarkOverdue(ctx context.Context, installmentIDs []int64) error
	AgingBuckets(ctx context.Context, kind DocumentKind, asOf time.Time) (*AgingBucket, error)
	GenerateNumber(ctx context.Context, kind DocumentKind, year int) (string, error)
}

// Service handles ledger business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateDocument opens a ledger document with its installment plan. The sum
// invariant is enforced here regardless of who produced the plan.
func (s *Service) CreateDocument(ctx context.Context, input CreateDocumentInput) (*DocumentWithDetails, error) {
	if input.Kind != KindReceivable && input.Kind != KindPayable {
		return nil, fmt.Errorf("%w: unknown document kind %q", schedule.ErrValidation, input.Kind)
	}

	amort := schedule.Input{
		Total:       input.TotalValue,
		DownPayment: input.DownPayment,
		Count:       input.Installments,
		IssueDate:   input.IssueDate,
	}

	plan := input.Plan
	if len(plan) == 0 {
		generated, err := schedule.Split(amort)
		if err != nil {
			return nil, err
		}
		plan = generated
	} else {
		amort.Count = len(plan)
		if err := schedule.CheckBalance(amort, plan); err != nil {
			return nil, err
		}
	}

	number := input.Number
	if number == "" {
		generated, err := s.repo.GenerateNumber(ctx, input.Kind, input.IssueDate.Year())
		if err != nil {
			return nil, fmt.Errorf("generate document number: %w", err)
		}
		number = generated
	}

	doc := Document{
		Number:      number,
		Kind:        input.Kind,
		ClientID:    input.ClientID,
		ContractID:  input.ContractID,
		Description: input.Description,
		TotalValue:  input.TotalValue,
		DownPayment: input.DownPayment,
		Status:      DocStatusOpen,
		IssueDate:   input.IssueDate,
		CreatedBy:   input.CreatedBy,
	}

	installments := make([]Installment, len(plan))
	for i, inst := range plan {
		installments[i] = Installment{
			Sequence:   inst.Sequence,
			DueDate:    inst.DueDate,
			Amount:     inst.Amount,
			PaidAmount: decimal.Zero,
			Status:     InstStatusPending,
			Origin:     inst.Origin,
		}
	}

	// A document settled entirely by its down payment opens already paid.
	if len(installments) == 0 {
		doc.Status = DocStatusPaid
	}

	id, err := s.repo.CreateDocument(ctx, doc, installments)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return s.repo.GetDocumentWithDetails(ctx, id)
}

// RegisterPayment records a payment against an installment and rolls the
// installment and document statuses forward.
func (s *Service) RegisterPayment(ctx context.Context, req RegisterPaymentRequest, createdBy int64) (*Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", schedule.ErrValidation)
	}

	installment, err := s.repo.GetInstallment(ctx, req.InstallmentID)
	if err != nil {
		return nil, err
	}
	if installment.Status == InstStatusPaid {
		return nil, fmt.Errorf("%w: installment %d already settled", shared.ErrInvalidStatusTransition, installment.Sequence)
	}
	if req.Amount.Sub(installment.Outstanding()).GreaterThan(schedule.Tolerance) {
		return nil, fmt.Errorf("%w: outstanding is %s", ErrPaymentExceedsBalance, installment.Outstanding().StringFixed(2))
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := Payment{
		InstallmentID: req.InstallmentID,
		Amount:        req.Amount,
		PaidAt:        paidAt,
		Method:        req.Method,
		Note:          req.Note,
		CreatedBy:     createdBy,
	}

	installment.PaidAmount = installment.PaidAmount.Add(req.Amount)
	if installment.Settled() {
		installment.Status = InstStatusPaid
	} else {
		installment.Status = InstStatusPartial
	}

	id, err := s.repo.RecordPayment(ctx, payment, installment)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	payment.ID = id

	if err := s.rollDocumentStatus(ctx, installment.DocumentID); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *Service) rollDocumentStatus(ctx context.Context, documentID int64) error {
	installments, err := s.repo.ListInstallments(ctx, documentID)
	if err != nil {
		return err
	}

	allPaid := true
	anyPaid := false
	for _, inst := range installments {
		if inst.Settled() {
			anyPaid = true
		} else {
			allPaid = false
			if inst.PaidAmount.IsPositive() {
				anyPaid = true
			}
		}
	}

	status := DocStatusOpen
	switch {
	case allPaid:
		status = DocStatusPaid
	case anyPaid:
		status = DocStatusPartial
	}
	return s.repo.SetDocumentStatus(ctx, documentID, status)
}

// GetDocument returns a document with its plan and totals.
func (s *Service) GetDocument(ctx context.Context, id int64) (*DocumentWithDetails, error) {
	return s.repo.GetDocumentWithDetails(ctx, id)
}

// ListDocuments returns ledger documents matching the filter.
func (s *Service) ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	return s.repo.ListDocuments(ctx, req)
}

var agingGroup singleflight.Group

// Aging summarises outstanding amounts bucketed by days overdue. Concurrent
// identical requests share one repository scan.
func (s *Service) Aging(ctx context.Context, kind DocumentKind, asOf time.Time) (*AgingBucket, error) {
	key := fmt.Sprintf("%s:%s", kind, asOf.Format("2006-01-02"))
	resultChan := agingGroup.DoChan(key, func() (interface{}, error) {
		return s.repo.AgingBuckets(ctx, kind, asOf)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*AgingBucket), nil
	}
}

// MarkOverdue flags pending installments past their due date. Returns how
// many were flagged; invoked by the scheduled scan.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(candidates))
	for i, inst := range candidates {
		ids[i] = inst.ID
	}
	if err := s.repo.MarkOverdue(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

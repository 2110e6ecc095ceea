package finance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoleo/recoleo/internal/finance/schedule"
	"github.com/recoleo/recoleo/internal/shared"
)

type memoryRepo struct {
	documents    map[int64]Document
	installments map[int64]Installment
	payments     map[int64]Payment
	nextDoc      int64
	nextInst     int64
	nextPayment  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		documents:    make(map[int64]Document),
		installments: make(map[int64]Installment),
		payments:     make(map[int64]Payment),
		nextDoc:      1,
		nextInst:     1,
		nextPayment:  1,
	}
}

func (m *memoryRepo) CreateDocument(_ context.Context, doc Document, installments []Installment) (int64, error) {
	doc.ID = m.nextDoc
	m.nextDoc++
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	m.documents[doc.ID] = doc
	for _, inst := range installments {
		inst.ID = m.nextInst
		m.nextInst++
		inst.DocumentID = doc.ID
		m.installments[inst.ID] = inst
	}
	return doc.ID, nil
}

func (m *memoryRepo) GetDocument(_ context.Context, id int64) (*Document, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &doc, nil
}

func (m *memoryRepo) GetDocumentWithDetails(ctx context.Context, id int64) (*DocumentWithDetails, error) {
	doc, err := m.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	installments, _ := m.ListInstallments(ctx, id)
	paid := decimal.Zero
	balance := decimal.Zero
	for _, inst := range installments {
		paid = paid.Add(inst.PaidAmount)
		balance = balance.Add(inst.Outstanding())
	}
	return &DocumentWithDetails{Document: *doc, Installments: installments, PaidTotal: paid, Balance: balance}, nil
}

func (m *memoryRepo) ListDocuments(_ context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	var result []Document
	for _, doc := range m.documents {
		if req.Kind != nil && doc.Kind != *req.Kind {
			continue
		}
		if req.Status != nil && doc.Status != *req.Status {
			continue
		}
		result = append(result, doc)
	}
	return result, len(result), nil
}

func (m *memoryRepo) SetDocumentStatus(_ context.Context, id int64, status DocumentStatus) error {
	doc, ok := m.documents[id]
	if !ok {
		return shared.ErrNotFound
	}
	doc.Status = status
	m.documents[id] = doc
	return nil
}

func (m *memoryRepo) GetInstallment(_ context.Context, id int64) (*Installment, error) {
	inst, ok := m.installments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &inst, nil
}

func (m *memoryRepo) ListInstallments(_ context.Context, documentID int64) ([]Installment, error) {
	var result []Installment
	for i := int64(1); i < m.nextInst; i++ {
		if inst, ok := m.installments[i]; ok && inst.DocumentID == documentID {
			result = append(result, inst)
		}
	}
	return result, nil
}

func (m *memoryRepo) RecordPayment(_ context.Context, payment Payment, installment *Installment) (int64, error) {
	payment.ID = m.nextPayment
	m.nextPayment++
	m.payments[payment.ID] = payment
	m.installments[installment.ID] = *installment
	return payment.ID, nil
}

func (m *memoryRepo) ListOverdueCandidates(_ context.Context, asOf time.Time) ([]Installment, error) {
	var result []Installment
	for _, inst := range m.installments {
		if (inst.Status == InstStatusPending || inst.Status == InstStatusPartial) && inst.DueDate.Before(asOf) {
			result = append(result, inst)
		}
	}
	return result, nil
}

func (m *memoryRepo) MarkOverdue(_ context.Context, installmentIDs []int64) error {
	for _, id := range installmentIDs {
		inst, ok := m.installments[id]
		if !ok {
			return shared.ErrNotFound
		}
		inst.Status = InstStatusOverdue
		m.installments[id] = inst
	}
	return nil
}

func (m *memoryRepo) AgingBuckets(_ context.Context, kind DocumentKind, asOf time.Time) (*AgingBucket, error) {
	bucket := &AgingBucket{
		Current: decimal.Zero, Bucket30: decimal.Zero, Bucket60: decimal.Zero,
		Bucket90: decimal.Zero, Bucket120: decimal.Zero,
	}
	for _, inst := range m.installments {
		doc := m.documents[inst.DocumentID]
		if doc.Kind != kind || doc.Status == DocStatusPaid || doc.Status == DocStatusCancelled || inst.Status == InstStatusPaid {
			continue
		}
		days := int(asOf.Sub(inst.DueDate).Hours() / 24)
		outstanding := inst.Outstanding()
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(outstanding)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(outstanding)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(outstanding)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(outstanding)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(outstanding)
		}
	}
	return bucket, nil
}

func (m *memoryRepo) GenerateNumber(_ context.Context, kind DocumentKind, year int) (string, error) {
	prefix := "REC"
	if kind == KindPayable {
		prefix = "PAY"
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, m.nextDoc), nil
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestCreateDocumentGeneratesPlan(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	doc, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:         KindReceivable,
		Description:  "coleta mensal",
		TotalValue:   mustDec(t, "1000.00"),
		DownPayment:  mustDec(t, "100.00"),
		Installments: 3,
		IssueDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:    1,
	})
	require.NoError(t, err)

	require.Len(t, doc.Installments, 3)
	assert.Equal(t, DocStatusOpen, doc.Document.Status)
	assert.Equal(t, "REC-2024-00001", doc.Document.Number)

	sum := decimal.Zero
	for _, inst := range doc.Installments {
		sum = sum.Add(inst.Amount)
		assert.Equal(t, InstStatusPending, inst.Status)
	}
	assert.True(t, sum.Equal(mustDec(t, "900.00")), "installments must sum to financed amount, got %s", sum)
	assert.True(t, doc.Balance.Equal(mustDec(t, "900.00")))
}

func TestCreateDocumentFullySettledByDownPayment(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	doc, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:         KindReceivable,
		Description:  "venda a vista",
		TotalValue:   mustDec(t, "500.00"),
		DownPayment:  mustDec(t, "500.00"),
		Installments: 0,
		IssueDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:    1,
	})
	require.NoError(t, err)
	assert.Empty(t, doc.Installments)
	assert.Equal(t, DocStatusPaid, doc.Document.Status)
}

func TestCreateDocumentRejectsOutOfBalancePlan(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	issue := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:        KindReceivable,
		Description: "plano manual",
		TotalValue:  mustDec(t, "300.00"),
		IssueDate:   issue,
		Plan: []schedule.Installment{
			{Sequence: 1, DueDate: issue.AddDate(0, 1, 0), Amount: mustDec(t, "100.00"), Origin: schedule.OriginUserEdited},
			{Sequence: 2, DueDate: issue.AddDate(0, 2, 0), Amount: mustDec(t, "100.00"), Origin: schedule.OriginUserEdited},
		},
		CreatedBy: 1,
	})

	var mismatch *schedule.BalanceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Difference().Equal(mustDec(t, "100.00")))
}

func TestCreateDocumentRejectsUnknownKind(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:        DocumentKind("LOAN"),
		TotalValue:  mustDec(t, "100.00"),
		IssueDate:   time.Now(),
		Description: "x",
	})
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func createTestDocument(t *testing.T, svc *Service, total string, count int) *DocumentWithDetails {
	t.Helper()
	doc, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:         KindReceivable,
		Description:  "contrato de coleta",
		TotalValue:   mustDec(t, total),
		Installments: count,
		IssueDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:    1,
	})
	require.NoError(t, err)
	return doc
}

func TestRegisterPaymentPartialThenFull(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "300.00", 2)
	first := doc.Installments[0]

	payment, err := svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: first.ID,
		Amount:        mustDec(t, "50.00"),
		Method:        "PIX",
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), payment.CreatedBy)
	assert.False(t, payment.PaidAt.IsZero())

	inst, err := repo.GetInstallment(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, InstStatusPartial, inst.Status)

	after, err := svc.GetDocument(context.Background(), doc.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, DocStatusPartial, after.Document.Status)

	_, err = svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: first.ID,
		Amount:        mustDec(t, "100.00"),
		Method:        "CASH",
	}, 7)
	require.NoError(t, err)

	inst, err = repo.GetInstallment(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, InstStatusPaid, inst.Status)
}

func TestRegisterPaymentSettlesDocument(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "200.00", 2)

	for _, inst := range doc.Installments {
		_, err := svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
			InstallmentID: inst.ID,
			Amount:        inst.Amount,
			Method:        "TRANSFER",
		}, 1)
		require.NoError(t, err)
	}

	after, err := svc.GetDocument(context.Background(), doc.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, DocStatusPaid, after.Document.Status)
	assert.True(t, after.Balance.IsZero())
}

func TestOneCentInstallmentIsNotBornSettled(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	issue := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	doc, err := svc.CreateDocument(context.Background(), CreateDocumentInput{
		Kind:        KindReceivable,
		Description: "saldo residual",
		TotalValue:  mustDec(t, "100.01"),
		IssueDate:   issue,
		Plan: []schedule.Installment{
			{Sequence: 1, DueDate: issue.AddDate(0, 1, 0), Amount: mustDec(t, "100.00"), Origin: schedule.OriginUserEdited},
			{Sequence: 2, DueDate: issue.AddDate(0, 2, 0), Amount: mustDec(t, "0.01"), Origin: schedule.OriginUserEdited},
		},
		CreatedBy: 1,
	})
	require.NoError(t, err)

	_, err = svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: doc.Installments[0].ID,
		Amount:        mustDec(t, "100.00"),
		Method:        "PIX",
	}, 1)
	require.NoError(t, err)

	after, err := svc.GetDocument(context.Background(), doc.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, DocStatusPartial, after.Document.Status,
		"an unpaid one-cent installment must keep the document open")

	residual, err := repo.GetInstallment(context.Background(), doc.Installments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, InstStatusPending, residual.Status)

	_, err = svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: residual.ID,
		Amount:        mustDec(t, "0.01"),
		Method:        "CASH",
	}, 1)
	require.NoError(t, err)

	after, err = svc.GetDocument(context.Background(), doc.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, DocStatusPaid, after.Document.Status)
}

func TestRegisterPaymentRejectsOverpayment(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "100.00", 1)

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: doc.Installments[0].ID,
		Amount:        mustDec(t, "150.00"),
		Method:        "PIX",
	}, 1)
	assert.ErrorIs(t, err, ErrPaymentExceedsBalance)
}

func TestRegisterPaymentRejectsSettledInstallment(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "100.00", 1)
	inst := doc.Installments[0]

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: inst.ID,
		Amount:        inst.Amount,
		Method:        "PIX",
	}, 1)
	require.NoError(t, err)

	_, err = svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: inst.ID,
		Amount:        mustDec(t, "1.00"),
		Method:        "PIX",
	}, 1)
	assert.True(t, errors.Is(err, shared.ErrInvalidStatusTransition))
}

func TestRegisterPaymentRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "100.00", 1)

	_, err := svc.RegisterPayment(context.Background(), RegisterPaymentRequest{
		InstallmentID: doc.Installments[0].ID,
		Amount:        decimal.Zero,
		Method:        "PIX",
	}, 1)
	assert.ErrorIs(t, err, schedule.ErrValidation)
}

func TestMarkOverdueFlagsPastDueInstallments(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	doc := createTestDocument(t, svc, "300.00", 3)

	// Past the second due date: installments 1 and 2 are late.
	asOf := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	flagged, err := svc.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, flagged)

	installments, err := repo.ListInstallments(context.Background(), doc.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, InstStatusOverdue, installments[0].Status)
	assert.Equal(t, InstStatusOverdue, installments[1].Status)
	assert.Equal(t, InstStatusPending, installments[2].Status)

	// The scan is idempotent: OVERDUE rows are no longer candidates.
	flagged, err = svc.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}

func TestAgingBucketsSplitByDaysLate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	createTestDocument(t, svc, "300.00", 3) // due 2024-02-15, 03-15, 04-15

	asOf := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	bucket, err := svc.Aging(context.Background(), KindReceivable, asOf)
	require.NoError(t, err)

	assert.True(t, bucket.Current.Equal(mustDec(t, "100.00")), "current got %s", bucket.Current)
	assert.True(t, bucket.Bucket30.Equal(mustDec(t, "100.00")), "1-30 got %s", bucket.Bucket30)
	assert.True(t, bucket.Bucket60.Equal(mustDec(t, "100.00")), "31-60 got %s", bucket.Bucket60)
	assert.True(t, bucket.Bucket90.IsZero())
}

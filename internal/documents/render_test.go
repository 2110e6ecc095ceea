package documents

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoleo/recoleo/internal/shared"
	"github.com/recoleo/recoleo/report"
)

// Smallest valid PNG header followed by filler bytes.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

type memoryRepo struct {
	records map[uuid.UUID]Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[uuid.UUID]Record)}
}

func (m *memoryRepo) Create(_ context.Context, record Record) error {
	m.records[record.Key] = record
	return nil
}

func (m *memoryRepo) Get(_ context.Context, key uuid.UUID) (*Record, error) {
	record, ok := m.records[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &record, nil
}

func (m *memoryRepo) MarkReady(_ context.Context, key uuid.UUID, storageKey string, renderedAt time.Time) error {
	record, ok := m.records[key]
	if !ok {
		return shared.ErrNotFound
	}
	record.Status = StatusReady
	record.StorageKey = &storageKey
	record.RenderedAt = &renderedAt
	m.records[key] = record
	return nil
}

func (m *memoryRepo) MarkFailed(_ context.Context, key uuid.UUID, reason string) error {
	record, ok := m.records[key]
	if !ok {
		return shared.ErrNotFound
	}
	record.Status = StatusFailed
	record.Error = &reason
	m.records[key] = record
	return nil
}

type fakeStore struct {
	uploads map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, fileName, _ string, data []byte) (string, error) {
	key := "documents/" + fileName
	f.uploads[key] = data
	return key, nil
}

func (f *fakeStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := f.uploads[key]; !ok {
		return "", fmt.Errorf("no such object %q", key)
	}
	return "https://storage.local/" + key + "?sig=abc", nil
}

type fakeSource struct {
	contract *ContractData
	receipt  *ReceiptData
	cert     *CertificateData
	err      error
}

func (f *fakeSource) ContractData(_ context.Context, _ int64) (*ContractData, error) {
	return f.contract, f.err
}

func (f *fakeSource) ReceiptData(_ context.Context, _ int64) (*ReceiptData, error) {
	return f.receipt, f.err
}

func (f *fakeSource) CertificateData(_ context.Context, _ int64) (*CertificateData, error) {
	return f.cert, f.err
}

type fakeAttach struct {
	calls []string
}

func (f *fakeAttach) AttachDocument(_ context.Context, kind Kind, refID int64, storageKey string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d:%s", kind, refID, storageKey))
	return nil
}

type fakeEnqueuer struct {
	keys []uuid.UUID
}

func (f *fakeEnqueuer) EnqueueDocumentRender(_ context.Context, key uuid.UUID) error {
	f.keys = append(f.keys, key)
	return nil
}

// gotenbergStub captures the HTML handed to the converter and replies with a
// fixed PDF body.
func gotenbergStub(t *testing.T, captured *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		*captured = string(body)
		w.Write([]byte("%PDF-1.4 stub"))
	}))
}

func newTestService(t *testing.T, source DataSource, captured *string) (*Service, *memoryRepo, *fakeStore, *fakeAttach, *fakeEnqueuer) {
	t.Helper()
	server := gotenbergStub(t, captured)
	t.Cleanup(server.Close)

	repo := newMemoryRepo()
	store := newFakeStore()
	attach := &fakeAttach{}
	enqueuer := &fakeEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, report.NewClient(server.URL), store, source, attach, enqueuer)
	return svc, repo, store, attach, enqueuer
}

func TestRequestEnqueuesPendingRecord(t *testing.T) {
	var captured string
	svc, repo, _, _, enqueuer := newTestService(t, &fakeSource{}, &captured)

	key, err := svc.Request(context.Background(), KindReceipt, 42, pngDataURL(), 7)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, key)

	record, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, int64(42), record.RefID)
	require.NotNil(t, record.Signature)
	assert.Equal(t, []uuid.UUID{key}, enqueuer.keys)
}

func TestRequestRejectsBadSignature(t *testing.T) {
	var captured string
	svc, _, _, _, _ := newTestService(t, &fakeSource{}, &captured)

	cases := []string{
		"not a data url",
		"data:image/jpeg;base64,AAAA",
		"data:image/png;base64,",
		"data:image/png;base64,!!!!",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("JFIF not png")),
	}
	for _, input := range cases {
		_, err := svc.Request(context.Background(), KindReceipt, 1, input, 1)
		assert.ErrorIs(t, err, ErrInvalidSignature, "input %q", input)
	}
}

func TestRenderContractProducesReadyDocument(t *testing.T) {
	source := &fakeSource{contract: &ContractData{
		Number:      "CT-2024-0001",
		ClientName:  "Restaurante Bom Sabor",
		ClientTaxID: "12.345.678/0001-90",
		IssueDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalValue:  decimal.RequireFromString("1234.56"),
		DownPayment: decimal.RequireFromString("234.56"),
		Installments: []InstallmentRow{
			{Sequence: 1, DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("500.00")},
			{Sequence: 2, DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("500.00")},
		},
	}}

	var captured string
	svc, repo, store, attach, _ := newTestService(t, source, &captured)

	key, err := svc.Request(context.Background(), KindContract, 9, pngDataURL(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Render(context.Background(), key))

	assert.Contains(t, captured, "CT-2024-0001")
	assert.Contains(t, captured, "R$ 1.234,56")
	assert.Contains(t, captured, "mil duzentos e trinta e quatro reais")
	assert.Contains(t, captured, "data:image/png;base64,")

	record, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, record.Status)
	require.NotNil(t, record.StorageKey)
	assert.Equal(t, []byte("%PDF-1.4 stub"), store.uploads[*record.StorageKey])
	require.Len(t, attach.calls, 1)
	assert.True(t, strings.HasPrefix(attach.calls[0], "CONTRACT:9:"))
}

func TestRenderReceiptEmbedsTotals(t *testing.T) {
	source := &fakeSource{receipt: &ReceiptData{
		Code:        "COL-2024-00007",
		ClientName:  "Cozinha Central",
		CollectedAt: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Liters:      120.5,
		UnitPrice:   decimal.RequireFromString("1.20"),
		TotalValue:  decimal.RequireFromString("144.60"),
		Collector:   "João",
	}}

	var captured string
	svc, _, _, _, _ := newTestService(t, source, &captured)

	key, err := svc.Request(context.Background(), KindReceipt, 7, "", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Render(context.Background(), key))

	assert.Contains(t, captured, "COL-2024-00007")
	assert.Contains(t, captured, "120.5 L")
	assert.Contains(t, captured, "R$ 144,60")
	assert.NotContains(t, captured, "data:image/png")
}

func TestRenderFailureMarksRecord(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("contract missing")}

	var captured string
	svc, repo, _, _, _ := newTestService(t, source, &captured)

	key, err := svc.Request(context.Background(), KindContract, 3, "", 1)
	require.NoError(t, err)

	err = svc.Render(context.Background(), key)
	require.Error(t, err)

	record, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, record.Status)
	require.NotNil(t, record.Error)
	assert.Contains(t, *record.Error, "contract missing")
}

func TestDownloadURLRequiresReadyDocument(t *testing.T) {
	var captured string
	svc, _, _, _, _ := newTestService(t, &fakeSource{cert: &CertificateData{
		ClientName:  "Restaurante Bom Sabor",
		ClientTaxID: "12.345.678/0001-90",
		PeriodFrom:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:    time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Liters:      830,
		IssuedAt:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}}, &captured)

	key, err := svc.Request(context.Background(), KindCertificate, 5, "", 1)
	require.NoError(t, err)

	_, err = svc.DownloadURL(context.Background(), key)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.Render(context.Background(), key))

	url, err := svc.DownloadURL(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, url, "https://storage.local/documents/certificate_5_")
}

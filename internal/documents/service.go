package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recoleo/recoleo/internal/shared"
)

// PDFRenderer converts rendered HTML into PDF bytes. Satisfied by the
// Gotenberg client.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// ObjectStore is where rendered PDFs end up. Satisfied by the platform
// storage client.
type ObjectStore interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Enqueuer submits the render task to the background queue.
type Enqueuer interface {
	EnqueueDocumentRender(ctx context.Context, key uuid.UUID) error
}

// DataSource resolves the template payload from the owning module.
type DataSource interface {
	ContractData(ctx context.Context, refID int64) (*ContractData, error)
	ReceiptData(ctx context.Context, refID int64) (*ReceiptData, error)
	CertificateData(ctx context.Context, refID int64) (*CertificateData, error)
}

// AttachPort writes the storage key back on the source record once the PDF
// is ready.
type AttachPort interface {
	AttachDocument(ctx context.Context, kind Kind, refID int64, storageKey string) error
}

// DownloadTTL bounds how long presigned links stay valid.
const DownloadTTL = 48 * time.Hour

type Service struct {
	logger   *slog.Logger
	repo     Repository
	renderer PDFRenderer
	store    ObjectStore
	source   DataSource
	attach   AttachPort
	enqueuer Enqueuer
}

func NewService(logger *slog.Logger, repo Repository, renderer PDFRenderer, store ObjectStore, source DataSource, attach AttachPort, enqueuer Enqueuer) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		renderer: renderer,
		store:    store,
		source:   source,
		attach:   attach,
		enqueuer: enqueuer,
	}
}

// Request records a render request and hands it to the queue. The signature,
// when present, must be a base64 PNG data URL.
func (s *Service) Request(ctx context.Context, kind Kind, refID int64, signature string, createdBy int64) (uuid.UUID, error) {
	switch kind {
	case KindContract, KindReceipt, KindCertificate:
	default:
		return uuid.Nil, fmt.Errorf("documents: unknown kind %q", kind)
	}

	var storedSignature *string
	if signature != "" {
		raw, err := DecodeSignature(signature)
		if err != nil {
			return uuid.Nil, err
		}
		// Re-encode so only validated bytes reach the template.
		encoded := SignatureDataURL(raw)
		storedSignature = &encoded
	}

	record := Record{
		Key:       uuid.New(),
		Kind:      kind,
		RefID:     refID,
		Status:    StatusPending,
		Signature: storedSignature,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return uuid.Nil, fmt.Errorf("create document record: %w", err)
	}
	if err := s.enqueuer.EnqueueDocumentRender(ctx, record.Key); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue render: %w", err)
	}
	return record.Key, nil
}

// Render executes one render request end to end. Called from the worker.
func (s *Service) Render(ctx context.Context, key uuid.UUID) error {
	record, err := s.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	if record.Status == StatusReady {
		return nil
	}

	html, err := s.buildHTML(ctx, record)
	if err != nil {
		return s.fail(ctx, key, err)
	}

	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return s.fail(ctx, key, fmt.Errorf("convert to pdf: %w", err))
	}

	fileName := fmt.Sprintf("%s_%d_%s.pdf", strings.ToLower(string(record.Kind)), record.RefID, key)
	storageKey, err := s.store.Upload(ctx, fileName, "application/pdf", pdf)
	if err != nil {
		return s.fail(ctx, key, fmt.Errorf("upload pdf: %w", err))
	}

	if err := s.repo.MarkReady(ctx, key, storageKey, time.Now().UTC()); err != nil {
		return err
	}

	if s.attach != nil {
		if err := s.attach.AttachDocument(ctx, record.Kind, record.RefID, storageKey); err != nil {
			s.logger.Warn("attach document to source",
				slog.String("key", key.String()), slog.Any("error", err))
		}
	}
	return nil
}

// Get returns the render record for status polling.
func (s *Service) Get(ctx context.Context, key uuid.UUID) (*Record, error) {
	return s.repo.Get(ctx, key)
}

// DownloadURL returns a presigned link for a ready document.
func (s *Service) DownloadURL(ctx context.Context, key uuid.UUID) (string, error) {
	record, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if record.Status != StatusReady || record.StorageKey == nil {
		return "", fmt.Errorf("%w: document not ready", shared.ErrNotFound)
	}
	return s.store.PresignedURL(ctx, *record.StorageKey, DownloadTTL)
}

func (s *Service) buildHTML(ctx context.Context, record *Record) (string, error) {
	signature := ""
	if record.Signature != nil {
		signature = *record.Signature
	}

	switch record.Kind {
	case KindContract:
		data, err := s.source.ContractData(ctx, record.RefID)
		if err != nil {
			return "", fmt.Errorf("load contract data: %w", err)
		}
		data.Signature = signature
		return renderTemplate("contract.html.tmpl", data)
	case KindReceipt:
		data, err := s.source.ReceiptData(ctx, record.RefID)
		if err != nil {
			return "", fmt.Errorf("load receipt data: %w", err)
		}
		data.Signature = signature
		return renderTemplate("receipt.html.tmpl", data)
	case KindCertificate:
		data, err := s.source.CertificateData(ctx, record.RefID)
		if err != nil {
			return "", fmt.Errorf("load certificate data: %w", err)
		}
		return renderTemplate("certificate.html.tmpl", data)
	default:
		return "", fmt.Errorf("documents: unknown kind %q", record.Kind)
	}
}

func (s *Service) fail(ctx context.Context, key uuid.UUID, cause error) error {
	if err := s.repo.MarkFailed(ctx, key, cause.Error()); err != nil {
		s.logger.Error("mark document failed", slog.String("key", key.String()), slog.Any("error", err))
	}
	return cause
}

package reports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/finance"
	"github.com/recoleo/recoleo/internal/shared"
)

// CollectionsSource provides the collections dataset.
type CollectionsSource interface {
	TotalsByClient(ctx context.Context, from, to time.Time) ([]collections.ClientTotal, error)
}

// LedgerSource provides the ledger dataset.
type LedgerSource interface {
	ListDocuments(ctx context.Context, req finance.ListDocumentsRequest) ([]finance.Document, int, error)
}

// ObjectStore is where finished export files end up.
type ObjectStore interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Enqueuer submits the export task to the background queue.
type Enqueuer interface {
	EnqueueReportExport(ctx context.Context, id uuid.UUID) error
}

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	fileURLTTL = 48 * time.Hour
)

type Service struct {
	logger      *slog.Logger
	tracker     *Tracker
	store       ObjectStore
	enqueuer    Enqueuer
	collections CollectionsSource
	ledger      LedgerSource
}

func NewService(logger *slog.Logger, tracker *Tracker, store ObjectStore, enqueuer Enqueuer, collectionsSource CollectionsSource, ledgerSource LedgerSource) *Service {
	return &Service{
		logger:      logger,
		tracker:     tracker,
		store:       store,
		enqueuer:    enqueuer,
		collections: collectionsSource,
		ledger:      ledgerSource,
	}
}

// RequestExport registers a pending export and hands it to the queue.
func (s *Service) RequestExport(ctx context.Context, typ ExportType, format Format, filters Filters, userID int64) (uuid.UUID, error) {
	switch typ {
	case ExportCollectionsByClient, ExportLedgerSummary:
	default:
		return uuid.Nil, fmt.Errorf("reports: unknown export type %q", typ)
	}
	switch format {
	case FormatCSV, FormatXLSX:
	default:
		return uuid.Nil, fmt.Errorf("reports: unknown format %q", format)
	}

	status := ExportStatus{
		ID:      uuid.New(),
		Type:    typ,
		Format:  format,
		UserID:  userID,
		Filters: filters,
		Created: time.Now().UTC(),
	}
	if err := s.tracker.Save(ctx, status); err != nil {
		return uuid.Nil, err
	}
	if err := s.enqueuer.EnqueueReportExport(ctx, status.ID); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue export: %w", err)
	}
	return status.ID, nil
}

// RunExport builds the file, uploads it and publishes the download link.
// Called from the worker.
func (s *Service) RunExport(ctx context.Context, id uuid.UUID) error {
	status, err := s.tracker.Get(ctx, id)
	if err != nil {
		return err
	}
	if status.FileURL != nil {
		return nil
	}

	data, err := s.buildFile(ctx, status)
	if err != nil {
		reason := err.Error()
		status.Error = &reason
		if saveErr := s.tracker.Save(ctx, *status); saveErr != nil {
			s.logger.Error("save export failure", slog.Any("error", saveErr))
		}
		return err
	}

	// Final 5% is reserved for upload and link generation.
	status.Progress = 95
	if err := s.tracker.Save(ctx, *status); err != nil {
		return err
	}

	fileName := fmt.Sprintf("%s_%s.%s", status.Type, time.Now().Format("20060102_150405"), extensionFor(status.Format))
	key, err := s.store.Upload(ctx, fileName, contentTypeFor(status.Format), data)
	if err != nil {
		return fmt.Errorf("upload export: %w", err)
	}
	url, err := s.store.PresignedURL(ctx, key, fileURLTTL)
	if err != nil {
		return fmt.Errorf("presign export: %w", err)
	}

	status.FileURL = &url
	status.Progress = 100
	return s.tracker.Save(ctx, *status)
}

// GetExport returns one export status for polling.
func (s *Service) GetExport(ctx context.Context, id uuid.UUID, userID int64) (*ExportStatus, error) {
	status, err := s.tracker.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Exports are private to their requester.
	if status.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return status, nil
}

// ListExports returns the caller's exports, newest first.
func (s *Service) ListExports(ctx context.Context, userID int64) ([]ExportStatus, error) {
	return s.tracker.ListByUser(ctx, userID)
}

func (s *Service) buildFile(ctx context.Context, status *ExportStatus) ([]byte, error) {
	switch status.Type {
	case ExportCollectionsByClient:
		totals, err := s.collections.TotalsByClient(ctx, status.Filters.From, status.Filters.To)
		if err != nil {
			return nil, fmt.Errorf("load collection totals: %w", err)
		}
		if status.Format == FormatXLSX {
			return BuildClientTotalsXLSX(totals)
		}
		var buf bytes.Buffer
		if err := WriteClientTotalsCSV(&buf, totals); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ExportLedgerSummary:
		req := finance.ListDocumentsRequest{Limit: 1000}
		if status.Filters.Kind != "" {
			kind := finance.DocumentKind(status.Filters.Kind)
			req.Kind = &kind
		}
		documents, _, err := s.ledger.ListDocuments(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("load ledger documents: %w", err)
		}
		if status.Format == FormatXLSX {
			return BuildLedgerSummaryXLSX(documents)
		}
		var buf bytes.Buffer
		if err := WriteLedgerSummaryCSV(&buf, documents); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("reports: unknown export type %q", status.Type)
	}
}

func extensionFor(format Format) string {
	if format == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

func contentTypeFor(format Format) string {
	if format == FormatXLSX {
		return xlsxContentType
	}
	return csvContentType
}

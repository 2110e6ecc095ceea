package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/recoleo/recoleo/internal/documents"
	"github.com/recoleo/recoleo/internal/finance"
	jobmetrics "github.com/recoleo/recoleo/internal/jobs"
	"github.com/recoleo/recoleo/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NewDocumentRenderHandler processes TaskDocumentRender tasks.
func NewDocumentRenderHandler(service *documents.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DocumentRenderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := defaultJobMetrics.Track(TaskDocumentRender)
		if err := tracker.End(service.Render(ctx, payload.Key)); err != nil {
			logger.Error("render document",
				slog.String("key", payload.Key.String()), slog.Any("error", err))
			return err
		}
		logger.Info("document rendered", slog.String("key", payload.Key.String()))
		return nil
	}
}

// NewReportExportHandler processes TaskReportExport tasks.
func NewReportExportHandler(service *reports.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportExportPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := defaultJobMetrics.Track(TaskReportExport)
		if err := tracker.End(service.RunExport(ctx, payload.ID)); err != nil {
			logger.Error("run export",
				slog.String("id", payload.ID.String()), slog.Any("error", err))
			return err
		}
		logger.Info("export finished", slog.String("id", payload.ID.String()))
		return nil
	}
}

// NewOverdueScanHandler processes the nightly TaskOverdueScan cron task.
func NewOverdueScanHandler(service *finance.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := defaultJobMetrics.Track(TaskOverdueScan)
		flagged, err := service.MarkOverdue(ctx, time.Now().UTC())
		if err := tracker.End(err); err != nil {
			logger.Error("overdue scan", slog.Any("error", err))
			return err
		}
		logger.Info("overdue scan finished", slog.Int("flagged", flagged))
		return nil
	}
}

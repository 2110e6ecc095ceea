// Package jobs defines the background tasks and the Asynq worker that runs
// them.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDocumentRender renders one requested PDF document.
	TaskDocumentRender = "document:render"
	// TaskReportExport builds one requested CSV/XLSX export.
	TaskReportExport = "report:export"
	// TaskOverdueScan flags unpaid installments past their due date.
	TaskOverdueScan = "finance:overdue_scan"
)

// DocumentRenderPayload identifies the document record to render.
type DocumentRenderPayload struct {
	Key uuid.UUID `json:"key"`
}

// NewDocumentRenderTask constructs an Asynq task for a document render.
func NewDocumentRenderTask(key uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(DocumentRenderPayload{Key: key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentRender, data, asynq.Queue(QueueDefault)), nil
}

// ReportExportPayload identifies the export to build.
type ReportExportPayload struct {
	ID uuid.UUID `json:"id"`
}

// NewReportExportTask constructs an Asynq task for a report export.
func NewReportExportTask(id uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ReportExportPayload{ID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportExport, data, asynq.Queue(QueueDefault)), nil
}

// OverdueScanPayload carries scheduling metadata for the cron scan.
type OverdueScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueScanTask constructs the nightly overdue scan task.
func NewOverdueScanTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(OverdueScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueDocumentRender submits a document render job.
func (c *Client) EnqueueDocumentRender(ctx context.Context, key uuid.UUID) error {
	task, err := NewDocumentRenderTask(key)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

// EnqueueReportExport submits a report export job.
func (c *Client) EnqueueReportExport(ctx context.Context, id uuid.UUID) error {
	task, err := NewReportExportTask(id)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

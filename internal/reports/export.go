// Package reports builds administrative CSV and XLSX exports and tracks
// their progress while the worker generates them.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/recoleo/recoleo/internal/shared"
)

// ExportType selects the dataset behind an export.
type ExportType string

const (
	ExportCollectionsByClient ExportType = "collections_by_client"
	ExportLedgerSummary       ExportType = "ledger_summary"
)

// Format selects the output file format.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
)

// Filters narrow the exported dataset.
type Filters struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Kind string    `json:"kind,omitempty"`
}

// ExportStatus is the progress snapshot stored in Redis while the worker
// builds the file.
type ExportStatus struct {
	ID       uuid.UUID  `json:"id"`
	Type     ExportType `json:"type"`
	Format   Format     `json:"format"`
	UserID   int64      `json:"user_id"`
	Filters  Filters    `json:"filters"`
	Progress float64    `json:"progress"`
	FileURL  *string    `json:"file_url"`
	Error    *string    `json:"error,omitempty"`
	Created  time.Time  `json:"created_at"`
}

const (
	exportSetKey    = "report_export_ids"
	exportKeyPrefix = "report_export:"
	exportTTL       = 20 * time.Minute
)

// Tracker persists export progress in Redis.
type Tracker struct {
	redis *redis.Client
}

// NewTracker builds a Tracker.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{redis: client}
}

// Save stores the status snapshot and registers its key.
func (t *Tracker) Save(ctx context.Context, status ExportStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	key := exportKeyPrefix + status.ID.String()
	if err := t.redis.Set(ctx, key, data, exportTTL).Err(); err != nil {
		return fmt.Errorf("save export status: %w", err)
	}
	if err := t.redis.SAdd(ctx, exportSetKey, key).Err(); err != nil {
		return fmt.Errorf("register export key: %w", err)
	}
	return t.redis.Expire(ctx, exportSetKey, exportTTL).Err()
}

// Get loads one status snapshot.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (*ExportStatus, error) {
	data, err := t.redis.Get(ctx, exportKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	var status ExportStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("parse export status: %w", err)
	}
	return &status, nil
}

// ListByUser returns the user's exports, newest first. Expired entries are
// skipped silently.
func (t *Tracker) ListByUser(ctx context.Context, userID int64) ([]ExportStatus, error) {
	keys, err := t.redis.SMembers(ctx, exportSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := t.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var status ExportStatus
		if err := json.Unmarshal(data, &status); err != nil {
			continue
		}
		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

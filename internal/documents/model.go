// Package documents renders contract, receipt and certificate PDFs and keeps
// track of where the generated files live.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the document templates.
type Kind string

const (
	KindContract    Kind = "CONTRACT"
	KindReceipt     Kind = "RECEIPT"
	KindCertificate Kind = "CERTIFICATE"
)

// Status tracks the async render pipeline.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusReady   Status = "READY"
	StatusFailed  Status = "FAILED"
)

// Record is one requested document render.
type Record struct {
	Key        uuid.UUID  `json:"key"`
	Kind       Kind       `json:"kind"`
	RefID      int64      `json:"ref_id"`
	Status     Status     `json:"status"`
	Signature  *string    `json:"-"`
	StorageKey *string    `json:"storage_key,omitempty"`
	Error      *string    `json:"error,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	RenderedAt *time.Time `json:"rendered_at,omitempty"`
}

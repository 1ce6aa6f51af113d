package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceDescriptor captures what the user handed us for a single item.
// File items carry the raw payload in Data; text items carry Text.
type SourceDescriptor struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentKind string `json:"content_kind"`
	Kind        string `json:"kind"` // SourceFile or SourceText
	Data        []byte `json:"-"`
	Text        string `json:"-"`
}

// JobRecord tracks one submitted item through its processing lifecycle.
// The ID is generated locally and is stable for the record's lifetime;
// nothing server-side ever assigns or rewrites it.
type JobRecord struct {
	ID             uuid.UUID        `json:"id"`
	Source         SourceDescriptor `json:"source"`
	Status         string           `json:"status"`
	Progress       int              `json:"progress"`
	RemoteLocation *string          `json:"remote_location,omitempty"`
	ResultID       *string          `json:"result_id,omitempty"`
	FailureReason  *string          `json:"failure_reason,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Terminal reports whether the record has reached success or error.
func (r *JobRecord) Terminal() bool {
	return TerminalStatus(r.Status)
}

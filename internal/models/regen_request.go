package models

import (
	"time"

	"github.com/google/uuid"
)

// RegenRequest is an out-of-band request to rebuild a condition's schedule,
// queued when an inline generation attempt fails and drained by the dispatch
// worker.
type RegenRequest struct {
	RequestID       int64     `json:"request_id"`
	MessageID       uuid.UUID `json:"message_id"`
	ConditionID     uuid.UUID `json:"condition_id"`
	SuppressOverdue bool      `json:"suppress_overdue"`
	RequestedAt     time.Time `json:"requested_at"`
}

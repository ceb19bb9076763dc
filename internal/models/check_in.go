package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn is one audit row per check-in; the condition's last_checked field
// holds the latest instant.
type CheckIn struct {
	CheckInID   int64     `json:"check_in_id"`
	ConditionID uuid.UUID `json:"condition_id"`
	CheckedAt   time.Time `json:"checked_at"`
	Note        string    `json:"note"`
}

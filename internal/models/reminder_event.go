package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes lead-time warnings from the delivery at the deadline itself.
type EventType string

const (
	EventReminder      EventType = "reminder"
	EventFinalDelivery EventType = "final_delivery"
)

// EventPriority drives retry aggressiveness in the dispatch worker, not scheduling order.
type EventPriority string

const (
	PriorityNormal   EventPriority = "normal"
	PriorityHigh     EventPriority = "high"
	PriorityCritical EventPriority = "critical"
)

// EventStatus is the reminder event state machine: pending -> sent | failed | obsolete.
// All three are terminal; obsolete is reachable only via schedule invalidation.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventSent     EventStatus = "sent"
	EventFailed   EventStatus = "failed"
	EventObsolete EventStatus = "obsolete"
)

// Terminal reports whether no further transition is allowed from s.
func (s EventStatus) Terminal() bool {
	return s == EventSent || s == EventFailed || s == EventObsolete
}

// ReminderEvent is one scheduled notification. Events are unique per
// (message_id, condition_id, scheduled_at, event_type) and are never deleted;
// superseded schedules are retained as obsolete rows for history.
type ReminderEvent struct {
	EventID         int64         `json:"event_id"`
	MessageID       uuid.UUID     `json:"message_id"`
	ConditionID     uuid.UUID     `json:"condition_id"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	Type            EventType     `json:"event_type"`
	Priority        EventPriority `json:"priority"`
	Status          EventStatus   `json:"status"`
	SuppressOverdue bool          `json:"suppress_overdue"` // do not fire retroactively if already past due at creation
	SentAt          *time.Time    `json:"sent_at"`
	LastError       string        `json:"last_error"`
	CreatedAt       time.Time     `json:"created_at"`
}

// PriorityForLead maps a reminder lead time in minutes to its dispatch
// priority. Leads of an hour or less are high; the final delivery is always
// critical.
func PriorityForLead(minutes int32) EventPriority {
	if minutes <= 60 {
		return PriorityHigh
	}
	return PriorityNormal
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ConditionKind identifies how a message's delivery deadline is derived.
type ConditionKind string

const (
	KindNoCheckIn         ConditionKind = "no_check_in"
	KindRecurringCheckIn  ConditionKind = "recurring_check_in"
	KindInactivityToDate  ConditionKind = "inactivity_to_date"
	KindScheduledDate     ConditionKind = "scheduled_date"
	KindGroupConfirmation ConditionKind = "group_confirmation"
	KindPanicTrigger      ConditionKind = "panic_trigger"
)

// Condition is the delivery rule attached to a message. The effective deadline
// is a pure function of the stored fields, never of wall-clock time.
type Condition struct {
	ConditionID      uuid.UUID     `json:"condition_id"`
	MessageID        uuid.UUID     `json:"message_id"`
	Kind             ConditionKind `json:"kind"`
	LastChecked      *time.Time    `json:"last_checked"`
	HoursThreshold   int           `json:"hours_threshold"`
	MinutesThreshold int           `json:"minutes_threshold"`
	TriggerDate      *time.Time    `json:"trigger_date"`
	LeadTimes        []int32       `json:"reminder_lead_minutes"` // minutes before the deadline, always minutes
	Active           bool          `json:"active"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// SupportsReminders reports whether this kind is scheduled via lead-time
// reminders. Panic and group-confirmation conditions deliver immediately or
// through external confirmation, never through the reminder schedule.
func (c *Condition) SupportsReminders() bool {
	switch c.Kind {
	case KindPanicTrigger, KindGroupConfirmation:
		return false
	}
	return true
}

// UsesCheckIn reports whether the deadline is anchored on the owner's last check-in.
func (c *Condition) UsesCheckIn() bool {
	switch c.Kind {
	case KindNoCheckIn, KindRecurringCheckIn, KindInactivityToDate:
		return true
	}
	return false
}

// Threshold returns the check-in window as a duration.
func (c *Condition) Threshold() time.Duration {
	return time.Duration(c.HoursThreshold)*time.Hour + time.Duration(c.MinutesThreshold)*time.Minute
}

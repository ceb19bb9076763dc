package schedule

import (
	"time"

	"github.com/adurso/vigil/internal/models"
)

// ResolveDeadline computes the single instant that anchors all reminder math
// for a condition. It is a pure function of the condition snapshot: two calls
// with the same snapshot return the same instant no matter when they run.
//
// A nil result means "not yet resolvable" (never checked in, no trigger date,
// or a kind that is never scheduled via lead times). It is not an error.
func ResolveDeadline(cond *models.Condition) *time.Time {
	if cond == nil {
		return nil
	}
	switch cond.Kind {
	case models.KindNoCheckIn, models.KindRecurringCheckIn, models.KindInactivityToDate:
		if cond.LastChecked == nil {
			return nil
		}
		if cond.HoursThreshold <= 0 && cond.MinutesThreshold <= 0 {
			return nil
		}
		deadline := cond.LastChecked.Add(cond.Threshold())
		return &deadline
	case models.KindScheduledDate:
		if cond.TriggerDate == nil {
			return nil
		}
		deadline := *cond.TriggerDate
		return &deadline
	default:
		// panic_trigger, group_confirmation and anything unknown
		return nil
	}
}

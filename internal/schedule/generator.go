package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
)

var (
	// ErrUnsupportedKind means the caller asked to schedule a condition kind
	// that never uses lead-time reminders (panic trigger, group confirmation).
	ErrUnsupportedKind = errors.New("schedule: condition kind does not support lead-time reminders")

	// ErrNilDeadline means Generate was called without a resolved deadline.
	ErrNilDeadline = errors.New("schedule: deadline is not resolvable")

	// ErrNoPendingEvents means the upsert reported success but left zero
	// pending events for the pair, a silent constraint violation.
	ErrNoPendingEvents = errors.New("schedule: no pending events after upsert")
)

// overdueWarnThreshold flags schedules whose deadline was already long past at
// generation time; those usually mean a stalled dispatch cycle upstream.
const overdueWarnThreshold = time.Hour

// Generator builds and persists the reminder set for a resolved deadline.
type Generator struct {
	reminders ReminderStore
	regen     RegenQueue // optional fallback; may be nil
	now       func() time.Time
}

func NewGenerator(reminders ReminderStore, regen RegenQueue) *Generator {
	return &Generator{
		reminders: reminders,
		regen:     regen,
		now:       time.Now,
	}
}

// BuildEvents computes the full reminder set for a deadline without persisting
// it: one reminder event per normalized lead time plus exactly one
// final_delivery event at the deadline itself. Empty lead times get the
// 24-hour default.
func BuildEvents(messageID, conditionID uuid.UUID, deadline time.Time, leadTimes []int32, suppressOverdue bool) []*models.ReminderEvent {
	leads := NormalizeLeadTimes(leadTimes)
	if len(leads) == 0 {
		leads = []int32{DefaultLeadTimeMinutes}
	}

	events := make([]*models.ReminderEvent, 0, len(leads)+1)
	for _, m := range leads {
		events = append(events, &models.ReminderEvent{
			MessageID:       messageID,
			ConditionID:     conditionID,
			ScheduledAt:     deadline.Add(-time.Duration(m) * time.Minute),
			Type:            models.EventReminder,
			Priority:        models.PriorityForLead(m),
			Status:          models.EventPending,
			SuppressOverdue: suppressOverdue,
		})
	}
	events = append(events, &models.ReminderEvent{
		MessageID:       messageID,
		ConditionID:     conditionID,
		ScheduledAt:     deadline,
		Type:            models.EventFinalDelivery,
		Priority:        models.PriorityCritical,
		Status:          models.EventPending,
		SuppressOverdue: suppressOverdue,
	})
	return events
}

// Generate replaces the pair's schedule with the set computed for deadline.
// Past-due events are still created; firing or retiring them is the dispatch
// worker's job. On a persistence failure one out-of-band regeneration request
// is queued before the error is reported.
func (g *Generator) Generate(ctx context.Context, messageID, conditionID uuid.UUID, deadline time.Time, leadTimes []int32, suppressOverdue bool) error {
	if messageID == uuid.Nil || conditionID == uuid.Nil {
		return errors.New("schedule: message id and condition id are required")
	}
	if deadline.IsZero() {
		return ErrNilDeadline
	}

	if overdue := g.now().Sub(deadline); overdue > overdueWarnThreshold {
		log.Printf("schedule: deadline for message %s is %s past due, dispatch may have stalled upstream",
			messageID, overdue.Round(time.Minute))
	}

	events := BuildEvents(messageID, conditionID, deadline, leadTimes, suppressOverdue)

	if _, err := g.reminders.ReplaceSchedule(ctx, messageID, conditionID, events); err != nil {
		if g.regen != nil {
			if qerr := g.regen.EnqueueRegenerate(ctx, messageID, conditionID, suppressOverdue); qerr != nil {
				return fmt.Errorf("schedule: replace schedule: %w (regeneration request also failed: %v)", err, qerr)
			}
			return fmt.Errorf("schedule: replace schedule: %w (queued out-of-band regeneration)", err)
		}
		return fmt.Errorf("schedule: replace schedule: %w", err)
	}

	// The write can report success yet touch zero rows when every upsert hits
	// a terminal conflict. Surface that instead of assuming the schedule exists.
	count, err := g.reminders.CountPending(ctx, messageID, conditionID)
	if err != nil {
		return fmt.Errorf("schedule: verify schedule: %w", err)
	}
	if count == 0 {
		return ErrNoPendingEvents
	}
	return nil
}

// GenerateForCondition resolves the condition's deadline and generates its
// schedule. Kinds that never use lead-time reminders are rejected outright;
// an unresolvable deadline is reported as ErrNilDeadline so callers can treat
// it as "nothing to schedule yet".
func (g *Generator) GenerateForCondition(ctx context.Context, cond *models.Condition, suppressOverdue bool) error {
	if cond == nil {
		return errors.New("schedule: condition is required")
	}
	if !cond.SupportsReminders() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, cond.Kind)
	}
	deadline := ResolveDeadline(cond)
	if deadline == nil {
		return ErrNilDeadline
	}
	return g.Generate(ctx, cond.MessageID, cond.ConditionID, *deadline, cond.LeadTimes, suppressOverdue)
}

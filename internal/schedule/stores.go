package schedule

import (
	"context"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
)

// ConditionStore is the read side of the condition table.
type ConditionStore interface {
	GetByID(ctx context.Context, conditionID uuid.UUID) (*models.Condition, error)
}

// ReminderStore is the persisted reminder table. ReplaceSchedule must retire
// the pair's pending events and upsert the new set as one logical operation,
// with the upsert keyed on (message_id, condition_id, scheduled_at, event_type).
type ReminderStore interface {
	ReplaceSchedule(ctx context.Context, messageID, conditionID uuid.UUID, events []*models.ReminderEvent) (int64, error)
	MarkObsolete(ctx context.Context, messageID, conditionID uuid.UUID) (int64, error)
	CountPending(ctx context.Context, messageID, conditionID uuid.UUID) (int, error)
	PendingByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) ([]*models.ReminderEvent, error)
}

// RegenQueue accepts out-of-band regeneration requests, the generator's
// one-shot fallback when an inline write fails.
type RegenQueue interface {
	EnqueueRegenerate(ctx context.Context, messageID, conditionID uuid.UUID, suppressOverdue bool) error
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adurso/vigil/internal/database"
	"github.com/adurso/vigil/internal/models"
)

type ReminderEventRepository struct {
	db *database.DB
}

func NewReminderEventRepository(db *database.DB) *ReminderEventRepository {
	return &ReminderEventRepository{db: db}
}

const eventColumns = `event_id, message_id, condition_id, scheduled_at, event_type, priority,
	 status, suppress_overdue, sent_at, last_error, created_at`

// ReplaceSchedule marks every pending event for the pair obsolete and upserts
// the new set, all in one transaction so a crash can never leave the old and
// new schedule both live. An upsert conflict on the identity key means
// "already scheduled": a row obsoleted moments ago by this same transaction is
// revived to pending, a sent or failed row is left untouched. Returns the
// number of rows written.
func (r *ReminderEventRepository) ReplaceSchedule(ctx context.Context, messageID, conditionID uuid.UUID, events []*models.ReminderEvent) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE reminder_event SET status = 'obsolete'
		 WHERE message_id = $1 AND condition_id = $2 AND status = 'pending'`,
		messageID, conditionID,
	)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, ev := range events {
		tag, err := tx.Exec(ctx,
			`INSERT INTO reminder_event (message_id, condition_id, scheduled_at, event_type, priority, status, suppress_overdue)
			 VALUES ($1, $2, $3, $4, $5, 'pending', $6)
			 ON CONFLICT (message_id, condition_id, scheduled_at, event_type)
			 DO UPDATE SET status = 'pending', priority = EXCLUDED.priority,
			               suppress_overdue = EXCLUDED.suppress_overdue
			 WHERE reminder_event.status = 'obsolete'`,
			ev.MessageID, ev.ConditionID, ev.ScheduledAt, ev.Type, ev.Priority, ev.SuppressOverdue,
		)
		if err != nil {
			return 0, err
		}
		written += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return written, nil
}

// MarkObsolete retires every pending event for the pair. Sent and failed rows
// are terminal history and are never touched.
func (r *ReminderEventRepository) MarkObsolete(ctx context.Context, messageID, conditionID uuid.UUID) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminder_event SET status = 'obsolete'
		 WHERE message_id = $1 AND condition_id = $2 AND status = 'pending'`,
		messageID, conditionID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ReminderEventRepository) CountPending(ctx context.Context, messageID, conditionID uuid.UUID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reminder_event
		 WHERE message_id = $1 AND condition_id = $2 AND status = 'pending'`,
		messageID, conditionID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PendingByMessageIDs fetches pending events for many messages in one query.
func (r *ReminderEventRepository) PendingByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) ([]*models.ReminderEvent, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+eventColumns+` FROM reminder_event
		 WHERE status = 'pending' AND message_id = ANY($1)
		 ORDER BY scheduled_at ASC`,
		messageIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *ReminderEventRepository) DueEvents(ctx context.Context, until time.Time) ([]*models.ReminderEvent, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+eventColumns+` FROM reminder_event
		 WHERE status = 'pending' AND scheduled_at <= $1
		 ORDER BY scheduled_at ASC`,
		until,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *ReminderEventRepository) MarkSent(ctx context.Context, eventID int64, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminder_event SET status = 'sent', sent_at = $1
		 WHERE event_id = $2 AND status = 'pending'`,
		at, eventID,
	)
	return err
}

func (r *ReminderEventRepository) MarkFailed(ctx context.Context, eventID int64, reason string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminder_event SET status = 'failed', last_error = $1
		 WHERE event_id = $2 AND status = 'pending'`,
		reason, eventID,
	)
	return err
}

func (r *ReminderEventRepository) MarkEventObsolete(ctx context.Context, eventID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminder_event SET status = 'obsolete'
		 WHERE event_id = $1 AND status = 'pending'`,
		eventID,
	)
	return err
}

// EnqueueRegenerate records an out-of-band request to rebuild the schedule,
// drained later by the dispatch worker.
func (r *ReminderEventRepository) EnqueueRegenerate(ctx context.Context, messageID, conditionID uuid.UUID, suppressOverdue bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO schedule_regen_request (message_id, condition_id, suppress_overdue)
		 VALUES ($1, $2, $3)`,
		messageID, conditionID, suppressOverdue,
	)
	return err
}

func (r *ReminderEventRepository) DequeueRegenerate(ctx context.Context, limit int) ([]*models.RegenRequest, error) {
	rows, err := r.db.Pool.Query(ctx,
		`DELETE FROM schedule_regen_request
		 WHERE request_id IN (
		     SELECT request_id FROM schedule_regen_request ORDER BY requested_at ASC LIMIT $1
		 )
		 RETURNING request_id, message_id, condition_id, suppress_overdue, requested_at`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.RegenRequest
	for rows.Next() {
		req := &models.RegenRequest{}
		if err := rows.Scan(&req.RequestID, &req.MessageID, &req.ConditionID,
			&req.SuppressOverdue, &req.RequestedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanEvents(rows pgx.Rows) ([]*models.ReminderEvent, error) {
	var events []*models.ReminderEvent
	for rows.Next() {
		ev := &models.ReminderEvent{}
		if err := rows.Scan(&ev.EventID, &ev.MessageID, &ev.ConditionID, &ev.ScheduledAt,
			&ev.Type, &ev.Priority, &ev.Status, &ev.SuppressOverdue, &ev.SentAt,
			&ev.LastError, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

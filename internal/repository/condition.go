package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/database"
	"github.com/adurso/vigil/internal/models"
)

type ConditionRepository struct {
	db *database.DB
}

func NewConditionRepository(db *database.DB) *ConditionRepository {
	return &ConditionRepository{db: db}
}

const conditionColumns = `condition_id, message_id, kind, last_checked, hours_threshold,
	 minutes_threshold, trigger_date, reminder_lead_minutes, active, created_at, updated_at`

func (r *ConditionRepository) Create(ctx context.Context, cond *models.Condition) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO condition (message_id, kind, last_checked, hours_threshold, minutes_threshold,
		 trigger_date, reminder_lead_minutes, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING condition_id, created_at, updated_at`,
		cond.MessageID, cond.Kind, cond.LastChecked, cond.HoursThreshold, cond.MinutesThreshold,
		cond.TriggerDate, cond.LeadTimes, cond.Active,
	).Scan(&cond.ConditionID, &cond.CreatedAt, &cond.UpdatedAt)
}

func (r *ConditionRepository) GetByID(ctx context.Context, conditionID uuid.UUID) (*models.Condition, error) {
	cond := &models.Condition{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+conditionColumns+` FROM condition WHERE condition_id = $1`,
		conditionID,
	).Scan(&cond.ConditionID, &cond.MessageID, &cond.Kind, &cond.LastChecked, &cond.HoursThreshold,
		&cond.MinutesThreshold, &cond.TriggerDate, &cond.LeadTimes, &cond.Active,
		&cond.CreatedAt, &cond.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

func (r *ConditionRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Condition, error) {
	cond := &models.Condition{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+conditionColumns+` FROM condition WHERE message_id = $1`,
		messageID,
	).Scan(&cond.ConditionID, &cond.MessageID, &cond.Kind, &cond.LastChecked, &cond.HoursThreshold,
		&cond.MinutesThreshold, &cond.TriggerDate, &cond.LeadTimes, &cond.Active,
		&cond.CreatedAt, &cond.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// Update rewrites the condition's rule fields. last_checked is owned by the
// check-in flow and is not touched here.
func (r *ConditionRepository) Update(ctx context.Context, cond *models.Condition) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE condition SET kind = $1, hours_threshold = $2, minutes_threshold = $3,
		 trigger_date = $4, reminder_lead_minutes = $5, active = $6, updated_at = now()
		 WHERE condition_id = $7`,
		cond.Kind, cond.HoursThreshold, cond.MinutesThreshold, cond.TriggerDate,
		cond.LeadTimes, cond.Active, cond.ConditionID,
	)
	return err
}

func (r *ConditionRepository) SetActive(ctx context.Context, conditionID uuid.UUID, active bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE condition SET active = $1, updated_at = now() WHERE condition_id = $2`,
		active, conditionID,
	)
	return err
}

func (r *ConditionRepository) SetLastChecked(ctx context.Context, conditionID uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE condition SET last_checked = $1, updated_at = now() WHERE condition_id = $2`,
		at, conditionID,
	)
	return err
}

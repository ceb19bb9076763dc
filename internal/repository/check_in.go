package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/database"
	"github.com/adurso/vigil/internal/models"
)

type CheckInRepository struct {
	db *database.DB
}

func NewCheckInRepository(db *database.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO check_in (condition_id, checked_at, note)
		 VALUES ($1, $2, $3)
		 RETURNING check_in_id`,
		checkIn.ConditionID, checkIn.CheckedAt, checkIn.Note,
	).Scan(&checkIn.CheckInID)
}

func (r *CheckInRepository) ListByCondition(ctx context.Context, conditionID uuid.UUID, limit int) ([]*models.CheckIn, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT check_in_id, condition_id, checked_at, note
		 FROM check_in WHERE condition_id = $1
		 ORDER BY checked_at DESC LIMIT $2`,
		conditionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkIns []*models.CheckIn
	for rows.Next() {
		checkIn := &models.CheckIn{}
		if err := rows.Scan(&checkIn.CheckInID, &checkIn.ConditionID,
			&checkIn.CheckedAt, &checkIn.Note); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, checkIn)
	}
	return checkIns, rows.Err()
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
	"github.com/adurso/vigil/internal/schedule"
)

type ConditionStore interface {
	GetByID(ctx context.Context, conditionID uuid.UUID) (*models.Condition, error)
	Update(ctx context.Context, cond *models.Condition) error
	SetActive(ctx context.Context, conditionID uuid.UUID, active bool) error
	SetLastChecked(ctx context.Context, conditionID uuid.UUID, at time.Time) error
}

type CheckInStore interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
}

// ChangeNotifier receives condition-change signals; satisfied by
// *schedule.Refresher.
type ChangeNotifier interface {
	Notify(change schedule.ConditionChange)
}

// ConditionService is the application boundary for condition state changes.
// Every mutation persists first and signals the schedule refresher after;
// scheduling trouble never fails the user action itself.
type ConditionService struct {
	conditions ConditionStore
	checkIns   CheckInStore
	signals    ChangeNotifier
	now        func() time.Time
}

func NewConditionService(conditions ConditionStore, checkIns CheckInStore, signals ChangeNotifier) *ConditionService {
	return &ConditionService{
		conditions: conditions,
		checkIns:   checkIns,
		signals:    signals,
		now:        time.Now,
	}
}

// CheckIn resets the condition's deadline anchor and records an audit row.
func (s *ConditionService) CheckIn(ctx context.Context, conditionID uuid.UUID, note string) error {
	cond, err := s.conditions.GetByID(ctx, conditionID)
	if err != nil {
		return fmt.Errorf("fetch condition: %w", err)
	}
	if !cond.UsesCheckIn() {
		return fmt.Errorf("condition %s (%s) does not accept check-ins", conditionID, cond.Kind)
	}

	now := s.now()
	if err := s.conditions.SetLastChecked(ctx, conditionID, now); err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}

	checkIn := &models.CheckIn{ConditionID: conditionID, CheckedAt: now, Note: note}
	if err := s.checkIns.Create(ctx, checkIn); err != nil {
		// Audit only; the check-in itself already took effect.
		log.Printf("Failed to record check-in history for condition %s: %v", conditionID, err)
	}

	s.signals.Notify(schedule.ConditionChange{ConditionID: conditionID, Kind: schedule.ChangeCheckIn})
	return nil
}

// Update saves edited rule fields and queues a suppressed schedule rebuild.
func (s *ConditionService) Update(ctx context.Context, cond *models.Condition) error {
	if err := s.conditions.Update(ctx, cond); err != nil {
		return fmt.Errorf("update condition: %w", err)
	}
	s.signals.Notify(schedule.ConditionChange{ConditionID: cond.ConditionID, Kind: schedule.ChangeEdited})
	return nil
}

// SetActive arms or disarms the condition.
func (s *ConditionService) SetActive(ctx context.Context, conditionID uuid.UUID, active bool) error {
	if err := s.conditions.SetActive(ctx, conditionID, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	kind := schedule.ChangeArmed
	if !active {
		kind = schedule.ChangeDisarmed
	}
	s.signals.Notify(schedule.ConditionChange{ConditionID: conditionID, Kind: kind})
	return nil
}

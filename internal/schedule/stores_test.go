package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
)

var errNotFound = errors.New("condition not found")

// fakeReminderStore mirrors the repository's replace semantics in memory:
// retire pending, upsert keyed on (message, condition, scheduled_at, type),
// revive rows obsoleted in the same replace, never touch sent/failed.
type fakeReminderStore struct {
	mu           sync.Mutex
	events       []*models.ReminderEvent
	nextID       int64
	replaceCalls int
	queryCalls   int
	replaceErr   error
	dropWrites   bool
}

func (s *fakeReminderStore) ReplaceSchedule(_ context.Context, messageID, conditionID uuid.UUID, events []*models.ReminderEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	s.replaceCalls++

	for _, ev := range s.events {
		if ev.MessageID == messageID && ev.ConditionID == conditionID && ev.Status == models.EventPending {
			ev.Status = models.EventObsolete
		}
	}
	if s.dropWrites {
		return 0, nil
	}

	var written int64
	for _, ev := range events {
		if existing := s.find(messageID, conditionID, ev.ScheduledAt, ev.Type); existing != nil {
			if existing.Status == models.EventObsolete {
				existing.Status = models.EventPending
				existing.Priority = ev.Priority
				existing.SuppressOverdue = ev.SuppressOverdue
				written++
			}
			continue
		}
		s.nextID++
		stored := *ev
		stored.EventID = s.nextID
		stored.Status = models.EventPending
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now()
		}
		s.events = append(s.events, &stored)
		written++
	}
	return written, nil
}

func (s *fakeReminderStore) MarkObsolete(_ context.Context, messageID, conditionID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, ev := range s.events {
		if ev.MessageID == messageID && ev.ConditionID == conditionID && ev.Status == models.EventPending {
			ev.Status = models.EventObsolete
			n++
		}
	}
	return n, nil
}

func (s *fakeReminderStore) CountPending(_ context.Context, messageID, conditionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, ev := range s.events {
		if ev.MessageID == messageID && ev.ConditionID == conditionID && ev.Status == models.EventPending {
			count++
		}
	}
	return count, nil
}

func (s *fakeReminderStore) PendingByMessageIDs(_ context.Context, messageIDs []uuid.UUID) ([]*models.ReminderEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queryCalls++
	wanted := make(map[uuid.UUID]bool, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = true
	}
	var out []*models.ReminderEvent
	for _, ev := range s.events {
		if ev.Status == models.EventPending && wanted[ev.MessageID] {
			copied := *ev
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) find(messageID, conditionID uuid.UUID, at time.Time, typ models.EventType) *models.ReminderEvent {
	for _, ev := range s.events {
		if ev.MessageID == messageID && ev.ConditionID == conditionID &&
			ev.ScheduledAt.Equal(at) && ev.Type == typ {
			return ev
		}
	}
	return nil
}

func (s *fakeReminderStore) pending(messageID, conditionID uuid.UUID) []*models.ReminderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ReminderEvent
	for _, ev := range s.events {
		if ev.MessageID == messageID && ev.ConditionID == conditionID && ev.Status == models.EventPending {
			out = append(out, ev)
		}
	}
	return out
}

func (s *fakeReminderStore) seed(ev *models.ReminderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev.EventID = s.nextID
	s.events = append(s.events, ev)
}

type fakeConditionStore struct {
	mu         sync.Mutex
	conditions map[uuid.UUID]*models.Condition
}

func newFakeConditionStore(conds ...*models.Condition) *fakeConditionStore {
	s := &fakeConditionStore{conditions: make(map[uuid.UUID]*models.Condition)}
	for _, c := range conds {
		s.conditions[c.ConditionID] = c
	}
	return s
}

func (s *fakeConditionStore) GetByID(_ context.Context, conditionID uuid.UUID) (*models.Condition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cond, ok := s.conditions[conditionID]
	if !ok {
		return nil, errNotFound
	}
	copied := *cond
	return &copied, nil
}

type fakeRegenQueue struct {
	mu       sync.Mutex
	requests []*models.RegenRequest
	err      error
}

func (q *fakeRegenQueue) EnqueueRegenerate(_ context.Context, messageID, conditionID uuid.UUID, suppressOverdue bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.requests = append(q.requests, &models.RegenRequest{
		MessageID:       messageID,
		ConditionID:     conditionID,
		SuppressOverdue: suppressOverdue,
	})
	return nil
}

package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
)

// ErrRefreshThrottled means a refresh for the same condition completed less
// than the cooldown ago; the schedule is already current.
var ErrRefreshThrottled = errors.New("schedule: refresh throttled")

const (
	defaultDebounce = 300 * time.Millisecond
	defaultCooldown = 2 * time.Second
	defaultCacheTTL = 30 * time.Second
)

// ChangeKind classifies the condition state changes the refresher reacts to.
type ChangeKind string

const (
	ChangeCheckIn  ChangeKind = "check_in"
	ChangeEdited   ChangeKind = "edited"
	ChangeArmed    ChangeKind = "armed"
	ChangeDisarmed ChangeKind = "disarmed"
)

// ConditionChange is an application-level signal that a condition's schedule
// may be stale.
type ConditionChange struct {
	ConditionID uuid.UUID
	Kind        ChangeKind
}

// Suppressed reports whether schedules rebuilt for this change must not fire
// retroactively. Only a genuine check-in reset is allowed to produce events
// the dispatch worker treats as already due; edits and arming must not blast
// out stale notifications.
func (c ConditionChange) Suppressed() bool {
	return c.Kind != ChangeCheckIn
}

// Refresher keeps a condition's reminder schedule consistent with its current
// state: it retires stale pending events and re-invokes the generator, with
// per-condition debouncing so bursty signals converge on one regeneration.
type Refresher struct {
	conditions ConditionStore
	reminders  ReminderStore
	gen        *Generator

	debounce time.Duration
	cooldown time.Duration
	cache    *upcomingCache
	now      func() time.Time

	mu     sync.Mutex
	states map[uuid.UUID]*refreshState
}

type refreshState struct {
	cycle         *refreshCycle // nil when idle
	lastCompleted time.Time
}

// refreshCycle is one debounced execution; err is immutable once done closes.
type refreshCycle struct {
	done     chan struct{}
	err      error
	suppress bool
}

func NewRefresher(conditions ConditionStore, reminders ReminderStore, gen *Generator) *Refresher {
	return &Refresher{
		conditions: conditions,
		reminders:  reminders,
		gen:        gen,
		debounce:   defaultDebounce,
		cooldown:   defaultCooldown,
		cache:      newUpcomingCache(defaultCacheTTL),
		now:        time.Now,
		states:     make(map[uuid.UUID]*refreshState),
	}
}

// Notify consumes a condition-change signal asynchronously. Refresh failures
// never propagate to the action that triggered them; they are logged as
// warnings per the scheduling propagation policy.
func (r *Refresher) Notify(change ConditionChange) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Refresh(ctx, change.ConditionID, change.Suppressed()); err != nil &&
			!errors.Is(err, ErrRefreshThrottled) {
			log.Printf("schedule: refresh after %s for condition %s: %v", change.Kind, change.ConditionID, err)
		}
	}()
}

// Refresh re-fetches the condition and rebuilds its schedule. Calls for the
// same condition within the debounce window coalesce onto a single execution
// and share its result; a call landing within the cooldown after a completed
// refresh returns ErrRefreshThrottled. When coalesced calls disagree on
// suppression, the non-suppressed (check-in) request wins.
func (r *Refresher) Refresh(ctx context.Context, conditionID uuid.UUID, suppress bool) error {
	if conditionID == uuid.Nil {
		return errors.New("schedule: condition id is required")
	}

	r.mu.Lock()
	st := r.states[conditionID]
	if st == nil {
		st = &refreshState{}
		r.states[conditionID] = st
	}

	if st.cycle == nil {
		if !st.lastCompleted.IsZero() && r.now().Sub(st.lastCompleted) < r.cooldown {
			r.mu.Unlock()
			return ErrRefreshThrottled
		}
		cycle := &refreshCycle{done: make(chan struct{}), suppress: suppress}
		st.cycle = cycle
		r.mu.Unlock()
		return r.run(ctx, conditionID, st, cycle)
	}

	cycle := st.cycle
	if !suppress {
		cycle.suppress = false
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cycle.done:
		return cycle.err
	}
}

func (r *Refresher) run(ctx context.Context, conditionID uuid.UUID, st *refreshState, cycle *refreshCycle) error {
	// Hold through the debounce window so bursty signals join this cycle
	// before anything touches the store.
	timer := time.NewTimer(r.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.finish(st, cycle, ctx.Err())
		return ctx.Err()
	case <-timer.C:
	}

	r.mu.Lock()
	suppress := cycle.suppress
	r.mu.Unlock()

	err := r.doRefresh(ctx, conditionID, suppress)
	r.finish(st, cycle, err)
	return err
}

func (r *Refresher) finish(st *refreshState, cycle *refreshCycle, err error) {
	r.mu.Lock()
	cycle.err = err
	st.cycle = nil
	st.lastCompleted = r.now()
	r.mu.Unlock()
	close(cycle.done)
}

func (r *Refresher) doRefresh(ctx context.Context, conditionID uuid.UUID, suppress bool) error {
	cond, err := r.conditions.GetByID(ctx, conditionID)
	if err != nil {
		return fmt.Errorf("schedule: fetch condition %s: %w", conditionID, err)
	}
	if !cond.SupportsReminders() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, cond.Kind)
	}

	defer r.cache.Invalidate([]uuid.UUID{cond.MessageID})

	if !cond.Active {
		// Inactive conditions carry no live schedule.
		if _, err := r.reminders.MarkObsolete(ctx, cond.MessageID, cond.ConditionID); err != nil {
			return fmt.Errorf("schedule: mark obsolete for condition %s: %w", conditionID, err)
		}
		return nil
	}

	deadline := ResolveDeadline(cond)
	if deadline == nil {
		// Nothing to schedule yet (e.g. never armed with a check-in); make
		// sure no stale pending events survive a rule edit.
		if _, err := r.reminders.MarkObsolete(ctx, cond.MessageID, cond.ConditionID); err != nil {
			return fmt.Errorf("schedule: mark obsolete for condition %s: %w", conditionID, err)
		}
		return nil
	}

	return r.gen.Generate(ctx, cond.MessageID, cond.ConditionID, *deadline, cond.LeadTimes, suppress)
}

// MarkObsolete retires every pending event for the pair and invalidates any
// cached lookups that include the message. Terminal events are untouched.
func (r *Refresher) MarkObsolete(ctx context.Context, messageID, conditionID uuid.UUID) error {
	if _, err := r.reminders.MarkObsolete(ctx, messageID, conditionID); err != nil {
		return fmt.Errorf("schedule: mark obsolete: %w", err)
	}
	r.cache.Invalidate([]uuid.UUID{messageID})
	return nil
}

// Upcoming is one pending reminder in the batched read path.
type Upcoming struct {
	ScheduledAt time.Time            `json:"scheduled_at"`
	Type        models.EventType     `json:"type"`
	Priority    models.EventPriority `json:"priority"`
}

// UpcomingReminders fetches the pending events for many messages in a single
// query, grouped and sorted per message, with short-lived caching keyed by the
// sorted id set.
func (r *Refresher) UpcomingReminders(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]Upcoming, error) {
	result := make(map[uuid.UUID][]Upcoming)
	if len(messageIDs) == 0 {
		return result, nil
	}

	ids := sortedUnique(messageIDs)
	if cached, ok := r.cache.get(ids); ok {
		return cached, nil
	}

	events, err := r.reminders.PendingByMessageIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("schedule: fetch pending reminders: %w", err)
	}

	for _, ev := range events {
		result[ev.MessageID] = append(result[ev.MessageID], Upcoming{
			ScheduledAt: ev.ScheduledAt,
			Type:        ev.Type,
			Priority:    ev.Priority,
		})
	}
	for _, list := range result {
		sort.Slice(list, func(i, j int) bool { return list[i].ScheduledAt.Before(list[j].ScheduledAt) })
	}

	r.cache.set(ids, result)
	return result, nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

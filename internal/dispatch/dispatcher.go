package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/format"
	"github.com/adurso/vigil/internal/models"
	"github.com/adurso/vigil/internal/schedule"
)

// EventStore is the dispatcher's view of the reminder table.
type EventStore interface {
	DueEvents(ctx context.Context, until time.Time) ([]*models.ReminderEvent, error)
	MarkSent(ctx context.Context, eventID int64, at time.Time) error
	MarkFailed(ctx context.Context, eventID int64, reason string) error
	MarkEventObsolete(ctx context.Context, eventID int64) error
}

type MessageStore interface {
	GetByID(ctx context.Context, messageID uuid.UUID) (*models.Message, error)
}

// RegenSource hands out queued out-of-band regeneration requests.
type RegenSource interface {
	DequeueRegenerate(ctx context.Context, limit int) ([]*models.RegenRequest, error)
}

// Refresher rebuilds a condition's schedule; satisfied by *schedule.Refresher.
type Refresher interface {
	Refresh(ctx context.Context, conditionID uuid.UUID, suppress bool) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type TelegramSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

const regenBatchSize = 50

// Dispatcher periodically fires due reminder events through the configured
// notification channels and drains the regeneration queue.
type Dispatcher struct {
	events    EventStore
	messages  MessageStore
	regen     RegenSource
	refresher Refresher
	email     EmailSender
	telegram  TelegramSender

	checkInterval time.Duration
	notifyCh      chan struct{}
	now           func() time.Time
}

func New(events EventStore, messages MessageStore, regen RegenSource, refresher Refresher) *Dispatcher {
	return &Dispatcher{
		events:        events,
		messages:      messages,
		regen:         regen,
		refresher:     refresher,
		checkInterval: 30 * time.Second,
		notifyCh:      make(chan struct{}, 1),
		now:           time.Now,
	}
}

// SetCheckInterval overrides the default 30s polling interval.
func (d *Dispatcher) SetCheckInterval(interval time.Duration) {
	if interval > 0 {
		d.checkInterval = interval
	}
}

// SetEmail wires the email channel; nil leaves it disabled.
func (d *Dispatcher) SetEmail(sender EmailSender) { d.email = sender }

// SetTelegram wires the Telegram channel; nil leaves it disabled.
func (d *Dispatcher) SetTelegram(sender TelegramSender) { d.telegram = sender }

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (d *Dispatcher) Notify() {
	select {
	case d.notifyCh <- struct{}{}:
	default:
		// Channel already has a pending notification, skip
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	log.Println("Dispatcher started")
	ticker := time.NewTicker(d.checkInterval)
	defer ticker.Stop()

	// Wait a bit for migrations to complete before first check
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	d.check(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Dispatcher stopped")
			return
		case <-ticker.C:
			d.check(ctx)
		case <-d.notifyCh:
			log.Println("Dispatcher triggered by notification")
			d.check(ctx)
		}
	}
}

func (d *Dispatcher) check(ctx context.Context) {
	d.drainRegenQueue(ctx)
	d.dispatchDue(ctx)
}

func (d *Dispatcher) drainRegenQueue(ctx context.Context) {
	if d.regen == nil || d.refresher == nil {
		return
	}
	requests, err := d.regen.DequeueRegenerate(ctx, regenBatchSize)
	if err != nil {
		log.Printf("Failed to dequeue regeneration requests: %v", err)
		return
	}
	for _, req := range requests {
		err := d.refresher.Refresh(ctx, req.ConditionID, req.SuppressOverdue)
		if err != nil && !errors.Is(err, schedule.ErrRefreshThrottled) {
			log.Printf("Failed to regenerate schedule for condition %s: %v", req.ConditionID, err)
		}
	}
}

func (d *Dispatcher) dispatchDue(ctx context.Context) {
	now := d.now()
	events, err := d.events.DueEvents(ctx, now)
	if err != nil {
		log.Printf("Failed to get due events: %v", err)
		return
	}

	for _, ev := range events {
		// An event past due before it was even written comes from an edit or
		// arm refresh; firing it now would notify retroactively.
		if ev.SuppressOverdue && ev.ScheduledAt.Before(ev.CreatedAt) {
			if err := d.events.MarkEventObsolete(ctx, ev.EventID); err != nil {
				log.Printf("Failed to retire suppressed event %d: %v", ev.EventID, err)
			}
			continue
		}

		if overdue := now.Sub(ev.ScheduledAt); overdue > time.Hour {
			log.Printf("Event %d for message %s is %s overdue", ev.EventID, ev.MessageID, format.Countdown(overdue))
		}

		msg, err := d.messages.GetByID(ctx, ev.MessageID)
		if err != nil {
			log.Printf("Failed to load message %s for event %d: %v", ev.MessageID, ev.EventID, err)
			d.events.MarkFailed(ctx, ev.EventID, "load message: "+err.Error())
			continue
		}

		if err := d.deliver(ctx, ev, msg, now); err != nil {
			log.Printf("Failed to deliver event %d (%s): %v", ev.EventID, ev.Type, err)
			d.events.MarkFailed(ctx, ev.EventID, err.Error())
			continue
		}

		if err := d.events.MarkSent(ctx, ev.EventID, now); err != nil {
			log.Printf("Failed to mark event %d sent: %v", ev.EventID, err)
			continue
		}
		log.Printf("Dispatched %s event %d for message %s (priority %s)", ev.Type, ev.EventID, ev.MessageID, ev.Priority)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev *models.ReminderEvent, msg *models.Message, now time.Time) error {
	switch ev.Type {
	case models.EventFinalDelivery:
		if d.email == nil || msg.RecipientEmail == "" {
			return errors.New("no recipient channel configured")
		}
		subject := msg.Title
		if subject == "" {
			subject = "A message has been delivered to you"
		}
		return d.email.Send(ctx, msg.RecipientEmail, subject, msg.Body)

	case models.EventReminder:
		subject := fmt.Sprintf("Check-in reminder: %q", msg.Title)
		body := fmt.Sprintf("Your message %q is still armed. Check in to keep it on hold.", msg.Title)
		if ev.ScheduledAt.Before(now) {
			body = fmt.Sprintf("Your message %q was due for a reminder %s. Check in to keep it on hold.",
				msg.Title, format.RelativeDeadline(ev.ScheduledAt, now))
		}

		var sent bool
		var firstErr error
		if d.telegram != nil && msg.OwnerChatID != nil {
			if err := d.telegram.Send(ctx, *msg.OwnerChatID, subject+"\n\n"+body); err != nil {
				firstErr = err
			} else {
				sent = true
			}
		}
		if d.email != nil && msg.OwnerEmail != "" {
			if err := d.email.Send(ctx, msg.OwnerEmail, subject, body); err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else {
				sent = true
			}
		}
		if sent {
			return nil
		}
		if firstErr != nil {
			return firstErr
		}
		return errors.New("no owner channel configured")

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

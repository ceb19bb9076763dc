package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/models"
)

type fakeEventStore struct {
	due       []*models.ReminderEvent
	sent      []int64
	failed    map[int64]string
	obsoleted []int64
}

func (s *fakeEventStore) DueEvents(_ context.Context, until time.Time) ([]*models.ReminderEvent, error) {
	var out []*models.ReminderEvent
	for _, ev := range s.due {
		if !ev.ScheduledAt.After(until) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fakeEventStore) MarkSent(_ context.Context, eventID int64, _ time.Time) error {
	s.sent = append(s.sent, eventID)
	return nil
}

func (s *fakeEventStore) MarkFailed(_ context.Context, eventID int64, reason string) error {
	if s.failed == nil {
		s.failed = make(map[int64]string)
	}
	s.failed[eventID] = reason
	return nil
}

func (s *fakeEventStore) MarkEventObsolete(_ context.Context, eventID int64) error {
	s.obsoleted = append(s.obsoleted, eventID)
	return nil
}

type fakeMessageStore struct {
	messages map[uuid.UUID]*models.Message
}

func (s *fakeMessageStore) GetByID(_ context.Context, messageID uuid.UUID) (*models.Message, error) {
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

type sentEmail struct {
	to      string
	subject string
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject})
	return nil
}

type fakeTelegram struct {
	chatIDs []int64
	err     error
}

func (f *fakeTelegram) Send(_ context.Context, chatID int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.chatIDs = append(f.chatIDs, chatID)
	return nil
}

type regenCall struct {
	conditionID uuid.UUID
	suppress    bool
}

type fakeRefresher struct {
	calls []regenCall
}

func (f *fakeRefresher) Refresh(_ context.Context, conditionID uuid.UUID, suppress bool) error {
	f.calls = append(f.calls, regenCall{conditionID: conditionID, suppress: suppress})
	return nil
}

type fakeRegenSource struct {
	requests []*models.RegenRequest
}

func (f *fakeRegenSource) DequeueRegenerate(_ context.Context, _ int) ([]*models.RegenRequest, error) {
	out := f.requests
	f.requests = nil
	return out, nil
}

func testMessage() *models.Message {
	chatID := int64(4242)
	return &models.Message{
		MessageID:      uuid.New(),
		Title:          "If you are reading this",
		Body:           "The vault key is under the mat.",
		OwnerEmail:     "owner@example.com",
		OwnerChatID:    &chatID,
		RecipientEmail: "recipient@example.com",
	}
}

func dueEvent(msg *models.Message, typ models.EventType) *models.ReminderEvent {
	now := time.Now()
	return &models.ReminderEvent{
		EventID:     1,
		MessageID:   msg.MessageID,
		ConditionID: uuid.New(),
		ScheduledAt: now.Add(-time.Minute),
		Type:        typ,
		Priority:    models.PriorityHigh,
		Status:      models.EventPending,
		CreatedAt:   now.Add(-time.Hour),
	}
}

func newTestDispatcher(events *fakeEventStore, messages *fakeMessageStore) *Dispatcher {
	return New(events, messages, nil, nil)
}

func TestDispatchReminderToOwner(t *testing.T) {
	msg := testMessage()
	events := &fakeEventStore{due: []*models.ReminderEvent{dueEvent(msg, models.EventReminder)}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})
	email := &fakeEmail{}
	telegram := &fakeTelegram{}
	d.SetEmail(email)
	d.SetTelegram(telegram)

	d.check(context.Background())

	if len(email.sent) != 1 || email.sent[0].to != msg.OwnerEmail {
		t.Errorf("owner email not sent: %+v", email.sent)
	}
	if len(telegram.chatIDs) != 1 || telegram.chatIDs[0] != *msg.OwnerChatID {
		t.Errorf("owner telegram not sent: %v", telegram.chatIDs)
	}
	if len(events.sent) != 1 {
		t.Errorf("event not marked sent: %v", events.sent)
	}
}

func TestDispatchFinalDeliveryToRecipient(t *testing.T) {
	msg := testMessage()
	events := &fakeEventStore{due: []*models.ReminderEvent{dueEvent(msg, models.EventFinalDelivery)}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})
	email := &fakeEmail{}
	telegram := &fakeTelegram{}
	d.SetEmail(email)
	d.SetTelegram(telegram)

	d.check(context.Background())

	if len(email.sent) != 1 || email.sent[0].to != msg.RecipientEmail {
		t.Errorf("final delivery should go to the recipient: %+v", email.sent)
	}
	if len(telegram.chatIDs) != 0 {
		t.Errorf("final delivery must not ping the owner chat: %v", telegram.chatIDs)
	}
	if len(events.sent) != 1 {
		t.Errorf("event not marked sent: %v", events.sent)
	}
}

func TestDispatchRetiresSuppressedOverdueEvent(t *testing.T) {
	msg := testMessage()
	ev := dueEvent(msg, models.EventReminder)
	// created after its own scheduled time by an edit refresh
	ev.SuppressOverdue = true
	ev.ScheduledAt = ev.CreatedAt.Add(-time.Hour)
	events := &fakeEventStore{due: []*models.ReminderEvent{ev}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})
	email := &fakeEmail{}
	d.SetEmail(email)

	d.check(context.Background())

	if len(email.sent) != 0 {
		t.Errorf("suppressed overdue event was delivered: %+v", email.sent)
	}
	if len(events.obsoleted) != 1 || events.obsoleted[0] != ev.EventID {
		t.Errorf("suppressed overdue event not retired: %v", events.obsoleted)
	}
	if len(events.sent) != 0 || len(events.failed) != 0 {
		t.Error("retired event must not be marked sent or failed")
	}
}

func TestDispatchSuppressedButOnTimeStillFires(t *testing.T) {
	msg := testMessage()
	ev := dueEvent(msg, models.EventReminder)
	// suppressed schedules still fire once their time arrives after creation
	ev.SuppressOverdue = true
	events := &fakeEventStore{due: []*models.ReminderEvent{ev}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})
	email := &fakeEmail{}
	d.SetEmail(email)

	d.check(context.Background())

	if len(email.sent) != 1 {
		t.Errorf("on-time suppressed event should be delivered, got %d sends", len(email.sent))
	}
}

func TestDispatchMarksFailedOnSendError(t *testing.T) {
	msg := testMessage()
	msg.OwnerChatID = nil
	ev := dueEvent(msg, models.EventReminder)
	events := &fakeEventStore{due: []*models.ReminderEvent{ev}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})
	d.SetEmail(&fakeEmail{err: errors.New("smtp down")})

	d.check(context.Background())

	if len(events.sent) != 0 {
		t.Error("failed delivery must not be marked sent")
	}
	if reason := events.failed[ev.EventID]; reason == "" {
		t.Error("failed delivery should record a reason")
	}
}

func TestDispatchNoChannelsConfigured(t *testing.T) {
	msg := testMessage()
	ev := dueEvent(msg, models.EventReminder)
	events := &fakeEventStore{due: []*models.ReminderEvent{ev}}
	d := newTestDispatcher(events, &fakeMessageStore{messages: map[uuid.UUID]*models.Message{msg.MessageID: msg}})

	d.check(context.Background())

	if reason := events.failed[ev.EventID]; reason == "" {
		t.Error("delivery without channels should be marked failed")
	}
}

func TestDispatchDrainsRegenQueue(t *testing.T) {
	conditionID := uuid.New()
	regen := &fakeRegenSource{requests: []*models.RegenRequest{{
		RequestID:       1,
		MessageID:       uuid.New(),
		ConditionID:     conditionID,
		SuppressOverdue: true,
	}}}
	refresher := &fakeRefresher{}
	d := New(&fakeEventStore{}, &fakeMessageStore{}, regen, refresher)

	d.check(context.Background())

	if len(refresher.calls) != 1 {
		t.Fatalf("refresher called %d times, want 1", len(refresher.calls))
	}
	call := refresher.calls[0]
	if call.conditionID != conditionID || !call.suppress {
		t.Errorf("refresh call = %+v, want condition %s with suppress", call, conditionID)
	}
}

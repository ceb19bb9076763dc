package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	MessageID      uuid.UUID `json:"message_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	OwnerEmail     string    `json:"owner_email"`
	OwnerChatID    *int64    `json:"owner_chat_id"` // Telegram chat for check-in reminders
	RecipientEmail string    `json:"recipient_email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

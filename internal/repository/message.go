package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/adurso/vigil/internal/database"
	"github.com/adurso/vigil/internal/models"
)

type MessageRepository struct {
	db *database.DB
}

func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO message (title, body, owner_email, owner_chat_id, recipient_email)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING message_id, created_at, updated_at`,
		msg.Title, msg.Body, msg.OwnerEmail, msg.OwnerChatID, msg.RecipientEmail,
	).Scan(&msg.MessageID, &msg.CreatedAt, &msg.UpdatedAt)
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT message_id, title, body, owner_email, owner_chat_id, recipient_email, created_at, updated_at
		 FROM message WHERE message_id = $1`,
		messageID,
	).Scan(&msg.MessageID, &msg.Title, &msg.Body, &msg.OwnerEmail, &msg.OwnerChatID,
		&msg.RecipientEmail, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepository) Update(ctx context.Context, msg *models.Message) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE message SET title = $1, body = $2, owner_email = $3, owner_chat_id = $4,
		 recipient_email = $5, updated_at = now()
		 WHERE message_id = $6`,
		msg.Title, msg.Body, msg.OwnerEmail, msg.OwnerChatID, msg.RecipientEmail, msg.MessageID,
	)
	return err
}

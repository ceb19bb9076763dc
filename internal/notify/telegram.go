package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// TelegramNotifier pings message owners through a Telegram bot.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram api: %w", err)
	}
	return &TelegramNotifier{api: api}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message to %d: %w", chatID, err)
	}
	return nil
}

// CheckInHandler records a check-in for a condition.
type CheckInHandler interface {
	CheckIn(ctx context.Context, conditionID uuid.UUID, note string) error
}

// ListenForCheckIns consumes bot updates and treats "/checkin <condition-id>
// [note]" as a check-in for that condition. Blocks until ctx is done.
func (n *TelegramNotifier) ListenForCheckIns(ctx context.Context, handler CheckInHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := n.api.GetUpdatesChan(u)
	log.Println("Telegram check-in listener started")

	for {
		select {
		case <-ctx.Done():
			n.api.StopReceivingUpdates()
			log.Println("Telegram check-in listener stopped")
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Command() != "checkin" {
				continue
			}
			n.handleCheckIn(ctx, handler, update.Message)
		}
	}
}

func (n *TelegramNotifier) handleCheckIn(ctx context.Context, handler CheckInHandler, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		n.Send(ctx, msg.Chat.ID, "Usage: /checkin <condition-id> [note]")
		return
	}

	conditionID, err := uuid.Parse(args[0])
	if err != nil {
		n.Send(ctx, msg.Chat.ID, "That doesn't look like a condition id")
		return
	}
	note := strings.Join(args[1:], " ")

	if err := handler.CheckIn(ctx, conditionID, note); err != nil {
		log.Printf("Check-in via telegram for condition %s failed: %v", conditionID, err)
		n.Send(ctx, msg.Chat.ID, "Check-in failed, please try again")
		return
	}
	n.Send(ctx, msg.Chat.ID, "✅ Checked in, your deadline has been reset")
}

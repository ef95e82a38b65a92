package telegram

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/oops"
)

// MessageSender is the part of *bot.Bot the sender needs
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Sender delivers digests and replies through the Telegram Bot API
type Sender struct {
	client MessageSender
	mu     sync.RWMutex
}

// NewSender creates a sender; the bot is attached later with SetBot
func NewSender() *Sender {
	return &Sender{}
}

// SetBot sets the Telegram bot instance
func (s *Sender) SetBot(client MessageSender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil {
		return errors.ErrBotNotInitialized
	}

	if _, err := client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		return oops.With("chat_id", chatID, "context", "failed to send telegram message").Wrap(err)
	}
	return nil
}

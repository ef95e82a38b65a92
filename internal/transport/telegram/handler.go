package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	channelDomain "github.com/reshetovitsme/channel-digest/internal/modules/channel/domain"
)

// AnalyzeCommand triggers a manual digest
const AnalyzeCommand = "/analyze"

// ChannelHistory receives channel posts from updates
type ChannelHistory interface {
	Matches(chatID int64, username string) bool
	SaveMessage(message channelDomain.Message)
}

// ReportTrigger runs a manual digest for a sender
type ReportTrigger interface {
	Analyze(ctx context.Context, senderID, chatID int64) error
}

// Handler handles Telegram bot interactions
type Handler struct {
	history ChannelHistory
	trigger ReportTrigger
}

// New creates a new Telegram handler
func New(history ChannelHistory, trigger ReportTrigger) *Handler {
	return &Handler{
		history: history,
		trigger: trigger,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, AnalyzeCommand, bot.MatchTypeExact, h.handleAnalyze)
}

// HandleUpdate processes updates no command handler matched
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.processUpdate(update)
}

func (h *Handler) processUpdate(update *models.Update) {
	switch {
	case update.ChannelPost != nil:
		h.processChannelPost(update.ChannelPost)
	case update.EditedChannelPost != nil:
		h.processChannelPost(update.EditedChannelPost)
	}
}

func (h *Handler) processChannelPost(msg *models.Message) {
	if !h.history.Matches(msg.Chat.ID, msg.Chat.Username) {
		return
	}

	// Media-only posts keep an empty text and are skipped by the collector
	h.history.SaveMessage(channelDomain.Message{
		ID:        int64(msg.ID),
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
		Text:      msg.Text,
	})

	slog.Debug("New message from channel", "channel", msg.Chat.Username, "channel_id", msg.Chat.ID, "message_id", msg.ID)
}

func (h *Handler) handleAnalyze(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.analyze(ctx, update)
}

func (h *Handler) analyze(ctx context.Context, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	if err := h.trigger.Analyze(ctx, userID, chatID); err != nil {
		// The admin gets no reply when the transport fails
		slog.Error("Manual report failed", "user_id", userID, "chat_id", chatID, "error", err)
	}
}

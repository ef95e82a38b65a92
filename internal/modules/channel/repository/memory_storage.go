package repository

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/reshetovitsme/channel-digest/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/oops"
)

// MemoryStorage keeps the most recent posts of one channel as they arrive
// from Telegram updates. Messages are ordered by ID ascending.
type MemoryStorage struct {
	channel  string
	capacity int
	messages []domain.Message
	mu       sync.RWMutex
}

var _ Repository = (*MemoryStorage)(nil)

// NewMemoryStorage creates a history buffer for channel holding at most capacity posts
func NewMemoryStorage(channel string, capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStorage{
		channel:  channel,
		capacity: capacity,
		messages: make([]domain.Message, 0, capacity),
	}
}

// Matches reports whether a chat is the configured channel. The channel may be
// configured either as @username or as a numeric chat id.
func (s *MemoryStorage) Matches(chatID int64, username string) bool {
	if id, err := strconv.ParseInt(s.channel, 10, 64); err == nil {
		return id == chatID
	}
	return username != "" && strings.EqualFold(strings.TrimPrefix(s.channel, "@"), username)
}

// SaveMessage stores a post. A post with a known ID replaces the stored one (edits).
func (s *MemoryStorage) SaveMessage(message domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, found := slices.BinarySearchFunc(s.messages, message.ID, func(m domain.Message, id int64) int {
		switch {
		case m.ID < id:
			return -1
		case m.ID > id:
			return 1
		}
		return 0
	})
	if found {
		s.messages[i] = message
		return
	}

	s.messages = slices.Insert(s.messages, i, message)
	if len(s.messages) > s.capacity {
		s.messages = slices.Delete(s.messages, 0, len(s.messages)-s.capacity)
	}
}

// Len returns the number of buffered posts
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *MemoryStorage) History(ctx context.Context, channel string, limit int) iter.Seq2[domain.Message, error] {
	return func(yield func(domain.Message, error) bool) {
		if channel != s.channel {
			yield(domain.Message{}, oops.With("channel", channel).Wrap(errors.ErrChannelNotFound))
			return
		}

		s.mu.RLock()
		snapshot := slices.Clone(s.messages)
		s.mu.RUnlock()

		count := 0
		for i := len(snapshot) - 1; i >= 0 && count < limit; i-- {
			if err := ctx.Err(); err != nil {
				yield(domain.Message{}, oops.With("channel", channel).Wrap(err))
				return
			}
			if !yield(snapshot[i], nil) {
				return
			}
			count++
		}
	}
}

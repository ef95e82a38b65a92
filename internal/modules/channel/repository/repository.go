package repository

import (
	"context"
	"iter"

	"github.com/reshetovitsme/channel-digest/internal/modules/channel/domain"
)

// Repository is the channel history the collector reads from.
// History yields at most limit messages, most recent first.
type Repository interface {
	History(ctx context.Context, channel string, limit int) iter.Seq2[domain.Message, error]
}

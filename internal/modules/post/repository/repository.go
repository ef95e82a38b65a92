package repository

import (
	"time"

	"github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
)

// Repository is the deduplication ledger of analyzed posts.
// Presence of an ID is the only dedup signal; recorded posts are never modified.
type Repository interface {
	Contains(id int64) bool
	// Record inserts stats and fails with ErrPostAlreadyRecorded if the ID is already present.
	Record(stats domain.PostStats) error
	GetRecent(limit int) []domain.PostStats
	Len() int
	PruneBefore(cutoff time.Time) int
}

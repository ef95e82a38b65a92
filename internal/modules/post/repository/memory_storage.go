package repository

import (
	"slices"
	"sync"
	"time"

	"github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// MemoryStorage implements Repository in process memory
type MemoryStorage struct {
	posts map[int64]domain.PostStats
	mu    sync.RWMutex
}

// NewMemoryStorage creates an empty ledger
func NewMemoryStorage() Repository {
	return &MemoryStorage{posts: make(map[int64]domain.PostStats)}
}

func (s *MemoryStorage) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.posts[id]
	return ok
}

func (s *MemoryStorage) Record(stats domain.PostStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[stats.ID]; ok {
		return oops.With("post_id", stats.ID).Wrap(errors.ErrPostAlreadyRecorded)
	}
	s.posts[stats.ID] = stats
	return nil
}

func (s *MemoryStorage) GetRecent(limit int) []domain.PostStats {
	s.mu.RLock()
	posts := lo.Values(s.posts)
	s.mu.RUnlock()

	slices.SortFunc(posts, func(a, b domain.PostStats) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// PruneBefore drops posts timestamped before cutoff and returns how many were removed
func (s *MemoryStorage) PruneBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, post := range s.posts {
		if post.Timestamp.Before(cutoff) {
			delete(s.posts, id)
			removed++
		}
	}
	return removed
}

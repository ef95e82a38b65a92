package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	channelRepo "github.com/reshetovitsme/channel-digest/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-digest/internal/modules/post/analyzer"
	"github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	postRepo "github.com/reshetovitsme/channel-digest/internal/modules/post/repository"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/oops"
)

// Service pulls recent channel history, skips posts already in the ledger,
// analyzes the rest and records them.
type Service struct {
	cfg    *config.Config
	source channelRepo.Repository
	ledger postRepo.Repository
	now    func() time.Time
}

// New creates a new collector. A nil now defaults to time.Now.
func New(cfg *config.Config, source channelRepo.Repository, ledger postRepo.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		cfg:    cfg,
		source: source,
		ledger: ledger,
		now:    now,
	}
}

// Collect returns the posts newer than the recency window that were not seen
// by any earlier call, in the order the channel history yielded them.
// Nothing is recorded when reading the history fails.
func (s *Service) Collect(ctx context.Context) ([]domain.PostStats, error) {
	now := s.now()
	cutoff := now.Add(-s.cfg.RecencyWindow)

	var candidates []domain.PostStats
	scanned := 0
	for msg, err := range s.source.History(ctx, s.cfg.ChannelID, s.cfg.HistoryPageSize) {
		if err != nil {
			return nil, oops.With("channel", s.cfg.ChannelID, "context", "failed to read channel history").Wrap(err)
		}
		scanned++

		if msg.Timestamp.IsZero() {
			continue
		}
		// History is newest first, nothing past the cutoff can qualify
		if msg.Timestamp.Before(cutoff) {
			break
		}
		if msg.Text == "" || s.ledger.Contains(msg.ID) {
			continue
		}

		candidates = append(candidates, domain.PostStats{
			TextStats: analyzer.Analyze(msg.Text),
			ID:        msg.ID,
			Timestamp: msg.Timestamp.UTC(),
			RawText:   msg.Text,
			Views:     max(msg.Views, 0),
		})
	}

	posts := make([]domain.PostStats, 0, len(candidates))
	for _, stats := range candidates {
		if err := s.ledger.Record(stats); err != nil {
			// A concurrent collection recorded it first
			if stderrors.Is(err, errors.ErrPostAlreadyRecorded) {
				continue
			}
			return nil, oops.With("post_id", stats.ID, "context", "failed to record post").Wrap(err)
		}
		posts = append(posts, stats)
	}

	if s.cfg.LedgerRetention > 0 {
		retention := max(s.cfg.LedgerRetention, s.cfg.RecencyWindow)
		if pruned := s.ledger.PruneBefore(now.Add(-retention)); pruned > 0 {
			slog.Debug("Pruned ledger", "removed", pruned, "retention", retention)
		}
	}

	slog.Debug("Collected channel posts", "channel", s.cfg.ChannelID, "scanned", scanned, "new", len(posts))

	return posts, nil
}

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	postDomain "github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

const (
	AccessDeniedText = "Нет доступа."
	RateLimitedText  = "Слишком часто, попробуйте позже."

	manualBurst = 3
)

// Collector returns the posts not reported yet
type Collector interface {
	Collect(ctx context.Context) ([]postDomain.PostStats, error)
}

// ReportBuilder renders a digest
type ReportBuilder interface {
	Build(posts []postDomain.PostStats) string
}

// MessageSink delivers text to a chat
type MessageSink interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Scheduler runs collect, build and send on an admin command and once a day
type Scheduler struct {
	cfg       *config.Config
	location  *time.Location
	collector Collector
	builder   ReportBuilder
	sink      MessageSink
	clock     Clock
	limiter   *rate.Limiter

	nextRun time.Time
	mu      sync.RWMutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new scheduler. A nil clock defaults to the system clock.
func New(cfg *config.Config, collector Collector, builder ReportBuilder, sink MessageSink, clock Clock) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock()
	}

	limit := rate.Inf
	if cfg.ManualRateInterval > 0 {
		limit = rate.Every(cfg.ManualRateInterval)
	}

	return &Scheduler{
		cfg:       cfg,
		location:  loc,
		collector: collector,
		builder:   builder,
		sink:      sink,
		clock:     clock,
		limiter:   rate.NewLimiter(limit, manualBurst),
	}, nil
}

// Start launches the daily report loop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.dailyLoop(ctx)
}

// Stop stops the daily loop and waits for it to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// NextRunAt returns the time the daily report is scheduled for, zero if the loop is not running
func (s *Scheduler) NextRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRun
}

// Analyze handles a manual report request from senderID, replying into chatID.
// Requests from anyone but the admin are answered with a denial and collect nothing.
func (s *Scheduler) Analyze(ctx context.Context, senderID, chatID int64) error {
	if senderID != s.cfg.AdminUserID {
		slog.Warn("Report request denied", "user_id", senderID, "error", errors.ErrUnauthorized)
		return s.reply(ctx, chatID, AccessDeniedText)
	}

	if !s.limiter.Allow() {
		slog.Warn("Report request throttled", "user_id", senderID, "error", errors.ErrRateLimited)
		return s.reply(ctx, chatID, RateLimitedText)
	}

	return s.run(ctx, "manual", chatID)
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	defer s.wg.Done()

	var last time.Time
	for {
		now := s.clock.Now()
		// Never fire twice for the same slot if the clock lags behind the target
		if now.Before(last) {
			now = last
		}
		target := NextRun(now, s.cfg.ReportHour, s.cfg.ReportMinute, s.location)

		s.mu.Lock()
		s.nextRun = target
		s.mu.Unlock()

		slog.Info("Next daily report scheduled", "at", target)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(max(target.Sub(now), 0)):
		}
		last = target

		if err := s.run(ctx, "daily", s.cfg.AdminUserID); err != nil {
			slog.Error("Daily report failed", "error", err)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, trigger string, chatID int64) error {
	logger := slog.With("run_id", uuid.NewString(), "trigger", trigger)
	started := s.clock.Now()

	posts, err := s.collector.Collect(ctx)
	if err != nil {
		return oops.With("trigger", trigger, "context", "failed to collect posts").Wrap(err)
	}

	report := s.builder.Build(posts)
	if err := s.sink.Send(ctx, chatID, report); err != nil {
		return oops.With("trigger", trigger, "chat_id", chatID, "context", "failed to send report").Wrap(err)
	}

	logger.Info("Report sent", "chat_id", chatID, "posts", len(posts), "took", s.clock.Now().Sub(started))
	return nil
}

func (s *Scheduler) reply(ctx context.Context, chatID int64, text string) error {
	if err := s.sink.Send(ctx, chatID, text); err != nil {
		return oops.With("chat_id", chatID, "context", "failed to send reply").Wrap(err)
	}
	return nil
}

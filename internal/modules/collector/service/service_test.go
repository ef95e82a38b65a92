package service

import (
	"context"
	stderrors "errors"
	"iter"
	"testing"
	"time"

	channelDomain "github.com/reshetovitsme/channel-digest/internal/modules/channel/domain"
	postDomain "github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	postRepo "github.com/reshetovitsme/channel-digest/internal/modules/post/repository"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	messages []channelDomain.Message
	failAt   int
	err      error
	calls    int
	limits   []int
	yielded  int
}

func (f *fakeSource) History(ctx context.Context, channel string, limit int) iter.Seq2[channelDomain.Message, error] {
	f.calls++
	f.limits = append(f.limits, limit)
	return func(yield func(channelDomain.Message, error) bool) {
		for i, msg := range f.messages {
			if i >= limit {
				return
			}
			if f.err != nil && i == f.failAt {
				yield(channelDomain.Message{}, f.err)
				return
			}
			f.yielded++
			if !yield(msg, nil) {
				return
			}
		}
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ChannelID:       "@cats",
		HistoryPageSize: 100,
		RecencyWindow:   24 * time.Hour,
	}
}

func newCollector(cfg *config.Config, source *fakeSource) (*Service, postRepo.Repository) {
	ledger := postRepo.NewMemoryStorage()
	return New(cfg, source, ledger, func() time.Time { return now }), ledger
}

func TestCollectAnalyzesNewPosts(t *testing.T) {
	source := &fakeSource{messages: []channelDomain.Message{
		{ID: 3, Timestamp: now.Add(-time.Hour), Text: "новый пост 🐱 https://t.me/x #cats", Views: 120},
		{ID: 2, Timestamp: now.Add(-2 * time.Hour), Text: "second post"},
	}}
	collector, ledger := newCollector(testConfig(), source)

	posts, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, int64(3), first.ID)
	assert.Equal(t, int64(120), first.Views)
	assert.Equal(t, "новый пост 🐱 https://t.me/x #cats", first.RawText)
	assert.Equal(t, 5, first.WordCount)
	assert.Equal(t, 1, first.EmojiCount)
	assert.Equal(t, 1, first.LinkCount)
	assert.Equal(t, 1, first.HashtagCount)

	assert.Equal(t, int64(2), posts[1].ID)
	assert.Equal(t, int64(0), posts[1].Views)

	assert.True(t, ledger.Contains(2))
	assert.True(t, ledger.Contains(3))
	assert.Equal(t, []int{100}, source.limits)
}

func TestCollectIsIdempotent(t *testing.T) {
	source := &fakeSource{messages: []channelDomain.Message{
		{ID: 1, Timestamp: now.Add(-time.Minute), Text: "hello"},
	}}
	collector, _ := newCollector(testConfig(), source)

	first, err := collector.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := collector.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 2, source.calls)
}

func TestCollectRecencyBoundary(t *testing.T) {
	source := &fakeSource{messages: []channelDomain.Message{
		{ID: 2, Timestamp: now.Add(-24*time.Hour + time.Second), Text: "inside"},
		{ID: 1, Timestamp: now.Add(-24*time.Hour - time.Second), Text: "outside"},
	}}
	collector, ledger := newCollector(testConfig(), source)

	posts, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(2), posts[0].ID)
	assert.False(t, ledger.Contains(1))
}

func TestCollectStopsAtCutoff(t *testing.T) {
	source := &fakeSource{messages: []channelDomain.Message{
		{ID: 5, Timestamp: now.Add(-time.Hour), Text: "fresh"},
		{ID: 4, Timestamp: now.Add(-48 * time.Hour), Text: "stale"},
		{ID: 3, Timestamp: now.Add(-2 * time.Hour), Text: "out of order"},
	}}
	collector, _ := newCollector(testConfig(), source)

	posts, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(5), posts[0].ID)
	assert.Equal(t, 2, source.yielded)
}

func TestCollectSkipsMalformedAndKnown(t *testing.T) {
	source := &fakeSource{messages: []channelDomain.Message{
		{ID: 6, Timestamp: now.Add(-time.Minute), Text: ""},
		{ID: 5, Text: "no timestamp"},
		{ID: 4, Timestamp: now.Add(-2 * time.Minute), Text: "known"},
		{ID: 3, Timestamp: now.Add(-3 * time.Minute), Text: "fresh"},
	}}
	collector, ledger := newCollector(testConfig(), source)
	require.NoError(t, ledger.Record(postDomainStats(4)))

	posts, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(3), posts[0].ID)
	assert.False(t, ledger.Contains(6))
	assert.False(t, ledger.Contains(5))
}

func TestCollectSourceFailureRecordsNothing(t *testing.T) {
	boom := stderrors.New("telegram unavailable")
	source := &fakeSource{
		messages: []channelDomain.Message{
			{ID: 2, Timestamp: now.Add(-time.Minute), Text: "first"},
			{ID: 1, Timestamp: now.Add(-2 * time.Minute), Text: "second"},
		},
		failAt: 1,
		err:    boom,
	}
	collector, ledger := newCollector(testConfig(), source)

	posts, err := collector.Collect(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, posts)
	assert.Equal(t, 0, ledger.Len())

	source.err = nil
	posts, err = collector.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestCollectPrunesWithRetention(t *testing.T) {
	cfg := testConfig()
	cfg.LedgerRetention = time.Hour // raised to the recency window
	source := &fakeSource{}
	collector, ledger := newCollector(cfg, source)

	old := postDomainStats(1)
	old.Timestamp = now.Add(-25 * time.Hour)
	recent := postDomainStats(2)
	recent.Timestamp = now.Add(-23 * time.Hour)
	require.NoError(t, ledger.Record(old))
	require.NoError(t, ledger.Record(recent))

	_, err := collector.Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, ledger.Contains(1))
	assert.True(t, ledger.Contains(2))
}

func TestCollectKeepsLedgerWithoutRetention(t *testing.T) {
	collector, ledger := newCollector(testConfig(), &fakeSource{})

	old := postDomainStats(1)
	old.Timestamp = now.Add(-30 * 24 * time.Hour)
	require.NoError(t, ledger.Record(old))

	_, err := collector.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, ledger.Contains(1))
}

func postDomainStats(id int64) postDomain.PostStats {
	return postDomain.PostStats{ID: id, Timestamp: now.Add(-time.Hour), RawText: "recorded"}
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	postDomain "github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	postRepo "github.com/reshetovitsme/channel-digest/internal/modules/post/repository"
)

const feedLimit = 50

// Service builds an RSS feed of the posts recorded in the ledger
type Service struct {
	channel string
	ledger  postRepo.Repository
}

// New creates a new feed service
func New(channel string, ledger postRepo.Repository) *Service {
	return &Service{
		channel: channel,
		ledger:  ledger,
	}
}

// GenerateFeed generates a feed of the most recently analyzed posts
func (s *Service) GenerateFeed(baseURL string) *feeds.Feed {
	posts := s.ledger.GetRecent(feedLimit)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s - analyzed posts", s.channel),
		Link:        &feeds.Link{Href: baseURL + "/feed.rss"},
		Description: fmt.Sprintf("Text statistics for posts of %s", s.channel),
		Created:     time.Now(),
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].Timestamp
	}

	for _, post := range posts {
		feed.Items = append(feed.Items, s.postToFeedItem(post))
	}
	return feed
}

func (s *Service) postToFeedItem(post postDomain.PostStats) *feeds.Item {
	description := fmt.Sprintf("Views: %d, characters: %d, words: %d, emoji: %d, links: %d, hashtags: %d",
		post.Views, post.Length, post.WordCount, post.EmojiCount, post.LinkCount, post.HashtagCount)

	return &feeds.Item{
		Title:       truncate(post.RawText, 100),
		Link:        &feeds.Link{Href: s.postLink(post.ID)},
		Description: description,
		Content:     post.RawText,
		Created:     post.Timestamp,
		Id:          fmt.Sprintf("%s-%d", s.channel, post.ID),
	}
}

func (s *Service) postLink(id int64) string {
	if strings.HasPrefix(s.channel, "@") {
		return fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(s.channel, "@"), id)
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", strings.TrimPrefix(s.channel, "-100"), id)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

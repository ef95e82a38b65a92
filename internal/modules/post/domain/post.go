package domain

import "time"

// TextStats holds the counters computed from a post's text
type TextStats struct {
	Length       int `json:"length"`
	WordCount    int `json:"word_count"`
	EmojiCount   int `json:"emoji_count"`
	LinkCount    int `json:"link_count"`
	HashtagCount int `json:"hashtag_count"`
}

// PostStats is one analyzed channel post. Once recorded in the ledger it is never changed.
type PostStats struct {
	TextStats
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RawText   string    `json:"raw_text"`
	Views     int64     `json:"views"`
}

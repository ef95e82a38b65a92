package domain

import "time"

// Message is one post read from the channel history
type Message struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Views     int64     `json:"views"`
}

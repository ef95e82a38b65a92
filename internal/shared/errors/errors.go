package errors

import "errors"

var (
	ErrMissingBotToken     = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingChannel      = errors.New("CHANNEL_ID environment variable is required")
	ErrMissingAdmin        = errors.New("ADMIN_USER_ID environment variable is required")
	ErrInvalidReportTime   = errors.New("invalid report time")
	ErrInvalidPageSize     = errors.New("history page size must be positive")
	ErrInvalidWindow       = errors.New("recency window must be positive")
	ErrPostAlreadyRecorded = errors.New("post already recorded")
	ErrUnauthorized        = errors.New("unauthorized user")
	ErrChannelNotFound     = errors.New("channel not found")
	ErrRateLimited         = errors.New("too many manual reports")
	ErrBotNotInitialized   = errors.New("bot not initialized")
)

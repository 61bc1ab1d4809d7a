package constants

import "time"

// Service timeouts
const (
	DefaultTimeout    = 30 * time.Second
	ClassifierTimeout = 5 * time.Second
	GoogleAPITimeout  = 30 * time.Second
)

// Database pool settings
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Redis key prefixes
const (
	RedisKeyOAuthState     = "oauth_state:"
	RedisKeyTokenBlacklist = "token_blacklist:"
)

const (
	OAuthStateTTL = 10 * time.Minute
)

// Conversation memory replay depth
const MessageHistoryLimit = 10

// The dedicated writable calendar this service provisions for every user.
const (
	AssistantCalendarName        = "Calchat Assistant"
	AssistantCalendarTimezone    = "UTC"
	AssistantCalendarDescription = "Events created by the Calchat assistant"
)

// Asynq task types
const (
	TaskSlackNotify = "slack:notify"
)

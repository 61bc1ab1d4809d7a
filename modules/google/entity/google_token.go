package entity

import (
	"time"

	"github.com/google/uuid"

	"calchat/core/entity"
)

// GoogleToken holds a user's Google Calendar credential. At most one live row
// per user; refreshed in place, never deleted by this service.
type GoogleToken struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	entity.BaseEntity
}

func (GoogleToken) TableName() string {
	return "google_tokens"
}

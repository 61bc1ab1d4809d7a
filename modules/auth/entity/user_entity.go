package entity

import (
	"calchat/core/entity"
)

// User is created on signup or on first Google OAuth callback. Soft-deleted
// only, never purged.
type User struct {
	Phone          *string `db:"phone" json:"phone,omitempty"`
	Email          *string `db:"email" json:"email,omitempty"`
	Password       *string `db:"password" json:"-"`
	TimezoneOffset *string `db:"timezone_offset" json:"timezone_offset,omitempty"`
	entity.BaseEntity
}

func (User) TableName() string {
	return "users"
}

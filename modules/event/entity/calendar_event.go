package entity

import (
	"time"

	"github.com/google/uuid"

	"calchat/core/entity"
)

// CalendarEvent mirrors a remote Google Calendar event this service created or
// touched. Rows are soft-deleted so a removed title can no longer resolve as
// an existing event.
type CalendarEvent struct {
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	GoogleEventID string    `db:"google_event_id" json:"google_event_id"`
	Title         string    `db:"title" json:"title"`
	Description   *string   `db:"description" json:"description,omitempty"`
	StartDateTime time.Time `db:"start_date_time" json:"start_date_time"`
	EndDateTime   time.Time `db:"end_date_time" json:"end_date_time"`
	CalendarID    string    `db:"calendar_id" json:"calendar_id"`
	entity.BaseEntity
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

// EventPatch carries the fields an update may overwrite. Nil means "leave as
// is".
type EventPatch struct {
	Title         *string
	Description   *string
	StartDateTime *time.Time
	EndDateTime   *time.Time
}

package dto

import "time"

type CachedEventResponse struct {
	ID            string    `json:"id"`
	GoogleEventID string    `json:"google_event_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	CalendarID    string    `json:"calendar_id"`
}

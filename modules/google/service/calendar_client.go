package service

import (
	"context"

	"google.golang.org/api/calendar/v3"

	"calchat/core/constants"
)

// CalendarAPI is the authenticated handle the action resolver works against.
// All operations are scoped to the assistant's writable calendar.
type CalendarAPI interface {
	CalendarID() string
	ListEvents(ctx context.Context, timeMin, timeMax string) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type calendarClient struct {
	svc        *calendar.Service
	calendarID string
}

func (c *calendarClient) CalendarID() string {
	return c.calendarID
}

func withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.GoogleAPITimeout)
}

func (c *calendarClient) ListEvents(ctx context.Context, timeMin, timeMax string) ([]*calendar.Event, error) {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	call := c.svc.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(100).
		Context(ctx)
	if timeMin != "" {
		call = call.TimeMin(timeMin)
	}
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}

	result, err := call.Do()
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *calendarClient) InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	return c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
}

func (c *calendarClient) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	return c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
}

func (c *calendarClient) UpdateEvent(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	return c.svc.Events.Update(c.calendarID, eventID, event).Context(ctx).Do()
}

func (c *calendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()
	return c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"calchat/core/errors"
	aiDto "calchat/modules/ai/dto"
	authEntity "calchat/modules/auth/entity"
	"calchat/modules/chat/entity"
	eventEntity "calchat/modules/event/entity"
	googleService "calchat/modules/google/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

var fixedNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

type fakeMessageRepo struct {
	messages []entity.Message
	cleared  int
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, *message)
	return message, nil
}

func (f *fakeMessageRepo) GetLastMessages(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Message, error) {
	var out []entity.Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ClearMessages(ctx context.Context, userID uuid.UUID) error {
	f.cleared++
	var kept []entity.Message
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

type fakeEventRepo struct {
	events  []eventEntity.CalendarEvent
	created []eventEntity.CalendarEvent
	updated map[uuid.UUID]eventEntity.EventPatch
	deleted []uuid.UUID
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{updated: make(map[uuid.UUID]eventEntity.EventPatch)}
}

func (f *fakeEventRepo) RecordCreated(ctx context.Context, event *eventEntity.CalendarEvent) (*eventEntity.CalendarEvent, error) {
	event.ID = uuid.New()
	f.created = append(f.created, *event)
	f.events = append(f.events, *event)
	return event, nil
}

func (f *fakeEventRepo) FindByGoogleEventID(ctx context.Context, googleEventID string) (*eventEntity.CalendarEvent, error) {
	for i := range f.events {
		if f.events[i].GoogleEventID == googleEventID && f.events[i].DeletedAt == nil {
			return &f.events[i], nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]eventEntity.CalendarEvent, error) {
	var out []eventEntity.CalendarEvent
	for _, e := range f.events {
		if e.UserID == userID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]eventEntity.CalendarEvent, int, error) {
	all, _ := f.FindByUserID(ctx, userID)
	return all, len(all), nil
}

func (f *fakeEventRepo) SearchByTitle(ctx context.Context, userID uuid.UUID, query string) ([]eventEntity.CalendarEvent, error) {
	var out []eventEntity.CalendarEvent
	for _, e := range f.events {
		if e.UserID != userID || e.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(e.Title), strings.ToLower(strings.TrimSpace(query))) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDateTime.After(out[j].StartDateTime)
	})
	return out, nil
}

func (f *fakeEventRepo) RecordUpdated(ctx context.Context, id uuid.UUID, patch eventEntity.EventPatch) (*eventEntity.CalendarEvent, error) {
	f.updated[id] = patch
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, errors.NewAppError(errors.ErrNotFound, "cached event not found", nil)
}

func (f *fakeEventRepo) RecordDeleted(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	now := time.Now()
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].DeletedAt = &now
		}
	}
	return nil
}

func newUser(id uuid.UUID) *authEntity.User {
	u := &authEntity.User{}
	u.ID = id
	return u
}

type fakeUserRepo struct {
	usersByID    map[uuid.UUID]*authEntity.User
	usersByPhone map[string]*authEntity.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*authEntity.User, error) {
	return f.usersByID[id], nil
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*authEntity.User, error) {
	return f.usersByPhone[phone], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*authEntity.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *authEntity.User) (*authEntity.User, error) {
	user.ID = uuid.New()
	return user, nil
}

func (f *fakeUserRepo) UpdateTimezoneOffset(ctx context.Context, id uuid.UUID, offset string) error {
	return nil
}

type fakeClassifier struct {
	intent  *aiDto.Intent
	raw     string
	err     *errors.AppError
	history []aiDto.ChatMessage
	calls   int
}

func (f *fakeClassifier) GenerateIntent(ctx context.Context, prompt string, history []aiDto.ChatMessage) (*aiDto.Intent, string, *errors.AppError) {
	f.calls++
	f.history = history
	if f.err != nil {
		return nil, "", f.err
	}
	return f.intent, f.raw, nil
}

type fakeCalendar struct {
	calendarID  string
	inserted    []*calendar.Event
	existing    *calendar.Event
	updatedWith *calendar.Event
	deletedIDs  []string
	insertErr   error
	deleteErr   error
}

func (f *fakeCalendar) CalendarID() string { return f.calendarID }

func (f *fakeCalendar) ListEvents(ctx context.Context, timeMin, timeMax string) ([]*calendar.Event, error) {
	return nil, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, event)
	created := *event
	created.Id = "evt-123"
	return &created, nil
}

func (f *fakeCalendar) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	if f.existing != nil {
		return f.existing, nil
	}
	return &calendar.Event{Id: eventID}, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	f.updatedWith = event
	updated := *event
	updated.Id = eventID
	return &updated, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, eventID)
	return nil
}

type fakeTokens struct {
	client *fakeCalendar
	appErr *errors.AppError
	calls  int
}

func (f *fakeTokens) GetAuthenticatedClient(ctx context.Context, userID uuid.UUID) (googleService.CalendarAPI, *errors.AppError) {
	f.calls++
	if f.appErr != nil {
		return nil, f.appErr
	}
	return f.client, nil
}

func (f *fakeTokens) CheckConnection(ctx context.Context, userID uuid.UUID) (bool, *errors.AppError) {
	return f.appErr == nil, nil
}

type fakeNotifier struct {
	actions []string
	titles  []string
}

func (f *fakeNotifier) NotifyEventMutation(ctx context.Context, action, title string) error {
	f.actions = append(f.actions, action)
	f.titles = append(f.titles, title)
	return nil
}

type fixture struct {
	svc        *ChatService
	messages   *fakeMessageRepo
	events     *fakeEventRepo
	users      *fakeUserRepo
	classifier *fakeClassifier
	tokens     *fakeTokens
	calendar   *fakeCalendar
	notifier   *fakeNotifier
	userID     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	userID := uuid.New()
	f := &fixture{
		messages: &fakeMessageRepo{},
		events:   newFakeEventRepo(),
		users: &fakeUserRepo{
			usersByID:    map[uuid.UUID]*authEntity.User{userID: newUser(userID)},
			usersByPhone: map[string]*authEntity.User{},
		},
		classifier: &fakeClassifier{},
		calendar:   &fakeCalendar{calendarID: "cal-1"},
		notifier:   &fakeNotifier{},
		userID:     userID,
	}
	f.tokens = &fakeTokens{client: f.calendar}
	f.svc = NewChatService(f.messages, f.events, f.users, f.classifier, f.tokens, f.notifier)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func createIntent(title, start, end, response string) *aiDto.Intent {
	return &aiDto.Intent{
		Title:         title,
		StartDateTime: start,
		EndDateTime:   end,
		Tool:          aiDto.ToolCalendar,
		Action:        aiDto.ActionCreate,
		Response:      response,
	}
}

func TestHandleTurnCreateSuccess(t *testing.T) {
	f := newFixture(t)
	f.classifier.intent = createIntent("Team Sync", "2025-01-11T15:00:00", "2025-01-11T15:30:00", "Booked your team sync!")
	f.classifier.raw = `{"title":"Team Sync","startDateTime":"2025-01-11T15:00:00","endDateTime":"2025-01-11T15:30:00","tool":"calendar","action":"create","response":"Booked your team sync!"}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync tomorrow at 3pm for 30 minutes")
	require.Nil(t, appErr)

	assert.True(t, result.Success)
	assert.Equal(t, "create", result.Action)
	assert.Equal(t, "Booked your team sync!", result.Message)
	require.NotNil(t, result.EventID)
	assert.Equal(t, "evt-123", *result.EventID)

	require.Len(t, f.events.created, 1)
	cached := f.events.created[0]
	assert.Equal(t, "Team Sync", cached.Title)
	assert.Equal(t, "evt-123", cached.GoogleEventID)
	assert.Equal(t, "cal-1", cached.CalendarID)
	assert.Equal(t, time.Date(2025, 1, 11, 15, 0, 0, 0, time.UTC), cached.StartDateTime)
	assert.Equal(t, time.Date(2025, 1, 11, 15, 30, 0, 0, time.UTC), cached.EndDateTime)

	assert.Empty(t, f.messages.messages, "memory must be cleared after a committed create")
	assert.Equal(t, []string{"create"}, f.notifier.actions)
}

func TestHandleTurnPastStartShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.classifier.intent = createIntent("Team Sync", "2025-01-09T15:00:00", "2025-01-09T15:30:00", "That time is in the past. When should Team Sync start?")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync yesterday at 3pm")
	require.Nil(t, appErr)

	assert.Equal(t, "chat", result.Action)
	assert.Equal(t, "That time is in the past. When should Team Sync start?", result.Message)
	assert.Zero(t, f.tokens.calls, "no remote call on temporal violation")
	assert.Empty(t, f.calendar.inserted)
	assert.Len(t, f.messages.messages, 1, "turn stays in memory for the next exchange")
}

func TestHandleTurnEndBeforeStartShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.classifier.intent = createIntent("Team Sync", "2025-01-11T16:00:00", "2025-01-11T15:00:00", "The end is before the start. How long will Team Sync last?")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync")
	require.Nil(t, appErr)

	assert.Equal(t, "chat", result.Action)
	assert.Zero(t, f.tokens.calls)
}

func TestHandleTurnMissingFieldsShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.classifier.intent = createIntent("Team Sync", "", "", "What time will Team Sync start?")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync")
	require.Nil(t, appErr)

	assert.Equal(t, "chat", result.Action)
	assert.Equal(t, "What time will Team Sync start?", result.Message)
	assert.Zero(t, f.tokens.calls)
}

func TestHandleTurnChatPreservesHistory(t *testing.T) {
	f := newFixture(t)
	raw := `{"title":"","startDateTime":"","endDateTime":"","tool":"none","action":"chat","response":"Hello! How can I help?"}`
	f.messages.messages = append(f.messages.messages, entity.Message{
		UserID:       f.userID,
		Prompt:       "hi",
		Response:     &raw,
		ResponseKind: entity.ResponseKindIntentJSON,
	})

	f.classifier.intent = &aiDto.Intent{Action: aiDto.ActionChat, Tool: aiDto.ToolNone, Response: "I can book meetings for you."}
	f.classifier.raw = `{"title":"","startDateTime":"","endDateTime":"","tool":"none","action":"chat","response":"I can book meetings for you."}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "what can you do?")
	require.Nil(t, appErr)

	assert.True(t, result.Success)
	assert.Equal(t, "chat", result.Action)
	assert.Len(t, f.messages.messages, 2, "prior history retained, new pair appended")
	assert.Zero(t, f.messages.cleared)

	// the prior assistant turn is replayed unwrapped, oldest-first
	require.Len(t, f.classifier.history, 2)
	assert.Equal(t, aiDto.ChatMessage{Role: "user", Content: "hi"}, f.classifier.history[0])
	assert.Equal(t, aiDto.ChatMessage{Role: "assistant", Content: "Hello! How can I help?"}, f.classifier.history[1])
}

func TestHandleTurnDeleteNotFound(t *testing.T) {
	f := newFixture(t)
	f.classifier.intent = &aiDto.Intent{Title: "dentist", Action: aiDto.ActionDelete, Tool: aiDto.ToolCalendar, Response: "Cancelling it."}
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Cancel my dentist appointment")
	require.Nil(t, appErr)

	assert.False(t, result.Success)
	assert.Equal(t, "Provided event not found", result.Message)
	assert.Zero(t, f.tokens.calls, "no remote delete on resolution miss")
	assert.Empty(t, f.calendar.deletedIDs)
}

func TestHandleTurnDeletePicksMostRecentStart(t *testing.T) {
	f := newFixture(t)
	earlier := eventEntity.CalendarEvent{
		UserID:        f.userID,
		GoogleEventID: "evt-early",
		Title:         "Dentist visit",
		StartDateTime: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	earlier.ID = uuid.New()
	later := eventEntity.CalendarEvent{
		UserID:        f.userID,
		GoogleEventID: "evt-late",
		Title:         "Dentist visit",
		StartDateTime: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	later.ID = uuid.New()
	deletedAt := time.Now()
	removed := eventEntity.CalendarEvent{
		UserID:        f.userID,
		GoogleEventID: "evt-gone",
		Title:         "Dentist visit",
		StartDateTime: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	removed.ID = uuid.New()
	removed.DeletedAt = &deletedAt
	f.events.events = []eventEntity.CalendarEvent{earlier, later, removed}

	f.classifier.intent = &aiDto.Intent{Title: "dentist", Action: aiDto.ActionDelete, Tool: aiDto.ToolCalendar, Response: "Done."}
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Cancel my dentist appointment")
	require.Nil(t, appErr)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"evt-late"}, f.calendar.deletedIDs, "latest live start wins; soft-deleted rows never resolve")
	assert.Equal(t, []uuid.UUID{later.ID}, f.events.deleted)
	assert.Empty(t, f.messages.messages)
}

func TestHandleTurnUpdateMergesPatch(t *testing.T) {
	f := newFixture(t)
	target := eventEntity.CalendarEvent{
		UserID:        f.userID,
		GoogleEventID: "evt-7",
		Title:         "Team Sync",
		StartDateTime: time.Date(2025, 1, 11, 15, 0, 0, 0, time.UTC),
	}
	target.ID = uuid.New()
	f.events.events = []eventEntity.CalendarEvent{target}
	f.calendar.existing = &calendar.Event{Id: "evt-7", Summary: "Team Sync", Description: "weekly", Location: "room 4"}

	f.classifier.intent = &aiDto.Intent{
		Title:         "Team Sync",
		StartDateTime: "2025-01-12T16:00:00",
		EndDateTime:   "2025-01-12T16:30:00",
		Tool:          aiDto.ToolCalendar,
		Action:        aiDto.ActionUpdate,
		Response:      "Moved Team Sync to Sunday 4pm.",
	}
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Move team sync to sunday 4pm")
	require.Nil(t, appErr)

	assert.True(t, result.Success)
	require.NotNil(t, f.calendar.updatedWith)
	assert.Equal(t, "Team Sync", f.calendar.updatedWith.Summary)
	assert.Equal(t, "weekly", f.calendar.updatedWith.Description, "untouched remote fields survive the merge")
	assert.Equal(t, "room 4", f.calendar.updatedWith.Location)
	assert.Equal(t, "2025-01-12T16:00:00", f.calendar.updatedWith.Start.DateTime)

	patch, ok := f.events.updated[target.ID]
	require.True(t, ok)
	require.NotNil(t, patch.StartDateTime)
	assert.Equal(t, time.Date(2025, 1, 12, 16, 0, 0, 0, time.UTC), *patch.StartDateTime)
	assert.Empty(t, f.messages.messages)
	assert.Equal(t, []string{"update"}, f.notifier.actions)
}

func TestHandleTurnClassifierFailure(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = errors.NewAppError(errors.ErrClassifier, "classifier returned no content", nil)

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a meeting")
	require.Nil(t, appErr)

	assert.False(t, result.Success)
	assert.Equal(t, "Something went wrong, please try again", result.Message)
	assert.Empty(t, f.messages.messages, "nothing stored when the classifier fails")
}

func TestHandleTurnRemoteFailureLeavesCacheUntouched(t *testing.T) {
	f := newFixture(t)
	f.calendar.insertErr = errors.NewAppError(errors.ErrUpstream, "boom", nil)
	f.classifier.intent = createIntent("Team Sync", "2025-01-11T15:00:00", "2025-01-11T15:30:00", "Booked!")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync")
	require.Nil(t, appErr)

	assert.False(t, result.Success)
	assert.Equal(t, "Something went wrong, please try again", result.Message)
	assert.Empty(t, f.events.created)
	assert.Len(t, f.messages.messages, 1, "memory not cleared on a failed mutation")
	assert.Empty(t, f.notifier.actions)
}

func TestHandleTurnNotConnected(t *testing.T) {
	f := newFixture(t)
	f.tokens.appErr = errors.NewAppError(errors.ErrUnauthorized, "Calendar not connected", nil)
	f.classifier.intent = createIntent("Team Sync", "2025-01-11T15:00:00", "2025-01-11T15:30:00", "Booked!")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "Book a team sync")
	require.Nil(t, appErr)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "reconnect")
}

func TestHandleTurnAppliesUserTimezone(t *testing.T) {
	f := newFixture(t)
	offset := "+05:30"
	f.users.usersByID[f.userID].TimezoneOffset = &offset

	f.classifier.intent = createIntent("Standup", "2025-01-11T09:00:00", "2025-01-11T09:15:00", "Booked!")
	f.classifier.raw = `{}`

	result, appErr := f.svc.HandleTurn(context.Background(), f.userID, "book standup tomorrow 9am")
	require.Nil(t, appErr)
	require.True(t, result.Success)

	require.Len(t, f.calendar.inserted, 1)
	assert.Equal(t, "Asia/Kolkata", f.calendar.inserted[0].Start.TimeZone)
	// 09:00 IST is 03:30 UTC
	require.Len(t, f.events.created, 1)
	assert.Equal(t, time.Date(2025, 1, 11, 3, 30, 0, 0, time.UTC), f.events.created[0].StartDateTime.UTC())
}

func TestHandleTurnByPhoneUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, appErr := f.svc.HandleTurnByPhone(context.Background(), "+15550001111", "hello")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestAssistantTextUnwrapsStoredIntent(t *testing.T) {
	raw := `{"title":"","startDateTime":"","endDateTime":"","tool":"none","action":"chat","response":"What time works?"}`
	m := &entity.Message{Response: &raw, ResponseKind: entity.ResponseKindIntentJSON}
	assert.Equal(t, "What time works?", assistantText(m))

	plain := "just text"
	m = &entity.Message{Response: &plain, ResponseKind: entity.ResponseKindText}
	assert.Equal(t, "just text", assistantText(m))

	broken := "{not json"
	m = &entity.Message{Response: &broken, ResponseKind: entity.ResponseKindIntentJSON}
	assert.Equal(t, "{not json", assistantText(m))
}

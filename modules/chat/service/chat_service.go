package service

import (
	"context"
	"encoding/json"
	"time"

	"calchat/core/constants"
	"calchat/core/errors"
	"calchat/core/logger"
	"calchat/core/utils"
	aiDto "calchat/modules/ai/dto"
	aiService "calchat/modules/ai/service"
	authRepository "calchat/modules/auth/repository"
	"calchat/modules/chat/dto"
	"calchat/modules/chat/entity"
	"calchat/modules/chat/repository"
	eventEntity "calchat/modules/event/entity"
	eventRepository "calchat/modules/event/repository"
	googleService "calchat/modules/google/service"
	notificationService "calchat/modules/notification/service"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

const (
	msgGenericFailure = "Something went wrong, please try again"
	msgEventNotFound  = "Provided event not found"
	msgReconnect      = "Your Google Calendar is not connected. Please reconnect and try again."

	localDateTimeLayout = "2006-01-02T15:04:05"
)

type ChatServiceInterface interface {
	HandleTurn(ctx context.Context, userID uuid.UUID, prompt string) (*dto.ChatResult, *errors.AppError)
	HandleTurnByPhone(ctx context.Context, phone, prompt string) (*dto.ChatResult, *errors.AppError)
}

// ChatService resolves one conversational turn into a calendar mutation or a
// clarifying reply. History feeds the classifier; the classifier's intent is
// validated locally before any remote call; the event cache disambiguates
// title references; memory is cleared only after a committed mutation.
type ChatService struct {
	messages   repository.MessageRepository
	events     eventRepository.EventRepository
	users      authRepository.UserRepository
	classifier aiService.AIServiceInterface
	tokens     googleService.TokenServiceInterface
	notifier   notificationService.NotifierInterface

	now func() time.Time
}

func NewChatService(
	messages repository.MessageRepository,
	events eventRepository.EventRepository,
	users authRepository.UserRepository,
	classifier aiService.AIServiceInterface,
	tokens googleService.TokenServiceInterface,
	notifier notificationService.NotifierInterface,
) *ChatService {
	return &ChatService{
		messages:   messages,
		events:     events,
		users:      users,
		classifier: classifier,
		tokens:     tokens,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (service *ChatService) HandleTurnByPhone(ctx context.Context, phone, prompt string) (*dto.ChatResult, *errors.AppError) {
	if phone == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "phone is required", nil)
	}
	user, err := service.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}
	return service.HandleTurn(ctx, user.ID, prompt)
}

func (service *ChatService) HandleTurn(ctx context.Context, userID uuid.UUID, prompt string) (*dto.ChatResult, *errors.AppError) {
	if prompt == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "prompt is required", nil)
	}

	history := service.loadHistory(ctx, userID)

	intent, raw, appErr := service.classifier.GenerateIntent(ctx, prompt, history)
	if appErr != nil {
		logger.Error("ChatService:HandleTurn:Classify:Error", "error", appErr, "user_id", userID)
		return &dto.ChatResult{Success: false, Action: string(aiDto.ActionChat), Message: msgGenericFailure}, nil
	}

	service.storeTurn(ctx, userID, prompt, raw)

	loc, zoneName := service.resolveUserLocation(ctx, userID)

	// Create and update are only trusted with a complete, sane time window.
	// Anything else falls through to the chat branch so the classifier's own
	// question reaches the user instead of a doomed mutation.
	var start, end time.Time
	if intent.Action == aiDto.ActionCreate || intent.Action == aiDto.ActionUpdate {
		var ok bool
		start, end, ok = service.validateWindow(intent, loc)
		if !ok {
			return &dto.ChatResult{Success: true, Action: string(aiDto.ActionChat), Message: intent.Response}, nil
		}
	}

	switch intent.Action {
	case aiDto.ActionCreate:
		return service.dispatchCreate(ctx, userID, intent, zoneName, loc, start, end), nil
	case aiDto.ActionUpdate:
		return service.dispatchUpdate(ctx, userID, prompt, intent, zoneName, loc, start, end), nil
	case aiDto.ActionDelete:
		return service.dispatchDelete(ctx, userID, prompt, intent), nil
	default:
		return &dto.ChatResult{Success: true, Action: string(aiDto.ActionChat), Message: intent.Response}, nil
	}
}

// loadHistory replays the last stored turns oldest-first. A load failure
// degrades to an empty history rather than failing the turn.
func (service *ChatService) loadHistory(ctx context.Context, userID uuid.UUID) []aiDto.ChatMessage {
	stored, err := service.messages.GetLastMessages(ctx, userID, constants.MessageHistoryLimit)
	if err != nil {
		logger.Error("ChatService:loadHistory:Error", "error", err, "user_id", userID)
		return nil
	}

	history := make([]aiDto.ChatMessage, 0, len(stored)*2)
	for i := len(stored) - 1; i >= 0; i-- {
		m := stored[i]
		history = append(history, aiDto.ChatMessage{Role: aiDto.RoleUser, Content: m.Prompt})
		if m.Response != nil {
			history = append(history, aiDto.ChatMessage{Role: aiDto.RoleAssistant, Content: assistantText(&m)})
		}
	}
	return history
}

// assistantText extracts what the assistant actually said in a prior turn.
// The response kind decides whether to unwrap the stored intent JSON.
func assistantText(m *entity.Message) string {
	if m.Response == nil {
		return ""
	}
	if m.ResponseKind == entity.ResponseKindIntentJSON {
		var intent aiDto.Intent
		if err := json.Unmarshal([]byte(*m.Response), &intent); err == nil && intent.Response != "" {
			return intent.Response
		}
	}
	return *m.Response
}

func (service *ChatService) storeTurn(ctx context.Context, userID uuid.UUID, prompt, raw string) {
	message := &entity.Message{
		UserID:       userID,
		Prompt:       prompt,
		Response:     &raw,
		ResponseKind: entity.ResponseKindIntentJSON,
	}
	if _, err := service.messages.CreateMessage(ctx, message); err != nil {
		logger.Error("ChatService:storeTurn:Error", "error", err, "user_id", userID)
	}
}

func (service *ChatService) resolveUserLocation(ctx context.Context, userID uuid.UUID) (*time.Location, string) {
	offset := ""
	if user, err := service.users.GetByID(ctx, userID); err == nil && user != nil && user.TimezoneOffset != nil {
		offset = *user.TimezoneOffset
	}

	zoneName := utils.ResolveTimezone(offset)
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		logger.Warn("ChatService:resolveUserLocation:LoadLocation:Error", "zone", zoneName, "error", err)
		return time.UTC, "UTC"
	}
	return loc, zoneName
}

// validateWindow checks that title, start and end are present, ordered, and
// strictly in the future relative to request time.
func (service *ChatService) validateWindow(intent *aiDto.Intent, loc *time.Location) (time.Time, time.Time, bool) {
	if intent.Title == "" || intent.StartDateTime == "" || intent.EndDateTime == "" {
		return time.Time{}, time.Time{}, false
	}

	start, err := parseDateTime(intent.StartDateTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDateTime(intent.EndDateTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	if !start.After(service.now()) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// parseDateTime accepts RFC3339 or a naive ISO local datetime interpreted in
// the user's zone.
func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localDateTimeLayout, value, loc)
}

func (service *ChatService) dispatchCreate(ctx context.Context, userID uuid.UUID, intent *aiDto.Intent, zoneName string, loc *time.Location, start, end time.Time) *dto.ChatResult {
	client, appErr := service.tokens.GetAuthenticatedClient(ctx, userID)
	if appErr != nil {
		return service.authFailure(appErr, aiDto.ActionCreate, userID)
	}

	created, err := client.InsertEvent(ctx, &calendar.Event{
		Summary: intent.Title,
		Start:   &calendar.EventDateTime{DateTime: start.In(loc).Format(localDateTimeLayout), TimeZone: zoneName},
		End:     &calendar.EventDateTime{DateTime: end.In(loc).Format(localDateTimeLayout), TimeZone: zoneName},
	})
	if err != nil {
		logger.Error("ChatService:dispatchCreate:InsertEvent:Error", "error", err, "user_id", userID)
		return &dto.ChatResult{Success: false, Action: string(aiDto.ActionCreate), Message: msgGenericFailure}
	}

	_, err = service.events.RecordCreated(ctx, &eventEntity.CalendarEvent{
		UserID:        userID,
		GoogleEventID: created.Id,
		Title:         intent.Title,
		StartDateTime: start.UTC(),
		EndDateTime:   end.UTC(),
		CalendarID:    client.CalendarID(),
	})
	if err != nil {
		logger.Error("ChatService:dispatchCreate:RecordCreated:Error", "error", err, "google_event_id", created.Id)
	}

	service.commitTurn(ctx, userID, aiDto.ActionCreate, intent.Title)
	return &dto.ChatResult{Success: true, Action: string(aiDto.ActionCreate), Message: intent.Response, EventID: &created.Id}
}

func (service *ChatService) dispatchUpdate(ctx context.Context, userID uuid.UUID, prompt string, intent *aiDto.Intent, zoneName string, loc *time.Location, start, end time.Time) *dto.ChatResult {
	target, result := service.resolveTarget(ctx, userID, prompt, intent, aiDto.ActionUpdate)
	if result != nil {
		return result
	}

	client, appErr := service.tokens.GetAuthenticatedClient(ctx, userID)
	if appErr != nil {
		return service.authFailure(appErr, aiDto.ActionUpdate, userID)
	}

	existing, err := client.GetEvent(ctx, target.GoogleEventID)
	if err != nil {
		logger.Error("ChatService:dispatchUpdate:GetEvent:Error", "error", err, "google_event_id", target.GoogleEventID)
		return &dto.ChatResult{Success: false, Action: string(aiDto.ActionUpdate), Message: msgGenericFailure}
	}

	existing.Summary = intent.Title
	existing.Start = &calendar.EventDateTime{DateTime: start.In(loc).Format(localDateTimeLayout), TimeZone: zoneName}
	existing.End = &calendar.EventDateTime{DateTime: end.In(loc).Format(localDateTimeLayout), TimeZone: zoneName}

	updated, err := client.UpdateEvent(ctx, target.GoogleEventID, existing)
	if err != nil {
		logger.Error("ChatService:dispatchUpdate:UpdateEvent:Error", "error", err, "google_event_id", target.GoogleEventID)
		return &dto.ChatResult{Success: false, Action: string(aiDto.ActionUpdate), Message: msgGenericFailure}
	}

	startUTC, endUTC := start.UTC(), end.UTC()
	if _, err := service.events.RecordUpdated(ctx, target.ID, eventEntity.EventPatch{
		Title:         &intent.Title,
		StartDateTime: &startUTC,
		EndDateTime:   &endUTC,
	}); err != nil {
		logger.Error("ChatService:dispatchUpdate:RecordUpdated:Error", "error", err, "id", target.ID)
	}

	service.commitTurn(ctx, userID, aiDto.ActionUpdate, intent.Title)
	return &dto.ChatResult{Success: true, Action: string(aiDto.ActionUpdate), Message: intent.Response, EventID: &updated.Id}
}

func (service *ChatService) dispatchDelete(ctx context.Context, userID uuid.UUID, prompt string, intent *aiDto.Intent) *dto.ChatResult {
	target, result := service.resolveTarget(ctx, userID, prompt, intent, aiDto.ActionDelete)
	if result != nil {
		return result
	}

	client, appErr := service.tokens.GetAuthenticatedClient(ctx, userID)
	if appErr != nil {
		return service.authFailure(appErr, aiDto.ActionDelete, userID)
	}

	if err := client.DeleteEvent(ctx, target.GoogleEventID); err != nil {
		logger.Error("ChatService:dispatchDelete:DeleteEvent:Error", "error", err, "google_event_id", target.GoogleEventID)
		return &dto.ChatResult{Success: false, Action: string(aiDto.ActionDelete), Message: msgGenericFailure}
	}

	if err := service.events.RecordDeleted(ctx, target.ID); err != nil {
		logger.Error("ChatService:dispatchDelete:RecordDeleted:Error", "error", err, "id", target.ID)
	}

	service.commitTurn(ctx, userID, aiDto.ActionDelete, target.Title)
	return &dto.ChatResult{Success: true, Action: string(aiDto.ActionDelete), Message: intent.Response, EventID: &target.GoogleEventID}
}

// resolveTarget maps a fuzzy title reference to exactly one cached event.
// Most recent start wins among multiple matches. A miss is a user-visible
// failure with no remote call.
func (service *ChatService) resolveTarget(ctx context.Context, userID uuid.UUID, prompt string, intent *aiDto.Intent, action aiDto.Action) (*eventEntity.CalendarEvent, *dto.ChatResult) {
	query := intent.Title
	if query == "" {
		query = prompt
	}

	matches, err := service.events.SearchByTitle(ctx, userID, query)
	if err != nil {
		logger.Error("ChatService:resolveTarget:SearchByTitle:Error", "error", err, "user_id", userID)
		return nil, &dto.ChatResult{Success: false, Action: string(action), Message: msgGenericFailure}
	}
	if len(matches) == 0 {
		return nil, &dto.ChatResult{Success: false, Action: string(action), Message: msgEventNotFound}
	}
	return &matches[0], nil
}

// commitTurn runs the post-mutation side effects: fresh conversational
// context and the Slack announcement. Neither failure undoes the mutation.
func (service *ChatService) commitTurn(ctx context.Context, userID uuid.UUID, action aiDto.Action, title string) {
	if err := service.messages.ClearMessages(ctx, userID); err != nil {
		logger.Error("ChatService:commitTurn:ClearMessages:Error", "error", err, "user_id", userID)
	}
	if service.notifier != nil {
		if err := service.notifier.NotifyEventMutation(ctx, string(action), title); err != nil {
			logger.Error("ChatService:commitTurn:Notify:Error", "error", err, "user_id", userID)
		}
	}
}

func (service *ChatService) authFailure(appErr *errors.AppError, action aiDto.Action, userID uuid.UUID) *dto.ChatResult {
	logger.Error("ChatService:authFailure", "code", appErr.Code, "error", appErr, "user_id", userID)
	if appErr.Code == errors.ErrUnauthorized || appErr.Code == errors.ErrUpstreamAuth {
		return &dto.ChatResult{Success: false, Action: string(action), Message: msgReconnect}
	}
	return &dto.ChatResult{Success: false, Action: string(action), Message: msgGenericFailure}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calchat/core/config"
	"calchat/core/constants"
	"calchat/core/errors"
	"calchat/core/logger"
	"calchat/modules/google/entity"
	"calchat/modules/google/repository"
)

type TokenServiceInterface interface {
	GetAuthenticatedClient(ctx context.Context, userID uuid.UUID) (CalendarAPI, *errors.AppError)
	CheckConnection(ctx context.Context, userID uuid.UUID) (bool, *errors.AppError)
}

// TokenService owns the calendar credential lifecycle: expiry detection,
// refresh, persistence, and resolution of the assistant's writable calendar.
// A fresh provider client is built from the persisted credential on every
// call; nothing mutable is shared across requests.
type TokenService struct {
	repo repository.TokenRepository

	// overridable for tests
	now           func() time.Time
	refresh       func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	clientOptions []option.ClientOption
}

func NewTokenService(repo repository.TokenRepository) *TokenService {
	return &TokenService{
		repo:    repo,
		now:     time.Now,
		refresh: refreshGoogleToken,
	}
}

func (service *TokenService) CheckConnection(ctx context.Context, userID uuid.UUID) (bool, *errors.AppError) {
	token, err := service.repo.FindByUserID(ctx, userID)
	if err != nil {
		return false, errors.NewAppError(errors.ErrInternalServer, "failed to look up credential", err)
	}
	return token != nil, nil
}

// GetAuthenticatedClient returns a calendar client for the user, refreshing
// the credential first when it has expired.
func (service *TokenService) GetAuthenticatedClient(ctx context.Context, userID uuid.UUID) (CalendarAPI, *errors.AppError) {
	token, err := service.repo.FindByUserID(ctx, userID)
	if err != nil {
		logger.Error("TokenService:GetAuthenticatedClient:FindByUserID:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up credential", err)
	}
	if token == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Calendar not connected", nil)
	}

	if !service.now().Before(token.ExpiresAt) {
		if appErr := service.refreshCredential(ctx, token); appErr != nil {
			return nil, appErr
		}
	}

	svc, err := service.newCalendarService(ctx, token)
	if err != nil {
		logger.Error("TokenService:GetAuthenticatedClient:NewService:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to build calendar client", err)
	}

	calendarID, err := service.resolveWritableCalendar(ctx, svc)
	if err != nil {
		logger.Error("TokenService:GetAuthenticatedClient:ResolveCalendar:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to resolve assistant calendar", err)
	}

	return &calendarClient{svc: svc, calendarID: calendarID}, nil
}

// refreshCredential runs the refresh cycle and persists the outcome. Refresh
// token and expiry are only overwritten when the provider returned new ones.
func (service *TokenService) refreshCredential(ctx context.Context, token *entity.GoogleToken) *errors.AppError {
	logger.Info("TokenService:refreshCredential:Refreshing", "user_id", token.UserID)

	newToken, err := service.refresh(ctx, token.RefreshToken)
	if err != nil {
		logger.Error("TokenService:refreshCredential:Refresh:Error", "error", err, "user_id", token.UserID)
		return errors.NewAppError(errors.ErrUpstreamAuth, "failed to refresh Google credential", err)
	}

	token.AccessToken = newToken.AccessToken
	if newToken.RefreshToken != "" {
		token.RefreshToken = newToken.RefreshToken
	}
	if !newToken.Expiry.IsZero() {
		token.ExpiresAt = newToken.Expiry
	}

	if err := service.repo.UpdateCredentials(ctx, token); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed credential", err)
	}
	return nil
}

func (service *TokenService) newCalendarService(ctx context.Context, token *entity.GoogleToken) (*calendar.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
	})
	opts := append([]option.ClientOption{option.WithTokenSource(source)}, service.clientOptions...)
	return calendar.NewService(ctx, opts...)
}

// resolveWritableCalendar finds the assistant's dedicated calendar by display
// name, creating it on first use. Two concurrent first-time calls can both
// create one; that race is accepted (see DESIGN.md).
func (service *TokenService) resolveWritableCalendar(ctx context.Context, svc *calendar.Service) (string, error) {
	list, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list calendars: %w", err)
	}

	for _, item := range list.Items {
		if item.Summary == constants.AssistantCalendarName {
			return item.Id, nil
		}
	}

	created, err := svc.Calendars.Insert(&calendar.Calendar{
		Summary:     constants.AssistantCalendarName,
		TimeZone:    constants.AssistantCalendarTimezone,
		Description: constants.AssistantCalendarDescription,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create assistant calendar: %w", err)
	}

	logger.Info("TokenService:resolveWritableCalendar:Created", "calendar_id", created.Id)
	return created.Id, nil
}

func refreshGoogleToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
	}

	source := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return source.Token()
}

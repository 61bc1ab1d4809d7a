package service

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"calchat/core/cache"
	"calchat/core/config"
	"calchat/core/errors"
	"calchat/core/logger"
	"calchat/core/utils"
	authEntity "calchat/modules/auth/entity"
	authRepository "calchat/modules/auth/repository"
	"calchat/modules/google/entity"
	"calchat/modules/google/repository"

	"github.com/google/uuid"
)

var calendarScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
}

type OAuthServiceInterface interface {
	GenerateAuthURL(ctx context.Context) (string, string, *errors.AppError)
	HandleCallback(ctx context.Context, state, code string, userID *uuid.UUID) (*entity.GoogleToken, *errors.AppError)
}

// OAuthService runs the Google consent flow: auth-url generation, code
// exchange, and credential upsert. A user unknown at callback time is created
// from the Google account email.
type OAuthService struct {
	tokenRepo repository.TokenRepository
	userRepo  authRepository.UserRepository
	cache     cache.Cache

	// overridable for tests
	exchange      func(ctx context.Context, code string) (*oauth2.Token, error)
	fetchEmail    func(ctx context.Context, token *oauth2.Token) (string, error)
	clientOptions []option.ClientOption
}

func NewOAuthService(tokenRepo repository.TokenRepository, userRepo authRepository.UserRepository, cache cache.Cache) *OAuthService {
	service := &OAuthService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		cache:     cache,
	}
	service.exchange = service.exchangeCode
	service.fetchEmail = service.fetchAccountEmail
	return service
}

func (service *OAuthService) GenerateAuthURL(ctx context.Context) (string, string, *errors.AppError) {
	oauthConfig, err := buildOAuthConfig()
	if err != nil {
		return "", "", errors.NewAppError(errors.ErrInternalServer, "Google OAuth not configured", err)
	}

	state := utils.GenerateOAuthState()
	if err := service.cache.SaveOAuthState(ctx, state); err != nil {
		logger.Error("OAuthService:GenerateAuthURL:SaveOAuthState:Error", "error", err)
		return "", "", errors.NewAppError(errors.ErrInternalServer, "failed to save OAuth state", err)
	}

	url := oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, state, nil
}

// HandleCallback exchanges the authorization code and upserts the credential.
// With no authenticated user the account email resolves (or creates) one.
func (service *OAuthService) HandleCallback(ctx context.Context, state, code string, userID *uuid.UUID) (*entity.GoogleToken, *errors.AppError) {
	valid, err := service.cache.ConsumeOAuthState(ctx, state)
	if err != nil {
		logger.Error("OAuthService:HandleCallback:ConsumeOAuthState:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to validate OAuth state", err)
	}
	if !valid {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid or expired OAuth state", nil)
	}

	token, err := service.exchange(ctx, code)
	if err != nil {
		logger.Error("OAuthService:HandleCallback:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrUpstreamAuth, "failed to exchange authorization code", err)
	}

	email, err := service.fetchEmail(ctx, token)
	if err != nil {
		logger.Error("OAuthService:HandleCallback:FetchEmail:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to fetch Google account email", err)
	}
	if email == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email not found in Google account", nil)
	}

	resolvedUserID, appErr := service.resolveUser(ctx, userID, email)
	if appErr != nil {
		return nil, appErr
	}

	record := &entity.GoogleToken{
		UserID:       resolvedUserID,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	// Google only returns a refresh token on first consent; keep the stored
	// one on re-connect.
	if record.RefreshToken == "" {
		if existing, err := service.tokenRepo.FindByUserID(ctx, resolvedUserID); err == nil && existing != nil {
			record.RefreshToken = existing.RefreshToken
		}
	}

	saved, err := service.tokenRepo.UpsertForUser(ctx, record)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save credential", err)
	}

	logger.Info("OAuthService:HandleCallback:Connected", "user_id", resolvedUserID, "email", email)
	return saved, nil
}

func (service *OAuthService) resolveUser(ctx context.Context, userID *uuid.UUID, email string) (uuid.UUID, *errors.AppError) {
	if userID != nil {
		return *userID, nil
	}

	user, err := service.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up user", err)
	}
	if user != nil {
		return user.ID, nil
	}

	created, err := service.userRepo.CreateUser(ctx, &authEntity.User{Email: &email})
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInternalServer, "failed to create user", err)
	}
	logger.Info("OAuthService:resolveUser:CreatedUser", "user_id", created.ID, "email", email)
	return created.ID, nil
}

func (service *OAuthService) exchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	oauthConfig, err := buildOAuthConfig()
	if err != nil {
		return nil, err
	}
	return oauthConfig.Exchange(ctx, code)
}

func (service *OAuthService) fetchAccountEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	}, service.clientOptions...)

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", err
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return info.Email, nil
}

func buildOAuthConfig() (*oauth2.Config, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURL:  cfg.GoogleAPI.RedirectURI,
		Scopes:       calendarScopes,
		Endpoint:     googleoauth.Endpoint,
	}, nil
}

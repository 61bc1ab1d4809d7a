package service

import (
	"context"
	"testing"
	"time"

	"calchat/core/config"
	"calchat/core/errors"
	authEntity "calchat/modules/auth/entity"
	"calchat/modules/google/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeStateCache struct {
	states map[string]bool
}

func newFakeStateCache() *fakeStateCache {
	return &fakeStateCache{states: map[string]bool{}}
}

func (f *fakeStateCache) SaveOAuthState(ctx context.Context, state string) error {
	f.states[state] = true
	return nil
}

func (f *fakeStateCache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	ok := f.states[state]
	delete(f.states, state)
	return ok, nil
}

func (f *fakeStateCache) AddToTokenBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return nil
}

func (f *fakeStateCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (f *fakeStateCache) Close() error { return nil }

type fakeOAuthUserRepo struct {
	byEmail map[string]*authEntity.User
	created []*authEntity.User
}

func (f *fakeOAuthUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*authEntity.User, error) {
	return nil, nil
}

func (f *fakeOAuthUserRepo) FindByPhone(ctx context.Context, phone string) (*authEntity.User, error) {
	return nil, nil
}

func (f *fakeOAuthUserRepo) FindByEmail(ctx context.Context, email string) (*authEntity.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeOAuthUserRepo) CreateUser(ctx context.Context, user *authEntity.User) (*authEntity.User, error) {
	user.ID = uuid.New()
	f.created = append(f.created, user)
	return user, nil
}

func (f *fakeOAuthUserRepo) UpdateTimezoneOffset(ctx context.Context, id uuid.UUID, offset string) error {
	return nil
}

func useGoogleConfig(t *testing.T) {
	t.Helper()
	prev, _ := config.GetSafe()
	config.Set(&config.Config{GoogleAPI: config.GoogleAPIConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:7070/api/v1/google/callback",
	}})
	t.Cleanup(func() { config.Set(prev) })
}

func newTestOAuthService(tokenRepo *fakeTokenRepo, userRepo *fakeOAuthUserRepo, stateCache *fakeStateCache) *OAuthService {
	svc := NewOAuthService(tokenRepo, userRepo, stateCache)
	svc.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		}, nil
	}
	svc.fetchEmail = func(ctx context.Context, token *oauth2.Token) (string, error) {
		return "user@example.com", nil
	}
	return svc
}

func TestGenerateAuthURL(t *testing.T) {
	useGoogleConfig(t)
	stateCache := newFakeStateCache()
	svc := NewOAuthService(&fakeTokenRepo{}, &fakeOAuthUserRepo{}, stateCache)

	url, state, appErr := svc.GenerateAuthURL(context.Background())
	require.Nil(t, appErr)

	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "calendar.events")
	assert.Contains(t, url, "state="+state)
	assert.True(t, stateCache.states[state], "state stored for the callback round trip")
}

func TestHandleCallbackCreatesUserByEmail(t *testing.T) {
	useGoogleConfig(t)
	tokenRepo := &fakeTokenRepo{}
	userRepo := &fakeOAuthUserRepo{byEmail: map[string]*authEntity.User{}}
	stateCache := newFakeStateCache()
	stateCache.states["state-1"] = true

	svc := newTestOAuthService(tokenRepo, userRepo, stateCache)

	saved, appErr := svc.HandleCallback(context.Background(), "state-1", "code-1", nil)
	require.Nil(t, appErr)

	require.Len(t, userRepo.created, 1)
	assert.Equal(t, "user@example.com", *userRepo.created[0].Email)
	assert.Equal(t, userRepo.created[0].ID, saved.UserID)
	assert.Equal(t, "access-1", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestHandleCallbackReusesExistingUser(t *testing.T) {
	useGoogleConfig(t)
	email := "user@example.com"
	existing := &authEntity.User{Email: &email}
	existing.ID = uuid.New()

	tokenRepo := &fakeTokenRepo{}
	userRepo := &fakeOAuthUserRepo{byEmail: map[string]*authEntity.User{email: existing}}
	stateCache := newFakeStateCache()
	stateCache.states["state-1"] = true

	svc := newTestOAuthService(tokenRepo, userRepo, stateCache)

	saved, appErr := svc.HandleCallback(context.Background(), "state-1", "code-1", nil)
	require.Nil(t, appErr)
	assert.Empty(t, userRepo.created)
	assert.Equal(t, existing.ID, saved.UserID)
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	useGoogleConfig(t)
	svc := newTestOAuthService(&fakeTokenRepo{}, &fakeOAuthUserRepo{}, newFakeStateCache())

	_, appErr := svc.HandleCallback(context.Background(), "never-saved", "code-1", nil)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestHandleCallbackKeepsStoredRefreshToken(t *testing.T) {
	useGoogleConfig(t)
	userID := uuid.New()
	tokenRepo := &fakeTokenRepo{}
	stateCache := newFakeStateCache()
	stateCache.states["state-1"] = true

	svc := newTestOAuthService(tokenRepo, &fakeOAuthUserRepo{}, stateCache)
	svc.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		// re-consent: Google omits the refresh token
		return &oauth2.Token{AccessToken: "access-2"}, nil
	}

	tokenRepo.token = &entity.GoogleToken{UserID: userID, RefreshToken: "old-refresh"}

	saved, appErr := svc.HandleCallback(context.Background(), "state-1", "code-1", &userID)
	require.Nil(t, appErr)
	assert.Equal(t, "old-refresh", saved.RefreshToken)
}

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"calchat/core/errors"
	"calchat/modules/google/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeTokenRepo struct {
	token       *entity.GoogleToken
	findErr     error
	updated     []*entity.GoogleToken
	updateCalls int
}

func (f *fakeTokenRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.GoogleToken, error) {
	return f.token, f.findErr
}

func (f *fakeTokenRepo) UpsertForUser(ctx context.Context, token *entity.GoogleToken) (*entity.GoogleToken, error) {
	f.token = token
	return token, nil
}

func (f *fakeTokenRepo) UpdateCredentials(ctx context.Context, token *entity.GoogleToken) error {
	f.updateCalls++
	copied := *token
	f.updated = append(f.updated, &copied)
	return nil
}

// calendarAPIServer fakes the two Google endpoints the lifecycle touches.
func calendarAPIServer(t *testing.T, existingCalendars []*calendar.CalendarListEntry) (*httptest.Server, *int) {
	t.Helper()
	inserts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&calendar.CalendarList{Items: existingCalendars})
	})
	mux.HandleFunc("/calendars", func(w http.ResponseWriter, r *http.Request) {
		inserts++
		_ = json.NewEncoder(w).Encode(&calendar.Calendar{Id: "new-cal-id", Summary: "Calchat Assistant"})
	})
	return httptest.NewServer(mux), &inserts
}

func newTestTokenService(repo *fakeTokenRepo, serverURL string) *TokenService {
	svc := NewTokenService(repo)
	svc.clientOptions = []option.ClientOption{option.WithEndpoint(serverURL)}
	return svc
}

func TestGetAuthenticatedClientNoCredential(t *testing.T) {
	svc := NewTokenService(&fakeTokenRepo{})

	_, appErr := svc.GetAuthenticatedClient(context.Background(), uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestGetAuthenticatedClientRefreshesExpiredCredential(t *testing.T) {
	srv, _ := calendarAPIServer(t, []*calendar.CalendarListEntry{
		{Id: "cal-1", Summary: "Calchat Assistant"},
	})
	defer srv.Close()

	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeTokenRepo{token: &entity.GoogleToken{
		UserID:       uuid.New(),
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	}}

	svc := newTestTokenService(repo, srv.URL)
	svc.now = func() time.Time { return now }

	refreshCalls := 0
	svc.refresh = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		refreshCalls++
		assert.Equal(t, "refresh-1", refreshToken)
		return &oauth2.Token{AccessToken: "fresh", Expiry: now.Add(time.Hour)}, nil
	}

	client, appErr := svc.GetAuthenticatedClient(context.Background(), repo.token.UserID)
	require.Nil(t, appErr)
	assert.Equal(t, "cal-1", client.CalendarID())

	assert.Equal(t, 1, refreshCalls, "exactly one refresh for an expired credential")
	require.Equal(t, 1, repo.updateCalls, "exactly one persistence write per refresh")
	persisted := repo.updated[0]
	assert.Equal(t, "fresh", persisted.AccessToken)
	assert.Equal(t, "refresh-1", persisted.RefreshToken, "refresh token kept when provider returns none")
	assert.Equal(t, now.Add(time.Hour), persisted.ExpiresAt)
}

func TestGetAuthenticatedClientSkipsRefreshWhenValid(t *testing.T) {
	srv, _ := calendarAPIServer(t, []*calendar.CalendarListEntry{
		{Id: "cal-1", Summary: "Calchat Assistant"},
	})
	defer srv.Close()

	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeTokenRepo{token: &entity.GoogleToken{
		UserID:      uuid.New(),
		AccessToken: "live",
		ExpiresAt:   now.Add(time.Hour),
	}}

	svc := newTestTokenService(repo, srv.URL)
	svc.now = func() time.Time { return now }

	refreshCalls := 0
	svc.refresh = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		refreshCalls++
		return nil, nil
	}

	_, appErr := svc.GetAuthenticatedClient(context.Background(), repo.token.UserID)
	require.Nil(t, appErr)
	assert.Zero(t, refreshCalls)
	assert.Zero(t, repo.updateCalls)
}

func TestGetAuthenticatedClientRefreshFailure(t *testing.T) {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeTokenRepo{token: &entity.GoogleToken{
		UserID:       uuid.New(),
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(-time.Minute),
	}}

	svc := NewTokenService(repo)
	svc.now = func() time.Time { return now }
	svc.refresh = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return nil, assert.AnError
	}

	_, appErr := svc.GetAuthenticatedClient(context.Background(), repo.token.UserID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstreamAuth, appErr.Code)
	assert.Zero(t, repo.updateCalls, "failed refresh must not persist anything")
}

func TestResolveWritableCalendarCreatesWhenMissing(t *testing.T) {
	srv, inserts := calendarAPIServer(t, nil)
	defer srv.Close()

	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeTokenRepo{token: &entity.GoogleToken{
		UserID:      uuid.New(),
		AccessToken: "live",
		ExpiresAt:   now.Add(time.Hour),
	}}

	svc := newTestTokenService(repo, srv.URL)
	svc.now = func() time.Time { return now }

	client, appErr := svc.GetAuthenticatedClient(context.Background(), repo.token.UserID)
	require.Nil(t, appErr)
	assert.Equal(t, "new-cal-id", client.CalendarID())
	assert.Equal(t, 1, *inserts)
}

func TestCheckConnection(t *testing.T) {
	repo := &fakeTokenRepo{}
	svc := NewTokenService(repo)

	connected, appErr := svc.CheckConnection(context.Background(), uuid.New())
	require.Nil(t, appErr)
	assert.False(t, connected)

	repo.token = &entity.GoogleToken{UserID: uuid.New()}
	connected, appErr = svc.CheckConnection(context.Background(), uuid.New())
	require.Nil(t, appErr)
	assert.True(t, connected)
}

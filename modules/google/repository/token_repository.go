package repository

import (
	"context"
	"database/sql"

	"calchat/core/database"
	"calchat/core/logger"
	"calchat/modules/google/entity"

	"github.com/google/uuid"
)

type TokenRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.GoogleToken, error)
	UpsertForUser(ctx context.Context, token *entity.GoogleToken) (*entity.GoogleToken, error)
	UpdateCredentials(ctx context.Context, token *entity.GoogleToken) error
}

type tokenRepository struct {
	db database.IDatabase
}

func NewTokenRepository(db database.IDatabase) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.GoogleToken, error) {
	var token entity.GoogleToken
	query := `SELECT * FROM google_tokens WHERE user_id = $1 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &token, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("TokenRepository:FindByUserID:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) UpsertForUser(ctx context.Context, token *entity.GoogleToken) (*entity.GoogleToken, error) {
	query := `
		INSERT INTO google_tokens (user_id, email, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.Email, token.AccessToken, token.RefreshToken, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		logger.Error("TokenRepository:UpsertForUser:Error", "error", err, "user_id", token.UserID)
		return nil, err
	}
	return token, nil
}

// UpdateCredentials persists a refreshed credential. One write per refresh.
func (r *tokenRepository) UpdateCredentials(ctx context.Context, token *entity.GoogleToken) error {
	query := `
		UPDATE google_tokens
		SET access_token = $1, refresh_token = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	err := r.db.ExecContext(ctx, query, token.AccessToken, token.RefreshToken, token.ExpiresAt, token.ID)
	if err != nil {
		logger.Error("TokenRepository:UpdateCredentials:Error", "error", err, "id", token.ID)
	}
	return err
}

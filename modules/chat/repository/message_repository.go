package repository

import (
	"context"

	"calchat/core/database"
	"calchat/core/logger"
	"calchat/modules/chat/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	CreateMessage(ctx context.Context, message *entity.Message) (*entity.Message, error)
	GetLastMessages(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Message, error)
	ClearMessages(ctx context.Context, userID uuid.UUID) error
}

type messageRepository struct {
	db database.IDatabase
}

func NewMessageRepository(db database.IDatabase) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateMessage(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	query := `
		INSERT INTO messages (user_id, prompt, response, response_kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		message.UserID, message.Prompt, message.Response, message.ResponseKind,
	).Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt)
	if err != nil {
		logger.Error("MessageRepository:CreateMessage:Error", "error", err, "user_id", message.UserID)
		return nil, err
	}
	return message, nil
}

// GetLastMessages returns the newest turns first; callers reverse for replay.
func (r *messageRepository) GetLastMessages(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	query := `
		SELECT * FROM messages
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &messages, query, userID, limit); err != nil {
		logger.Error("MessageRepository:GetLastMessages:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) ClearMessages(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE messages SET deleted_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL`
	if err := r.db.ExecContext(ctx, query, userID); err != nil {
		logger.Error("MessageRepository:ClearMessages:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}

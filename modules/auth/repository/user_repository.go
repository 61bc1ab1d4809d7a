package repository

import (
	"context"
	"database/sql"

	"calchat/core/database"
	"calchat/core/logger"
	"calchat/modules/auth/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	UpdateTimezoneOffset(ctx context.Context, id uuid.UUID, offset string) error
}

type userRepository struct {
	db database.IDatabase
}

func NewUserRepository(db database.IDatabase) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	var user entity.User
	query := `SELECT * FROM users WHERE phone = $1 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &user, query, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:FindByPhone:Error", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	query := `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:FindByEmail:Error", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (phone, email, password, timezone_offset, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Phone, user.Email, user.Password, user.TimezoneOffset,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.Error("UserRepository:CreateUser:Error", "error", err)
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateTimezoneOffset(ctx context.Context, id uuid.UUID, offset string) error {
	query := `UPDATE users SET timezone_offset = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	err := r.db.ExecContext(ctx, query, offset, id)
	if err != nil {
		logger.Error("UserRepository:UpdateTimezoneOffset:Error", "error", err, "id", id)
	}
	return err
}

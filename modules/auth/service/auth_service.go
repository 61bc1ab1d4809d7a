package service

import (
	"context"
	"strings"
	"time"

	"calchat/core/cache"
	"calchat/core/errors"
	"calchat/core/logger"
	"calchat/core/utils"
	"calchat/modules/auth/dto"
	"calchat/modules/auth/entity"
	"calchat/modules/auth/repository"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, *errors.AppError)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, *errors.AppError)
	Logout(ctx context.Context, token string) *errors.AppError
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, *errors.AppError)
	GetUserByPhone(ctx context.Context, phone string) (*entity.User, *errors.AppError)
	UpdateTimezoneOffset(ctx context.Context, userID uuid.UUID, offset string) *errors.AppError
}

type AuthService struct {
	repo  repository.UserRepository
	cache cache.Cache
}

func NewAuthService(repo repository.UserRepository, cache cache.Cache) *AuthService {
	return &AuthService{repo: repo, cache: cache}
}

func (service *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, *errors.AppError) {
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)
	if phone == "" || password == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "phone and password are required", nil)
	}

	existing, err := service.repo.FindByPhone(ctx, phone)
	if err != nil {
		logger.Error("AuthService:Signup:FindByPhone:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check existing user", err)
	}
	if existing != nil {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "phone already registered", nil)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		logger.Error("AuthService:Signup:HashPassword:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to hash password", err)
	}

	user := &entity.User{Phone: &phone, Password: &hashed}
	user, err = service.repo.CreateUser(ctx, user)
	if err != nil {
		logger.Error("AuthService:Signup:CreateUser:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create user", err)
	}

	return service.buildAuthResponse(user)
}

func (service *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, *errors.AppError) {
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)
	if phone == "" || password == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "phone and password are required", nil)
	}

	user, err := service.repo.FindByPhone(ctx, phone)
	if err != nil {
		logger.Error("AuthService:Login:FindByPhone:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up user", err)
	}
	if user == nil || user.Password == nil || !utils.ComparePassword(*user.Password, password) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid credentials", nil)
	}

	return service.buildAuthResponse(user)
}

func (service *AuthService) Logout(ctx context.Context, token string) *errors.AppError {
	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		return errors.NewAppError(errors.ErrUnauthorized, "invalid token", err)
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := service.cache.AddToTokenBlacklist(ctx, token, ttl); err != nil {
		logger.Error("AuthService:Logout:AddToTokenBlacklist:Error", "error", err)
		return errors.NewAppError(errors.ErrInternalServer, "failed to revoke token", err)
	}
	return nil
}

func (service *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, *errors.AppError) {
	user, err := service.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}
	return user, nil
}

func (service *AuthService) GetUserByPhone(ctx context.Context, phone string) (*entity.User, *errors.AppError) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "phone is required", nil)
	}
	user, err := service.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}
	return user, nil
}

func (service *AuthService) UpdateTimezoneOffset(ctx context.Context, userID uuid.UUID, offset string) *errors.AppError {
	offset = strings.TrimSpace(offset)
	if offset == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "timezone_offset is required", nil)
	}
	if err := service.repo.UpdateTimezoneOffset(ctx, userID, offset); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to update timezone", err)
	}
	return nil
}

func (service *AuthService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, *errors.AppError) {
	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	token, err := utils.SignToken(user.ID, phone)
	if err != nil {
		logger.Error("AuthService:buildAuthResponse:SignToken:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to sign token", err)
	}

	return &dto.AuthResponse{
		User: dto.UserResponse{
			ID:             user.ID.String(),
			Phone:          user.Phone,
			Email:          user.Email,
			TimezoneOffset: user.TimezoneOffset,
		},
		AccessToken: token,
	}, nil
}

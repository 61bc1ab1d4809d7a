package dto

// SignupRequest registers a new user by phone number.
type SignupRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID             string  `json:"id"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	TimezoneOffset *string `json:"timezone_offset,omitempty"`
}

type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

type UpdateTimezoneRequest struct {
	TimezoneOffset string `json:"timezone_offset" validate:"required"`
}

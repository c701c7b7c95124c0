package model

import "time"

// User represents a registered canteen app user.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignUpRequest represents a user registration request.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=50,personname"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignInRequest represents a user login request.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents an authentication response with a JWT token and user info.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// ToResponse strips the password hash and verification state.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}
}

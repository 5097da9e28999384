package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// User is an account allowed to sign in to the dashboard.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose in JSON
}

// LoginRequest represents the login payload. An empty password is checked
// like any other so unknown emails still answer "User not found".
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type LoginUser struct {
	Email string `json:"email"`
}

// LoginResponse echoes the email of the authenticated user. Token is only
// meaningful when the server enforces bearer auth.
type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
	Token   string    `json:"token,omitempty"`
}

// MessageResponse is the error/ack body used across the API.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// DeleteCoursesRequest is the body of POST /api/employees/:id/delete-courses.
type DeleteCoursesRequest struct {
	Courses []string `json:"courses"`
}

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

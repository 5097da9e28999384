package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"employee-management/internal/middleware"
	"employee-management/internal/models"
	"employee-management/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users     store.UserStore
	jwtSecret []byte
	log       *zap.Logger
}

// NewAuthHandler returns the login handler. An empty secret disables token
// issuing; login still answers with the user's email.
func NewAuthHandler(users store.UserStore, jwtSecret string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: []byte(jwtSecret), log: log}
}

// Login checks the credential against the stored bcrypt hash.
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid input", Error: err.Error()})
		return
	}

	user, err := h.users.FindUserByEmail(c.Request.Context(), input.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, models.MessageResponse{Message: "User not found"})
		return
	}
	if err != nil {
		middleware.LoggerFrom(c, h.log).Error("login lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server error", Error: err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, models.MessageResponse{Message: "Invalid password"})
		return
	}

	resp := models.LoginResponse{
		Message: "Login successful",
		User:    models.LoginUser{Email: user.Email},
	}
	if len(h.jwtSecret) > 0 {
		token, err := h.generateJWTToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Failed to generate token"})
			return
		}
		resp.Token = token
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) generateJWTToken(user models.User) (string, error) {
	now := time.Now()
	claims := models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}

// EnsureUser inserts email with a bcrypt hash of password unless the user
// already exists. It reports whether a user was created.
func EnsureUser(ctx context.Context, users store.UserStore, email, password string) (bool, error) {
	_, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if _, err := users.InsertUser(ctx, models.User{Email: email, PasswordHash: string(hash)}); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

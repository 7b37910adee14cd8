package auth

import (
	"time"

	"yatra/db"

	"go.uber.org/zap"
)

// Handler serves registration and login.
type Handler struct {
	users   db.UserRepository
	tokens  *TokenIssuer
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(users db.UserRepository, tokens *TokenIssuer, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{
		users:   users,
		tokens:  tokens,
		logger:  logger.Named("auth"),
		timeout: timeout,
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// AuthService authenticates dashboard reviewers.
type AuthService struct {
	reviewers repository.ReviewerRepository
	tokens    *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, reviewers repository.ReviewerRepository) *AuthService {
	return &AuthService{
		reviewers: reviewers,
		tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies reviewer credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.Reviewer, error) {
	reviewer, err := s.reviewers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	if !reviewer.IsActive {
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(reviewer.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(reviewer.ID)
	if err != nil {
		return "", time.Time{}, nil, apperrors.NewInternalError(err)
	}
	return token, expiresAt, reviewer, nil
}

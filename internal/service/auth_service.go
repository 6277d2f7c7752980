package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AuthService mints access tokens for existing actors. Credential checks
// belong to the identity provider in front of this service.
type AuthService struct {
	actors repository.ActorRepository
	tokens *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(actors repository.ActorRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{actors: actors, tokens: tokens}
}

// IssueToken signs a token for the active actor registered under email.
func (s *AuthService) IssueToken(ctx context.Context, email string) (*domain.Actor, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewNotFound("actor", map[string]any{"email": email})
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !actor.Active {
		return nil, "", time.Time{}, apperrors.NewConflict("actor inactive", map[string]any{"actor_id": actor.ID})
	}
	token, exp, err := s.tokens.GenerateToken(actor.ID, actor.RoleName)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return actor, token, exp, nil
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/correlation"
	"github.com/noah-isme/classroom-api/internal/dto"
)

// AuthService issues session tokens for valid credentials.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	provider  auth.IdentityProvider
	tokens    *auth.TokenManager
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(provider auth.IdentityProvider, tokens *auth.TokenManager, validator *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		provider:  provider,
		tokens:    tokens,
		validator: validator,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	identity, err := s.provider.Authenticate(ctx, payload.Username, payload.Password)
	if err != nil {
		correlation.Logger(ctx, s.logger).Warn().Str("username", payload.Username).Msg("login rejected")
		return dto.LoginResponse{}, err
	}

	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	correlation.Logger(ctx, s.logger).Info().Int64("user_id", identity.ID).Str("role", string(identity.Role)).Msg("login succeeded")

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      identity,
	}, nil
}

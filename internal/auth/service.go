package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/rogue-contacts/internal"
)

type ServiceAPI interface {
	IssueToken(userID int64) (string, error)
	IssueRefreshToken(userID int64) (string, error)
	Authenticate(ctx context.Context, token string) (*Claims, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, token string) error
}

// Service is the main auth service with dependencies
type Service struct {
	tokenGenerator TokenGenerator
	revocations    RevocationStore
	logger         *slog.Logger
}

func NewService(tokenGen TokenGenerator, revocations RevocationStore, logger *slog.Logger) *Service {
	if revocations == nil {
		revocations = NewMemoryRevocationStore()
	}
	return &Service{
		tokenGenerator: tokenGen,
		revocations:    revocations,
		logger:         logger,
	}
}

func (s *Service) IssueToken(userID int64) (string, error) {
	token, err := s.tokenGenerator.GenerateAccessToken(userID)
	if err != nil {
		return "", internal.ErrInternal(err)
	}
	return token, nil
}

func (s *Service) IssueRefreshToken(userID int64) (string, error) {
	token, err := s.tokenGenerator.GenerateRefreshToken(userID)
	if err != nil {
		return "", internal.ErrInternal(err)
	}
	return token, nil
}

// Authenticate validates an access token's signature, expiry and revocation state.
// Refresh tokens are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	return s.validate(ctx, token, TokenTypeAccess)
}

// RefreshTokens exchanges a refresh token for a new pair. The presented
// refresh token is revoked, so each one can be used once.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.validate(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	access, err := s.IssueToken(claims.UserID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(claims.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tokens refreshed", "user_id", claims.UserID)
	return &Tokens{Token: access, RefreshToken: refresh}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("token revoked", "user_id", claims.UserID)
	return nil
}

func (s *Service) validate(ctx context.Context, token, tokenType string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, internal.ErrInvalidToken
	}

	if claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("revocation lookup failed", "user_id", claims.UserID, "error", err)
			return nil, internal.ErrInternal(err)
		}
		if revoked {
			return nil, internal.ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return internal.ErrInternal(err)
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/core/common/validation"
	"golang.org/x/crypto/bcrypt"
)

// ErrCredentialsNotFound is returned by repositories when no user matches.
var ErrCredentialsNotFound = errors.New("credentials not found")

type UserRepository interface {
	CredentialsByLogin(ctx context.Context, login string) (*Credentials, error)
	CredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Login validates credentials and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.userRepo.CredentialsByLogin(ctx, dto.Login)
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}

	// compare before the active check so inactive logins cannot be probed
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(creds)
}

// Refresh exchanges a valid refresh token for a new pair. The user must still be active.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokenGenerator.ValidateToken(dto.RefreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.active(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(creds)
}

// IssueTokens mints a pair for an existing active user without a password check.
func (s *Service) IssueTokens(ctx context.Context, userID int64) (AuthTokens, error) {
	creds, err := s.active(ctx, userID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(creds)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
}

func (s *Service) active(ctx context.Context, userID int64) (*Credentials, error) {
	creds, err := s.userRepo.CredentialsByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return nil, internal.ErrInvalidToken
		}
		s.logger.Error("failed to load credentials", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to authenticate", err)
	}
	if !creds.IsActive {
		return nil, internal.ErrUserInactive
	}
	return creds, nil
}

func (s *Service) issue(creds *Credentials) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(creds.UserID, creds.Login)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(creds.UserID, creds.Login)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTokenTTL().Seconds()),
	}, nil
}

// MinPasswordLength bounds passwords set by operators.
const MinPasswordLength = 8

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	v := validation.NewValidator()
	v.Field("password", password).Required().MinLength(MinPasswordLength)
	if err := v.Validate(); err != nil {
		return "", err
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

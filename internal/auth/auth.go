package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Credentials is what login needs to know about a user row.
type Credentials struct {
	UserID       int64
	Login        string
	PasswordHash string
	IsActive     bool
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, login string) (string, error)
	GenerateRefreshToken(userID int64, login string) (string, error)
	ValidateToken(tokenString string, kind TokenType) (*Claims, error)
	AccessTokenTTL() time.Duration
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64     `json:"user_id"`
	Login     string    `json:"login"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	Issuer             string
	now                func() time.Time
}

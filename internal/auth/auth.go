package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeBearer  = "bearer"
)

// AppMetadata is the identity-provider controlled part of the token. Only the
// role is carried.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	TokenType   string      `json:"token_type"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// Session is the token pair handed to clients.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

// SessionUser is the identity shape clients resolve roles from.
type SessionUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	AppMetadata  map[string]interface{} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// LoginResult is returned by the login and refresh endpoints.
type LoginResult struct {
	Session      Session     `json:"session"`
	User         SessionUser `json:"user"`
	Role         string      `json:"role"`
	RedirectPath string      `json:"redirect_path"`
}

// Subject is what a token is issued for.
type Subject struct {
	UserID int64
	Email  string
	Role   string
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

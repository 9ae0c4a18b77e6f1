package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/hr-portal/internal/role"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	SignOut(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	GetUserByID(ctx context.Context, userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(subject Subject) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(subject Subject) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Credentials is the login view of a user row.
type Credentials struct {
	UserID       int64
	Email        string
	Name         string
	Department   string
	PasswordHash string
	IsActive     bool
	// TokenRole is the role recorded on the user itself and embedded in tokens.
	TokenRole string
	// Role is the effective role: TokenRole, else the role table entry.
	Role string
}

// User is the authenticated principal stored in the request context.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...string) bool {
	if u == nil {
		return false
	}
	current := role.NormalizeRoleValue(u.Role)
	for _, r := range roles {
		if current == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(role.Admin)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

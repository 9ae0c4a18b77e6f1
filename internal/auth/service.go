package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	bcryptCost     int
	bus            events.Publisher
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         lg,
	}
}

// WithPublisher attaches the event bus sign-in and sign-out events go to.
func (s *Service) WithPublisher(bus events.Publisher) *Service {
	s.bus = bus
	return s
}

func (s *Service) WithLogger(lg *slog.Logger) *Service {
	if lg != nil {
		s.logger = lg
	}
	return s
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns a session with the resolved
// role and its landing page.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, strings.TrimSpace(dto.Email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("failed to load credentials", "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !creds.IsActive {
		return nil, ErrUserInactive
	}

	result, err := s.issue(creds)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", creds.UserID, "role", result.Role)
	s.publish(ctx, events.NewSignedInEvent(creds.UserID, creds.Email, result.Role))

	return result, nil
}

// RefreshTokens validates refresh token and returns a new session
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}

	return s.issue(&Credentials{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		IsActive:   u.IsActive,
		TokenRole:  claims.AppMetadata.Role,
		Role:       u.Role,
	})
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// SignOut records the sign-out. Tokens are stateless and simply expire.
func (s *Service) SignOut(ctx context.Context, u *User) error {
	if u == nil {
		return ErrInvalidToken
	}
	s.logger.Info("user signed out", "user_id", u.ID)
	s.publish(ctx, events.NewSignedOutEvent(u.ID))
	return nil
}

// GetUser loads the principal with its effective role.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func (s *Service) issue(creds *Credentials) (*LoginResult, error) {
	tokenRole := role.NormalizeRoleValue(creds.TokenRole)
	effective := role.NormalizeRoleValue(creds.Role)
	if effective == "" {
		effective = tokenRole
	}

	subject := Subject{UserID: creds.UserID, Email: creds.Email, Role: tokenRole}

	accessToken, expiresAt, err := s.tokenGenerator.GenerateAccessToken(subject)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(subject)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	appMetadata := map[string]interface{}{}
	if tokenRole != "" {
		appMetadata["role"] = tokenRole
	}

	return &LoginResult{
		Session: Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    TokenTypeBearer,
			ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
			ExpiresAt:    expiresAt.Unix(),
		},
		User: SessionUser{
			ID:          strconv.FormatInt(creds.UserID, 10),
			Email:       creds.Email,
			AppMetadata: appMetadata,
			UserMetadata: map[string]interface{}{
				"name":       creds.Name,
				"department": creds.Department,
			},
		},
		Role:         effective,
		RedirectPath: role.RedirectPath(effective),
	}, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(subject Subject) (string, time.Time, error) {
	expiresAt := time.Now().Add(j.AccessTokenTTL)
	token, err := j.sign(subject, TokenTypeAccess, expiresAt, j.AccessTokenSecret)
	return token, expiresAt, err
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(subject Subject) (string, error) {
	return j.sign(subject, TokenTypeRefresh, time.Now().Add(j.RefreshTokenTTL), j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(subject Subject, tokenType string, expiresAt time.Time, secret []byte) (string, error) {
	userID := strconv.FormatInt(subject.UserID, 10)
	claims := &Claims{
		UserID:      userID,
		Email:       subject.Email,
		TokenType:   tokenType,
		AppMetadata: AppMetadata{Role: subject.Role},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken checks signature, expiry and token type of an access token.
func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeAccess, j.AccessTokenSecret)
}

// ValidateRefreshToken checks signature, expiry and token type of a refresh token.
func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeRefresh, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString, tokenType string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock repository for testing
type mockRepository struct {
	credentials   map[string]*Credentials // email -> credentials
	returnError   bool
	errorToReturn error
}

func newMockRepository() *mockRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	hash := string(hashedPassword)

	return &mockRepository{
		credentials: map[string]*Credentials{
			"employee@example.com": {UserID: 1, Email: "employee@example.com", Name: "Eve", PasswordHash: hash, IsActive: true, Role: "employee"},
			"admin@example.com":    {UserID: 2, Email: "admin@example.com", Name: "Ada", PasswordHash: hash, IsActive: true, TokenRole: "ADMIN", Role: "ADMIN"},
			"hr@example.com":       {UserID: 3, Email: "hr@example.com", Name: "Hana", PasswordHash: hash, IsActive: true, TokenRole: "hr_manager", Role: "hr_manager"},
			"norole@example.com":   {UserID: 4, Email: "norole@example.com", Name: "Nora", PasswordHash: hash, IsActive: true},
			"gone@example.com":     {UserID: 5, Email: "gone@example.com", Name: "Gus", PasswordHash: hash, IsActive: false, Role: "employee"},
		},
	}
}

func (m *mockRepository) GetCredentialsByEmail(_ context.Context, email string) (*Credentials, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if c, ok := m.credentials[email]; ok {
		return c, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByID(_ context.Context, userID int64) (*User, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	for _, c := range m.credentials {
		if c.UserID == userID {
			return &User{ID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role, IsActive: c.IsActive}, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service       *Service
		mockRepo      *mockRepository
		tokenGen      *JWTTokenGenerator
		publisher     *recordingPublisher
		ctx           context.Context
		accessSecret  string        = "test-access-secret-0123456789abcdef"
		refreshSecret string        = "test-refresh-secret-0123456789abcdef"
		accessTTL     time.Duration = 15 * time.Minute
		refreshTTL    time.Duration = 24 * time.Hour
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockRepository()
		publisher = &recordingPublisher{}
		tokenGen = NewJWTTokenGenerator(accessSecret, refreshSecret, accessTTL, refreshTTL)
		service = NewService(mockRepo, tokenGen, bcrypt.MinCost).
			WithPublisher(publisher).
			WithLogger(logger.Discard())
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return a session with distinct tokens", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.Session.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(result.Session.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(result.Session.AccessToken).ToNot(gomega.Equal(result.Session.RefreshToken))
				gomega.Expect(result.Session.TokenType).To(gomega.Equal(TokenTypeBearer))
				gomega.Expect(result.Session.ExpiresAt).To(gomega.BeNumerically(">", time.Now().Unix()))
			})

			ginkgo.It("should resolve the role and its landing page", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "hr@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.Role).To(gomega.Equal("hr_manager"))
				gomega.Expect(result.RedirectPath).To(gomega.Equal("/hr/dashboard"))
				gomega.Expect(result.User.ID).To(gomega.Equal("3"))
				gomega.Expect(result.User.AppMetadata).To(gomega.HaveKeyWithValue("role", "hr_manager"))
				gomega.Expect(result.User.UserMetadata).To(gomega.HaveKeyWithValue("name", "Hana"))
			})

			ginkgo.It("should normalise legacy role spellings", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.Role).To(gomega.Equal("admin"))
				gomega.Expect(result.RedirectPath).To(gomega.Equal("/admin/dashboard"))

				claims, err := service.ValidateAccessToken(result.Session.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.AppMetadata.Role).To(gomega.Equal("admin"))
				gomega.Expect(claims.Email).To(gomega.Equal("admin@example.com"))
			})

			ginkgo.It("should keep the token role empty when only the role table knows it", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.Role).To(gomega.Equal("employee"))
				gomega.Expect(result.User.AppMetadata).ToNot(gomega.HaveKey("role"))
			})

			ginkgo.It("should send users without a role to the login page", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "norole@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.Role).To(gomega.BeEmpty())
				gomega.Expect(result.RedirectPath).To(gomega.Equal("/auth/login"))
			})

			ginkgo.It("should publish a sign-in event", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Email: "hr@example.com", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(publisher.events).To(gomega.HaveLen(1))
				gomega.Expect(publisher.events[0].EventType()).To(gomega.Equal(events.EventTypeSignedIn))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should return error for unknown email", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "nonexistent@example.com", Password: "any_password"})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(result).To(gomega.BeNil())
			})

			ginkgo.It("should return error for invalid password", func() {
				result, err := service.Authenticate(ctx, LoginDTO{Email: "employee@example.com", Password: "wrong_password"})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(result).To(gomega.BeNil())
				gomega.Expect(publisher.events).To(gomega.BeEmpty())
			})

			ginkgo.It("should reject inactive users", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Email: "gone@example.com", Password: "correct_password"})

				gomega.Expect(err).To(gomega.Equal(ErrUserInactive))
			})
		})

		ginkgo.Context("when input validation fails", func() {
			ginkgo.It("should return validation error for empty email", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Email: "", Password: "password"})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("email is required"))
			})

			ginkgo.It("should return validation error for malformed email", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Email: "not-an-email", Password: "password"})

				gomega.Expect(err).To(gomega.BeAssignableToTypeOf(ValidationError{}))
			})

			ginkgo.It("should return validation error for empty password", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Email: "employee@example.com", Password: ""})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("password is required"))
			})
		})

		ginkgo.Context("when repository returns error", func() {
			ginkgo.It("should return invalid credentials error", func() {
				mockRepo.setError(errors.New("database error"))

				_, err := service.Authenticate(ctx, LoginDTO{Email: "employee@example.com", Password: "correct_password"})

				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		var validRefreshToken string

		ginkgo.BeforeEach(func() {
			result, err := service.Authenticate(ctx, LoginDTO{Email: "hr@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			validRefreshToken = result.Session.RefreshToken
		})

		ginkgo.It("should return a new session preserving the user", func() {
			result, err := service.RefreshTokens(ctx, validRefreshToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Role).To(gomega.Equal("hr_manager"))

			claims, err := service.ValidateAccessToken(result.Session.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("3"))
			gomega.Expect(claims.Email).To(gomega.Equal("hr@example.com"))
		})

		ginkgo.It("should reject an access token used as refresh token", func() {
			result, err := service.Authenticate(ctx, LoginDTO{Email: "hr@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, result.Session.AccessToken)
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})

		ginkgo.It("should return error for malformed token", func() {
			result, err := service.RefreshTokens(ctx, "invalid.token.format")

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(result).To(gomega.BeNil())
		})

		ginkgo.It("should return error for expired token", func() {
			expiredTokenGen := NewJWTTokenGenerator(accessSecret, refreshSecret, -1*time.Hour, -1*time.Hour)
			expiredToken, err := expiredTokenGen.GenerateRefreshToken(Subject{UserID: 1, Email: "employee@example.com"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, expiredToken)
			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should return error for empty token", func() {
			claims, err := service.ValidateAccessToken("")

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(claims).To(gomega.BeNil())
		})

		ginkgo.It("should return error for expired token", func() {
			expiredTokenGen := NewJWTTokenGenerator(accessSecret, refreshSecret, -1*time.Hour, refreshTTL)
			expiredToken, _, err := expiredTokenGen.GenerateAccessToken(Subject{UserID: 1, Email: "employee@example.com"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(expiredToken)

			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
			gomega.Expect(claims).To(gomega.BeNil())
		})

		ginkgo.It("should reject a token signed with another secret", func() {
			other := NewJWTTokenGenerator("another-access-secret-0123456789abcd", refreshSecret, accessTTL, refreshTTL)
			token, _, err := other.GenerateAccessToken(Subject{UserID: 1})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})
	})

	ginkgo.Describe("SignOut", func() {
		ginkgo.It("should publish a sign-out event", func() {
			err := service.SignOut(ctx, &User{ID: 3})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].EventType()).To(gomega.Equal(events.EventTypeSignedOut))
		})

		ginkgo.It("should reject a missing user", func() {
			gomega.Expect(service.SignOut(ctx, nil)).To(gomega.Equal(ErrInvalidToken))
		})
	})

	ginkgo.Describe("HashPassword", func() {
		ginkgo.It("should produce a hash that verifies", func() {
			hash, err := service.HashPassword("s3cret")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(VerifyPassword(hash, "s3cret")).To(gomega.Succeed())
			gomega.Expect(VerifyPassword(hash, "other")).ToNot(gomega.Succeed())
		})
	})
})

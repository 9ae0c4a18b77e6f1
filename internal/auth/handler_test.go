package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type errorEnvelope struct {
	Error struct {
		Type    string            `json:"type"`
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

var _ = Describe("Auth Handler", func() {
	var (
		handler *Handler
		service *Service
	)

	BeforeEach(func() {
		tokenGen := NewJWTTokenGenerator("handler-access-secret-0123456789abcdef", "handler-refresh-secret-0123456789abcdef", 15*time.Minute, time.Hour)
		service = NewService(newMockRepository(), tokenGen, bcrypt.MinCost).WithLogger(logger.Discard())
		handler = &Handler{BaseHandler: transport.NewBaseHandler(logger.Discard()), Service: service}
	})

	login := func(email, password string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(LoginDTO{Email: email, Password: password})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		return w
	}

	Describe("Login", func() {
		It("returns the session, role and redirect path", func() {
			w := login("hr@example.com", "correct_password")

			Expect(w.Code).To(Equal(http.StatusOK))
			var result LoginResult
			Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
			Expect(result.Role).To(Equal(role.HRManager))
			Expect(result.RedirectPath).To(Equal("/hr/dashboard"))
			Expect(result.Session.AccessToken).NotTo(BeEmpty())
		})

		It("reports invalid credentials with a specific code", func() {
			w := login("hr@example.com", "nope")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			var env errorEnvelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Error.Code).To(Equal("INVALID_CREDENTIALS"))
		})

		It("reports inactive accounts as forbidden", func() {
			w := login("gone@example.com", "correct_password")

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("rejects malformed bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns field validation details", func() {
			w := login("", "x")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var env errorEnvelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("AuthMiddleware", func() {
		var reached *User

		protected := func(token string) *httptest.ResponseRecorder {
			reached = nil
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, req)
			return w
		}

		It("loads the user into the context", func() {
			var result LoginResult
			Expect(json.NewDecoder(login("admin@example.com", "correct_password").Body).Decode(&result)).To(Succeed())

			w := protected(result.Session.AccessToken)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(reached).NotTo(BeNil())
			Expect(reached.ID).To(Equal(int64(2)))
			Expect(reached.IsAdmin()).To(BeTrue())
		})

		It("rejects requests without a token", func() {
			w := protected("")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeNil())
		})

		It("rejects refresh tokens", func() {
			var result LoginResult
			Expect(json.NewDecoder(login("admin@example.com", "correct_password").Body).Decode(&result)).To(Succeed())

			w := protected(result.Session.RefreshToken)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireRoles", func() {
		serve := func(u *User, mw func(http.Handler) http.Handler) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if u != nil {
				req = req.WithContext(ContextWithUser(req.Context(), u))
			}
			w := httptest.NewRecorder()
			mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(w, req)
			return w.Code
		}

		It("admits matching roles, including legacy spellings", func() {
			rbac := NewRBACAuthorization(logger.Discard())

			Expect(serve(&User{ID: 1, Role: "HR"}, rbac.RequireManager())).To(Equal(http.StatusOK))
			Expect(serve(&User{ID: 1, Role: "admin"}, rbac.RequireAdmin())).To(Equal(http.StatusOK))
		})

		It("forbids other roles", func() {
			rbac := NewRBACAuthorization(logger.Discard())

			Expect(serve(&User{ID: 1, Role: "employee"}, rbac.RequireManager())).To(Equal(http.StatusForbidden))
			Expect(serve(&User{ID: 1, Role: ""}, rbac.RequireAdmin())).To(Equal(http.StatusForbidden))
		})

		It("requires an authenticated user", func() {
			rbac := NewRBACAuthorization(logger.Discard())

			Expect(serve(nil, rbac.RequireAdmin())).To(Equal(http.StatusUnauthorized))
		})
	})
})

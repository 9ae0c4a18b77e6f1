package userrole_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/hr-portal/internal/auth"
	userroleDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/userrole"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/internal/userrole"
	userrolePostgres "github.com/frahmantamala/hr-portal/internal/userrole/postgres"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("UserRole", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *userrole.Service
		handler *userrole.Handler
	)

	build := func() {
		repo := userrolePostgres.NewUserRoleRepository(db)
		service = userrole.NewService(repo, nil, logger.Discard())
		handler = userrole.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
	}

	withUser := func(req *http.Request, u *auth.User) *http.Request {
		return req.WithContext(auth.ContextWithUser(req.Context(), u))
	}

	decodeCode := func(w *httptest.ResponseRecorder) (string, map[string]string) {
		var env struct {
			Error struct {
				Code    string            `json:"code"`
				Details map[string]string `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env.Error.Code, env.Error.Details
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = openDB()
	})

	Context("when the role table exists", func() {
		BeforeEach(func() {
			Expect(db.AutoMigrate(&userroleDatamodel.UserRole{})).To(Succeed())
			build()
		})

		It("returns ErrNotFound for users without a row", func() {
			_, err := service.Lookup(ctx, 42)
			Expect(err).To(MatchError(userrole.ErrNotFound))
		})

		It("normalises stored legacy values on lookup", func() {
			Expect(db.Create(&userroleDatamodel.UserRole{UserID: 42, Role: "MANAGER"}).Error).To(Succeed())

			a, err := service.Lookup(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Role).To(Equal("line_manager"))
		})

		It("upserts canonical roles", func() {
			_, err := service.Assign(ctx, 1, 42, "HR")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Assign(ctx, 1, 42, "employee")
			Expect(err).NotTo(HaveOccurred())

			var count int64
			Expect(db.Model(&userroleDatamodel.UserRole{}).Where("user_id = ?", 42).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))

			a, err := service.Lookup(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Role).To(Equal("employee"))
		})

		It("rejects unknown roles", func() {
			_, err := service.Assign(ctx, 1, 42, "superuser")
			Expect(err).To(MatchError(userrole.ErrInvalidRole))
		})

		It("serves GET /user-roles/me", func() {
			Expect(db.Create(&userroleDatamodel.UserRole{UserID: 7, Role: "hr_manager"}).Error).To(Succeed())

			w := httptest.NewRecorder()
			handler.GetMine(w, withUser(httptest.NewRequest(http.MethodGet, "/user-roles/me", nil), &auth.User{ID: 7}))

			Expect(w.Code).To(Equal(http.StatusOK))
			var a userrole.Assignment
			Expect(json.NewDecoder(w.Body).Decode(&a)).To(Succeed())
			Expect(a.Role).To(Equal("hr_manager"))
		})

		It("answers 404 ROLE_NOT_FOUND without a row", func() {
			w := httptest.NewRecorder()
			handler.GetMine(w, withUser(httptest.NewRequest(http.MethodGet, "/user-roles/me", nil), &auth.User{ID: 8}))

			Expect(w.Code).To(Equal(http.StatusNotFound))
			code, _ := decodeCode(w)
			Expect(code).To(Equal("ROLE_NOT_FOUND"))
		})

		It("serves PUT /user-roles/{userID}", func() {
			router := chi.NewRouter()
			router.Put("/user-roles/{userID}", handler.Assign)

			req := httptest.NewRequest(http.MethodPut, "/user-roles/9", strings.NewReader(`{"role":"LINE_MANAGER"}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, withUser(req, &auth.User{ID: 1, Role: "admin"}))

			Expect(w.Code).To(Equal(http.StatusOK))
			var a userrole.Assignment
			Expect(json.NewDecoder(w.Body).Decode(&a)).To(Succeed())
			Expect(a.UserID).To(Equal(int64(9)))
			Expect(a.Role).To(Equal("line_manager"))
		})
	})

	Context("when the role table does not exist", func() {
		BeforeEach(build)

		It("returns ErrTableMissing", func() {
			_, err := service.Lookup(ctx, 42)
			Expect(err).To(MatchError(userrole.ErrTableMissing))
		})

		It("answers 404 ROLE_TABLE_MISSING with the relation error code", func() {
			w := httptest.NewRecorder()
			handler.GetMine(w, withUser(httptest.NewRequest(http.MethodGet, "/user-roles/me", nil), &auth.User{ID: 7}))

			Expect(w.Code).To(Equal(http.StatusNotFound))
			code, details := decodeCode(w)
			Expect(code).To(Equal("ROLE_TABLE_MISSING"))
			Expect(details).To(HaveKeyWithValue("db_code", "42P01"))
		})
	})
})

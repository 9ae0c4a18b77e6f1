package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal/attendance"
	"github.com/frahmantamala/hr-portal/internal/audit"
	"github.com/frahmantamala/hr-portal/internal/auth"
	"github.com/frahmantamala/hr-portal/internal/transport/middleware"
	"github.com/frahmantamala/hr-portal/internal/transport/swagger"
	"github.com/frahmantamala/hr-portal/internal/user"
	"github.com/frahmantamala/hr-portal/internal/userrole"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	UserRole   *userrole.Handler
	Attendance *attendance.Handler
	Audit      *audit.Handler
}

// Options are the router settings taken from configuration.
type Options struct {
	APIKey         string
	AllowedOrigins string
	Spec           *swagger.Spec
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if opts.Spec != nil {
		router.Handle("/openapi.yml", opts.Spec.SpecHandler())
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.With(middleware.RequireAPIKey(opts.APIKey, logger)).Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.With(h.Auth.AuthMiddleware).Post("/logout", h.Auth.Logout)
		})

		rbac := h.RBAC
		if rbac == nil {
			rbac = auth.NewRBACAuthorization(logger)
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.UserRole != nil {
				pr.Get("/user-roles/me", h.UserRole.GetMine)
				pr.With(rbac.RequireAdmin()).Put("/user-roles/{userID}", h.UserRole.Assign)
			}

			if h.Attendance != nil {
				pr.Route("/attendance", func(ar chi.Router) {
					ar.Get("/today", h.Attendance.GetToday)
					ar.Post("/check-in", h.Attendance.CheckIn)
					ar.Post("/check-out", h.Attendance.CheckOut)
					ar.With(rbac.RequireManager()).Get("/", h.Attendance.List)
				})
			}

			if h.Audit != nil {
				pr.With(rbac.RequireAdmin()).Get("/audit-logs", h.Audit.List)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"ROUTE_NOT_FOUND","message":"Route not found"}}`))
	})
}

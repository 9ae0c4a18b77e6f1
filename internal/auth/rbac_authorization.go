package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/internal/transport"
)

// RBACAuthorization guards routes by the caller's effective role.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// RequireRoles lets the request through when the user holds any of roles.
func (ra *RBACAuthorization) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.WriteAppError(w, internal.ErrInvalidToken)
				return
			}

			if !user.HasRole(roles...) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.WriteAppError(w, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(role.Admin)
}

// RequireManager admits the roles that oversee other people's attendance.
func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRoles(role.Admin, role.HRManager, role.LineManager)
}

package userrole

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/auth"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Lookup(ctx context.Context, userID int64) (*Assignment, error)
	Assign(ctx context.Context, actorID, userID int64, rawRole string) (*Assignment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetMine handles GET /user-roles/me.
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	a, err := h.Service.Lookup(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

// Assign handles PUT /user-roles/{userID}.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError("user_id", "user id must be a positive integer", internal.ErrCodeInvalidRequest))
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequest))
		return
	}
	if dto.Role == "" {
		h.WriteAppError(w, internal.NewValidationFieldError("role", "role is required", internal.ErrCodeInvalidRole))
		return
	}

	a, err := h.Service.Assign(r.Context(), actor.ID, userID, dto.Role)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return internal.ErrRoleNotFound
	case errors.Is(err, ErrTableMissing):
		return internal.ErrRoleTableMissing
	case errors.Is(err, ErrInvalidRole):
		return internal.ErrInvalidRole
	default:
		return err
	}
}

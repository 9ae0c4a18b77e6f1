package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, eventType string, limit, offset int) ([]*Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

// List handles GET /audit-logs?type=&limit=&offset=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r, 20)

	entries, err := h.Service.List(r.Context(), r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Entries: entries, Limit: limit, Offset: offset})
}

package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/auth"
	"github.com/frahmantamala/hr-portal/internal/transport"
)

type ServiceAPI interface {
	Today(ctx context.Context, userID int64) (string, *Record, error)
	CheckIn(ctx context.Context, userID int64) (*Record, error)
	CheckOut(ctx context.Context, userID, recordID int64) (*Record, error)
	ListByDate(ctx context.Context, date string, limit, offset int) (string, []*Record, error)
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

// GetToday handles GET /attendance/today.
func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	date, record, err := h.Service.Today(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, TodayResponse{Date: date, Record: record})
}

// CheckIn handles POST /attendance/check-in.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	record, err := h.Service.CheckIn(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

// CheckOut handles POST /attendance/check-out. The body is optional.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	var dto CheckOutDTO
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
			h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequest))
			return
		}
	}

	record, err := h.Service.CheckOut(r.Context(), user.ID, dto.RecordID)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// List handles GET /attendance?date=YYYY-MM-DD for managers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		parsed, err := ParseDate(date)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("date", err.Error(), internal.ErrCodeInvalidDate))
			return
		}
		date = parsed
	}

	limit, offset := transport.Pagination(r, 50)

	date, records, err := h.Service.ListByDate(r.Context(), date, limit, offset)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{
		Date:    date,
		Records: records,
		Limit:   limit,
		Offset:  offset,
	})
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrDuplicateRecord):
		return internal.ErrAlreadyCheckedIn
	case errors.Is(err, ErrNoOpenCheckIn):
		return internal.ErrNoOpenCheckIn
	case errors.Is(err, ErrRecordNotFound):
		return internal.NewNotFoundError("Attendance record not found", internal.ErrCodeRecordNotFound)
	default:
		return err
	}
}

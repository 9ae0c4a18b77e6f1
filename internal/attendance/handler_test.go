package attendance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/hr-portal/internal/attendance"
	attendancePostgres "github.com/frahmantamala/hr-portal/internal/attendance/postgres"
	"github.com/frahmantamala/hr-portal/internal/auth"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Attendance Handler", func() {
	var handler *attendance.Handler

	BeforeEach(func() {
		repo := attendancePostgres.NewAttendanceRepository(newTestDB())
		policy := attendance.DefaultPolicy()
		policy.Location = time.UTC
		service := attendance.NewService(repo, policy, nil, logger.Discard()).
			WithClock(func() time.Time { return time.Date(2025, time.March, 3, 9, 5, 0, 0, time.UTC) })
		handler = attendance.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
	})

	as := func(userID int64, req *http.Request) *http.Request {
		ctx := auth.ContextWithUser(context.Background(), &auth.User{ID: userID, Role: "employee", IsActive: true})
		return req.WithContext(ctx)
	}

	It("returns a null record before checking in", func() {
		w := httptest.NewRecorder()
		handler.GetToday(w, as(1, httptest.NewRequest(http.MethodGet, "/attendance/today", nil)))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp attendance.TodayResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Date).To(Equal("2025-03-03"))
		Expect(resp.Record).To(BeNil())
	})

	It("answers a duplicate check-in with 409 and the unique violation code", func() {
		w := httptest.NewRecorder()
		handler.CheckIn(w, as(1, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)))
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = httptest.NewRecorder()
		handler.CheckIn(w, as(1, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)))

		Expect(w.Code).To(Equal(http.StatusConflict))
		var env struct {
			Error struct {
				Code    string            `json:"code"`
				Details map[string]string `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Error.Code).To(Equal("ALREADY_CHECKED_IN"))
		Expect(env.Error.Details).To(HaveKeyWithValue("db_code", "23505"))
	})

	It("checks out with or without a body", func() {
		w := httptest.NewRecorder()
		handler.CheckIn(w, as(1, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)))
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = httptest.NewRecorder()
		handler.CheckOut(w, as(1, httptest.NewRequest(http.MethodPost, "/attendance/check-out", nil)))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		body := bytes.NewBufferString(`{"record_id": 1}`)
		handler.CheckOut(w, as(1, httptest.NewRequest(http.MethodPost, "/attendance/check-out", body)))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("rejects malformed dates on the list endpoint", func() {
		w := httptest.NewRecorder()
		handler.List(w, as(1, httptest.NewRequest(http.MethodGet, "/attendance?date=03-03-2025", nil)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists records for a date", func() {
		for _, id := range []int64{1, 2} {
			w := httptest.NewRecorder()
			handler.CheckIn(w, as(id, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)))
			Expect(w.Code).To(Equal(http.StatusCreated))
		}

		w := httptest.NewRecorder()
		handler.List(w, as(1, httptest.NewRequest(http.MethodGet, "/attendance?date=2025-03-03&limit=10", nil)))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp attendance.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Records).To(HaveLen(2))
		Expect(resp.Limit).To(Equal(10))
	})

	It("requires an authenticated user", func() {
		w := httptest.NewRecorder()
		handler.CheckIn(w, httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

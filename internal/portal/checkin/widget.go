// Package checkin is the attendance widget: it tracks the current user's
// record for today and drives check-in and check-out against the backend.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/hr-portal/internal/attendance"
	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type Outcome string

const (
	OutcomeCheckedIn        Outcome = "checked_in"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
	OutcomeCheckedOut       Outcome = "checked_out"
	OutcomeNoop             Outcome = "noop"
)

const (
	MessageAlreadyCheckedIn = "You have already checked in today"
	MessageCheckInFailed    = "Failed to check in"
	MessageCheckOutFailed   = "Failed to check out"
	MessageLoadFailed       = "Failed to load today's attendance"
)

// ErrBusy is returned while another action of the widget is in flight.
var ErrBusy = errors.New("attendance action already in progress")

// Button labels.
const (
	LabelCheckIn  = "Check In"
	LabelCheckOut = "Check Out"
	LabelComplete = "Attendance Complete"
)

type ButtonState struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

type Widget struct {
	table    portal.AttendanceTable
	policy   attendance.Policy
	userID   string
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	today   *attendance.Record
	loading bool
}

func NewWidget(table portal.AttendanceTable, policy attendance.Policy, userID string, notifier Notifier, lg *slog.Logger) *Widget {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	if notifier == nil {
		notifier = NewLogNotifier(lg)
	}
	return &Widget{
		table:    table,
		policy:   policy,
		userID:   userID,
		notifier: notifier,
		logger:   lg.With("component", "checkin", "user_id", userID),
		now:      time.Now,
	}
}

func (w *Widget) WithClock(now func() time.Time) *Widget {
	w.now = now
	return w
}

// FetchToday loads the record for the current user and today's date.
func (w *Widget) FetchToday(ctx context.Context) (*attendance.Record, error) {
	if !w.begin() {
		return nil, ErrBusy
	}
	defer w.end()

	record, err := w.fetch(ctx)
	if err != nil {
		w.notifier.Error(MessageLoadFailed, err)
		return nil, err
	}
	return record, nil
}

func (w *Widget) fetch(ctx context.Context) (*attendance.Record, error) {
	date := w.policy.Date(w.now())
	record, err := w.table.SelectToday(ctx, w.userID, date)
	if err != nil {
		w.logger.Error("failed to fetch today's attendance", "error", err, "date", date)
		return nil, fmt.Errorf("fetch attendance for %s: %w", date, err)
	}

	w.mu.Lock()
	w.today = record
	w.mu.Unlock()
	return record, nil
}

// CheckIn inserts today's record. A record that already exists for the day
// is reported as OutcomeAlreadyCheckedIn, not as an error.
func (w *Widget) CheckIn(ctx context.Context) (Outcome, *attendance.Record, error) {
	if !w.begin() {
		return "", nil, ErrBusy
	}
	defer w.end()

	uid, err := strconv.ParseInt(w.userID, 10, 64)
	if err != nil {
		w.logger.Error("check-in with unusable user id", "user_id", w.userID, "error", err)
		w.notifier.Error(MessageCheckInFailed, err)
		return "", nil, fmt.Errorf("check in: invalid user id %q: %w", w.userID, err)
	}

	now := w.now()
	record := &attendance.Record{
		UserID:  uid,
		Date:    w.policy.Date(now),
		CheckIn: &now,
		Status:  w.policy.StatusAt(now),
	}

	created, err := w.table.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, portal.ErrUniqueViolation) {
			w.logger.Info("check-in rejected, already checked in", "date", record.Date)
			w.notifier.Info(MessageAlreadyCheckedIn)
			existing, ferr := w.fetch(ctx)
			if ferr != nil {
				w.logger.Warn("could not reload today's record after duplicate check-in", "error", ferr)
				return OutcomeAlreadyCheckedIn, nil, nil
			}
			return OutcomeAlreadyCheckedIn, existing, nil
		}
		w.logger.Error("check-in failed", "error", err, "date", record.Date)
		w.notifier.Error(MessageCheckInFailed, err)
		return "", nil, fmt.Errorf("check in: %w", err)
	}

	w.mu.Lock()
	w.today = created
	w.mu.Unlock()

	w.logger.Info("checked in", "record_id", created.ID, "status", created.Status)
	w.notifier.Success(fmt.Sprintf("Checked in successfully (%s)", created.Status))
	return OutcomeCheckedIn, created, nil
}

// CheckOut closes today's record. Without an open record it does nothing.
func (w *Widget) CheckOut(ctx context.Context) (Outcome, *attendance.Record, error) {
	if !w.begin() {
		return "", nil, ErrBusy
	}
	defer w.end()

	w.mu.Lock()
	today := w.today
	w.mu.Unlock()

	if !today.CheckedIn() {
		return OutcomeNoop, today, nil
	}

	updated, err := w.table.UpdateCheckOut(ctx, today.ID, w.now())
	if err != nil {
		w.logger.Error("check-out failed", "error", err, "record_id", today.ID)
		w.notifier.Error(MessageCheckOutFailed, err)
		return "", nil, fmt.Errorf("check out: %w", err)
	}

	w.mu.Lock()
	w.today = updated
	w.mu.Unlock()

	w.logger.Info("checked out", "record_id", updated.ID)
	w.notifier.Success("Checked out successfully")
	return OutcomeCheckedOut, updated, nil
}

func (w *Widget) Today() *attendance.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.today
}

func (w *Widget) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Button returns the single action the widget offers for today's record.
func (w *Widget) Button() ButtonState {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.today.CheckedOut():
		return ButtonState{Label: LabelComplete, Disabled: true}
	case w.today.CheckedIn():
		return ButtonState{Label: LabelCheckOut, Disabled: w.loading}
	default:
		return ButtonState{Label: LabelCheckIn, Disabled: w.loading}
	}
}

func (w *Widget) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading {
		return false
	}
	w.loading = true
	return true
}

func (w *Widget) end() {
	w.mu.Lock()
	w.loading = false
	w.mu.Unlock()
}

package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/events"
)

// Repository defines the data access methods for attendance records.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByUserAndDate(ctx context.Context, userID int64, date string) (*Record, error)
	UpdateCheckOut(ctx context.Context, id int64, at time.Time) error
	ListByDate(ctx context.Context, date string, limit, offset int) ([]*Record, error)
}

// Service handles the daily check-in and check-out rules.
type Service struct {
	repo   Repository
	policy Policy
	bus    events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, policy Policy, bus events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Today returns today's record for the user, or nil when there is none.
func (s *Service) Today(ctx context.Context, userID int64) (string, *Record, error) {
	date := s.policy.Date(s.now())

	record, err := s.repo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return date, nil, nil
		}
		s.logger.Error("failed to load today's attendance", "error", err, "user_id", userID, "date", date)
		return date, nil, err
	}
	return date, record, nil
}

// CheckIn creates today's record. The status is fixed at this point.
func (s *Service) CheckIn(ctx context.Context, userID int64) (*Record, error) {
	now := s.now()
	record := &Record{
		UserID:  userID,
		Date:    s.policy.Date(now),
		CheckIn: &now,
		Status:  s.policy.StatusAt(now),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			s.logger.Info("duplicate check-in rejected", "user_id", userID, "date", record.Date)
			return nil, ErrAlreadyCheckedIn
		}
		s.logger.Error("failed to create attendance record", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("checked in",
		"record_id", record.ID,
		"user_id", userID,
		"date", record.Date,
		"status", record.Status)

	s.publish(ctx, events.NewCheckedInEvent(record.ID, userID, record.Date, record.Status, now))

	return record, nil
}

// CheckOut closes today's record. recordID, when non-zero, must match it.
func (s *Service) CheckOut(ctx context.Context, userID, recordID int64) (*Record, error) {
	now := s.now()
	date := s.policy.Date(now)

	record, err := s.repo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrNoOpenCheckIn
		}
		s.logger.Error("failed to load attendance for check-out", "error", err, "user_id", userID)
		return nil, err
	}

	if !record.CheckedIn() || (recordID != 0 && record.ID != recordID) {
		s.logger.Warn("check-out rejected",
			"user_id", userID,
			"record_id", record.ID,
			"requested_record_id", recordID,
			"already_checked_out", record.CheckOut != nil)
		return nil, ErrNoOpenCheckIn
	}

	if err := s.repo.UpdateCheckOut(ctx, record.ID, now); err != nil {
		s.logger.Error("failed to update check-out", "error", err, "record_id", record.ID)
		return nil, err
	}
	record.CheckOut = &now

	s.logger.Info("checked out", "record_id", record.ID, "user_id", userID, "date", date)

	s.publish(ctx, events.NewCheckedOutEvent(record.ID, userID, date, now))

	return record, nil
}

// ListByDate returns every record of a calendar date; an empty date means today.
func (s *Service) ListByDate(ctx context.Context, date string, limit, offset int) (string, []*Record, error) {
	if date == "" {
		date = s.policy.Date(s.now())
	}

	records, err := s.repo.ListByDate(ctx, date, limit, offset)
	if err != nil {
		s.logger.Error("failed to list attendance", "error", err, "date", date)
		return date, nil, err
	}
	return date, records, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

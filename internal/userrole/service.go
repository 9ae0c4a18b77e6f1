package userrole

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/internal/role"
)

type RepositoryAPI interface {
	GetByUserID(ctx context.Context, userID int64) (*Assignment, error)
	Upsert(ctx context.Context, userID int64, roleName string) (*Assignment, error)
}

type Service struct {
	repo   RepositoryAPI
	bus    events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, bus events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Lookup returns the normalised role of userID.
func (s *Service) Lookup(ctx context.Context, userID int64) (*Assignment, error) {
	a, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrTableMissing) {
			s.logger.Warn("role table is missing", "user_id", userID)
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to look up role", "error", err, "user_id", userID)
		}
		return nil, err
	}
	a.Role = role.NormalizeRoleValue(a.Role)
	return a, nil
}

// Assign stores the canonical form of rawRole for userID.
func (s *Service) Assign(ctx context.Context, actorID, userID int64, rawRole string) (*Assignment, error) {
	normalized := role.NormalizeRoleValue(rawRole)
	if !role.IsCanonical(normalized) {
		return nil, ErrInvalidRole
	}

	a, err := s.repo.Upsert(ctx, userID, normalized)
	if err != nil {
		s.logger.Error("failed to assign role", "error", err, "user_id", userID, "role", normalized)
		return nil, err
	}

	s.logger.Info("role assigned", "actor_id", actorID, "user_id", userID, "role", normalized)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewRoleAssignedEvent(actorID, userID, normalized)); err != nil {
			s.logger.Warn("failed to publish event", "event_type", events.EventTypeRoleAssigned, "error", err)
		}
	}
	return a, nil
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	auditDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/audit"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	"gorm.io/datatypes"
)

type RepositoryAPI interface {
	Create(ctx context.Context, entry *auditDatamodel.Entry) error
	List(ctx context.Context, eventType string, limit, offset int) ([]*auditDatamodel.Entry, error)
}

// Subscriber registers event handlers.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register subscribes the recorder to every auditable event type.
func (s *Service) Register(bus Subscriber) {
	for _, t := range events.AuditableTypes() {
		bus.Subscribe(t, s.Record)
	}
}

// Record persists one event. The user_id field of the payload becomes the actor.
func (s *Service) Record(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}

	entry := &auditDatamodel.Entry{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		ActorID:    actorOf(event),
		Payload:    datatypes.JSON(payload),
		OccurredAt: event.OccurredAt(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, eventType string, limit, offset int) ([]*Entry, error) {
	rows, err := s.repo.List(ctx, eventType, limit, offset)
	if err != nil {
		return nil, err
	}
	return FromDataModelSlice(rows), nil
}

func actorOf(event events.Event) *int64 {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return nil
	}
	switch v := data["user_id"].(type) {
	case int64:
		return &v
	case int:
		id := int64(v)
		return &id
	case float64:
		id := int64(v)
		return &id
	default:
		return nil
	}
}

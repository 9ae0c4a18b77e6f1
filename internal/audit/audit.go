package audit

import (
	"encoding/json"
	"time"

	auditDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/audit"
)

// Entry is a persisted domain event.
type Entry struct {
	ID         int64           `json:"id"`
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ActorID    *int64          `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func FromDataModel(e *auditDatamodel.Entry) *Entry {
	return &Entry{
		ID:         e.ID,
		EventID:    e.EventID,
		EventType:  e.EventType,
		ActorID:    e.ActorID,
		Payload:    json.RawMessage(e.Payload),
		OccurredAt: e.OccurredAt,
	}
}

func FromDataModelSlice(entries []*auditDatamodel.Entry) []*Entry {
	result := make([]*Entry, len(entries))
	for i, e := range entries {
		result[i] = FromDataModel(e)
	}
	return result
}

type ListResponse struct {
	Entries []*Entry `json:"entries"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

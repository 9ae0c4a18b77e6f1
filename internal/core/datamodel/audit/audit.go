package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Entry struct {
	ID         int64          `gorm:"primaryKey"`
	EventID    string         `gorm:"column:event_id;uniqueIndex;not null"`
	EventType  string         `gorm:"column:event_type;index;not null"`
	ActorID    *int64         `gorm:"column:actor_id;index"`
	Payload    datatypes.JSON `gorm:"column:payload"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string {
	return "audit_logs"
}

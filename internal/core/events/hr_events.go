package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSignedIn             = "auth.signed_in"
	EventTypeSignedOut            = "auth.signed_out"
	EventTypeAttendanceCheckedIn  = "attendance.checked_in"
	EventTypeAttendanceCheckedOut = "attendance.checked_out"
	EventTypeRoleAssigned         = "role.assigned"
)

// AuditableTypes lists the event types persisted to the audit log.
func AuditableTypes() []string {
	return []string{
		EventTypeSignedIn,
		EventTypeSignedOut,
		EventTypeAttendanceCheckedIn,
		EventTypeAttendanceCheckedOut,
		EventTypeRoleAssigned,
	}
}

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewSignedInEvent(userID int64, email, role string) BaseEvent {
	return newBase(EventTypeSignedIn, map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    role,
	})
}

func NewSignedOutEvent(userID int64) BaseEvent {
	return newBase(EventTypeSignedOut, map[string]interface{}{
		"user_id": userID,
	})
}

func NewCheckedInEvent(recordID, userID int64, date, status string, at time.Time) BaseEvent {
	return newBase(EventTypeAttendanceCheckedIn, map[string]interface{}{
		"record_id": recordID,
		"user_id":   userID,
		"date":      date,
		"status":    status,
		"at":        at.Format(time.RFC3339),
	})
}

func NewCheckedOutEvent(recordID, userID int64, date string, at time.Time) BaseEvent {
	return newBase(EventTypeAttendanceCheckedOut, map[string]interface{}{
		"record_id": recordID,
		"user_id":   userID,
		"date":      date,
		"at":        at.Format(time.RFC3339),
	})
}

func NewRoleAssignedEvent(actorID, userID int64, role string) BaseEvent {
	return newBase(EventTypeRoleAssigned, map[string]interface{}{
		"user_id": actorID,
		"subject": userID,
		"role":    role,
	})
}

package attendance

import (
	"fmt"
	"time"
)

// CheckOutDTO optionally pins the record being closed.
type CheckOutDTO struct {
	RecordID int64 `json:"record_id,omitempty"`
}

// TodayResponse wraps the possibly absent today-record.
type TodayResponse struct {
	Date   string  `json:"date"`
	Record *Record `json:"record"`
}

type ListResponse struct {
	Date    string    `json:"date"`
	Records []*Record `json:"records"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

// ParseDate validates a YYYY-MM-DD work date.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return t.Format(DateLayout), nil
}

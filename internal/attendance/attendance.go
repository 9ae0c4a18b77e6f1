package attendance

import (
	"errors"
	"time"

	attendanceDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/attendance"
)

const (
	StatusPresent = "present"
	StatusLate    = "late"
)

// DateLayout is the calendar date format used for work dates.
const DateLayout = "2006-01-02"

// Record is the single attendance row for a user and a calendar date.
type Record struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Date      string     `json:"date"`
	CheckIn   *time.Time `json:"check_in"`
	CheckOut  *time.Time `json:"check_out"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CheckedIn reports a check-in without a check-out.
func (r *Record) CheckedIn() bool {
	return r != nil && r.CheckIn != nil && r.CheckOut == nil
}

// CheckedOut reports that both timestamps are set.
func (r *Record) CheckedOut() bool {
	return r != nil && r.CheckIn != nil && r.CheckOut != nil
}

var (
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrDuplicateRecord  = errors.New("attendance record already exists for user and date")
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNoOpenCheckIn    = errors.New("no open check-in for today")
)

func ToDataModel(r *Record) *attendanceDatamodel.Record {
	return &attendanceDatamodel.Record{
		ID:         r.ID,
		UserID:     r.UserID,
		WorkDate:   r.Date,
		CheckInAt:  r.CheckIn,
		CheckOutAt: r.CheckOut,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func FromDataModel(r *attendanceDatamodel.Record) *Record {
	return &Record{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.WorkDate,
		CheckIn:   r.CheckInAt,
		CheckOut:  r.CheckOutAt,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModelSlice(records []*attendanceDatamodel.Record) []*Record {
	result := make([]*Record, len(records))
	for i, r := range records {
		result[i] = FromDataModel(r)
	}
	return result
}

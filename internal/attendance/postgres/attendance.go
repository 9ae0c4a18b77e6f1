package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/attendance"
	attendanceDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/attendance"
	"gorm.io/gorm"
)

// AttendanceRepository implements attendance.Repository using GORM.
type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts the record; a second row for the same user and date is
// reported as attendance.ErrDuplicateRecord.
func (r *AttendanceRepository) Create(ctx context.Context, record *attendance.Record) error {
	row := attendance.ToDataModel(record)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if internal.IsUniqueViolation(err) {
			return attendance.ErrDuplicateRecord
		}
		return err
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	record.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *AttendanceRepository) GetByUserAndDate(ctx context.Context, userID int64, date string) (*attendance.Record, error) {
	var row attendanceDatamodel.Record
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date = ?", userID, date).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, err
	}
	return attendance.FromDataModel(&row), nil
}

// UpdateCheckOut sets check_out_at only while it is still empty.
func (r *AttendanceRepository) UpdateCheckOut(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&attendanceDatamodel.Record{}).
		Where("id = ? AND check_out_at IS NULL", id).
		Updates(map[string]interface{}{
			"check_out_at": at,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return attendance.ErrNoOpenCheckIn
	}
	return nil
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, date string, limit, offset int) ([]*attendance.Record, error) {
	var rows []*attendanceDatamodel.Record
	err := r.db.WithContext(ctx).
		Where("work_date = ?", date).
		Order("check_in_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return attendance.FromDataModelSlice(rows), nil
}

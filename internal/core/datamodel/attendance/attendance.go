package attendance

import "time"

type Record struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;uniqueIndex:uq_attendance_user_date"`
	WorkDate   string     `gorm:"column:work_date;type:varchar(10);not null;uniqueIndex:uq_attendance_user_date"`
	CheckInAt  *time.Time `gorm:"column:check_in_at"`
	CheckOutAt *time.Time `gorm:"column:check_out_at"`
	Status     string     `gorm:"column:status;type:varchar(16);not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "attendance_records"
}

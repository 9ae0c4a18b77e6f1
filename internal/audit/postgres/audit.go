package postgres

import (
	"context"

	"github.com/frahmantamala/hr-portal/internal"
	auditDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create ignores redelivered events.
func (r *AuditRepository) Create(ctx context.Context, entry *auditDatamodel.Entry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if internal.IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *AuditRepository) List(ctx context.Context, eventType string, limit, offset int) ([]*auditDatamodel.Entry, error) {
	query := r.db.WithContext(ctx).Model(&auditDatamodel.Entry{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var rows []*auditDatamodel.Entry
	err := query.Order("occurred_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

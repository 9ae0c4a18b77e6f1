package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	userroleDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/userrole"
	"github.com/frahmantamala/hr-portal/internal/userrole"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRoleRepository struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

// GetByUserID distinguishes a missing row from a missing table.
func (r *UserRoleRepository) GetByUserID(ctx context.Context, userID int64) (*userrole.Assignment, error) {
	var row userroleDatamodel.UserRole
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, userrole.ErrNotFound
		case internal.IsUndefinedTable(err):
			return nil, userrole.ErrTableMissing
		default:
			return nil, err
		}
	}
	return userrole.FromDataModel(&row), nil
}

func (r *UserRoleRepository) Upsert(ctx context.Context, userID int64, roleName string) (*userrole.Assignment, error) {
	now := time.Now()
	row := userroleDatamodel.UserRole{
		UserID:    userID,
		Role:      roleName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"role": roleName, "updated_at": now}),
	}).Create(&row).Error
	if err != nil {
		if internal.IsUndefinedTable(err) {
			return nil, userrole.ErrTableMissing
		}
		return nil, err
	}

	return &userrole.Assignment{UserID: userID, Role: roleName, UpdatedAt: now}, nil
}

package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/auth"
	userDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/user"
	userroleDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/userrole"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	tokenRole := ""
	if row.Role != nil {
		tokenRole = *row.Role
	}
	effective, err := r.effectiveRole(ctx, row.ID, tokenRole)
	if err != nil {
		return nil, err
	}

	return &auth.Credentials{
		UserID:       row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Department:   row.Department,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		TokenRole:    tokenRole,
		Role:         effective,
	}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).First(&row, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	tokenRole := ""
	if row.Role != nil {
		tokenRole = *row.Role
	}
	effective, err := r.effectiveRole(ctx, row.ID, tokenRole)
	if err != nil {
		return nil, err
	}

	return &auth.User{
		ID:         row.ID,
		Email:      row.Email,
		Name:       row.Name,
		Department: row.Department,
		Role:       effective,
		IsActive:   row.IsActive,
	}, nil
}

// effectiveRole falls back to the role table when the user row carries no
// role. A missing role table is treated as no role.
func (r *Repository) effectiveRole(ctx context.Context, userID int64, userRole string) (string, error) {
	if userRole != "" {
		return userRole, nil
	}

	var row userroleDatamodel.UserRole
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	switch {
	case err == nil:
		return row.Role, nil
	case errors.Is(err, gorm.ErrRecordNotFound), internal.IsUndefinedTable(err):
		return "", nil
	default:
		return "", err
	}
}

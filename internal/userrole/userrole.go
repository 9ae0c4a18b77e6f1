package userrole

import (
	"errors"
	"time"

	userroleDatamodel "github.com/frahmantamala/hr-portal/internal/core/datamodel/userrole"
)

// Assignment is a user's entry in the role table.
type Assignment struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound     = errors.New("no role assigned")
	ErrTableMissing = errors.New("user_roles table does not exist")
	ErrInvalidRole  = errors.New("invalid role")
)

func FromDataModel(r *userroleDatamodel.UserRole) *Assignment {
	return &Assignment{
		UserID:    r.UserID,
		Role:      r.Role,
		UpdatedAt: r.UpdatedAt,
	}
}

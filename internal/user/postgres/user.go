package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/user"
	"github.com/jmoiron/sqlx"
)

func NewPostgresRepo(db *sqlx.DB) *PgRepo {
	return &PgRepo{db: db}
}

// PgRepo reads profiles with plain SQL through sqlx.
type PgRepo struct {
	db *sqlx.DB
}

const selectUserByID = `
SELECT id, email, name, COALESCE(department, '') AS department, COALESCE(role, '') AS role,
       is_active, created_at, updated_at
FROM users
WHERE id = $1`

const selectRoleByUserID = `SELECT role FROM user_roles WHERE user_id = $1`

func (p *PgRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := p.db.GetContext(ctx, &u, selectUserByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	if u.Role != "" {
		return &u, nil
	}

	var roleName string
	err := p.db.GetContext(ctx, &roleName, selectRoleByUserID, id)
	switch {
	case err == nil:
		u.Role = roleName
	case errors.Is(err, sql.ErrNoRows), internal.IsUndefinedTable(err):
	default:
		return nil, fmt.Errorf("select user role: %w", err)
	}
	return &u, nil
}

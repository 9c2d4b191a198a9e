package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RoleRepo handles roles.
type RoleRepo struct {
	db DBTX
}

func NewRoleRepo(db DBTX) *RoleRepo { return &RoleRepo{db: db} }

func (r *RoleRepo) Upsert(ctx context.Context, role Role) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO roles(id, name, experience_level)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 experience_level=excluded.experience_level;
	`, role.ID, role.Name, role.ExperienceLevel)
	return err
}

func (r *RoleRepo) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, experience_level, created_at FROM roles ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.ExperienceLevel, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// Get returns nil when the role does not exist.
func (r *RoleRepo) Get(ctx context.Context, id string) (*Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, experience_level, created_at FROM roles WHERE id = ?`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.ExperienceLevel, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/tariffdesk/internal/database/repository"
)

// DefaultRoles are created on an empty database.
var DefaultRoles = []repository.Role{
	{Name: "Desarrollador", ExperienceLevel: "Junior"},
	{Name: "Desarrollador", ExperienceLevel: "Semi Senior"},
	{Name: "Desarrollador", ExperienceLevel: "Senior"},
	{Name: "Analista Funcional", ExperienceLevel: "Senior"},
	{Name: "QA", ExperienceLevel: "Semi Senior"},
	{Name: "Líder Técnico", ExperienceLevel: "Senior"},
	{Name: "Project Manager", ExperienceLevel: "Senior"},
}

// RoleID derives a stable id from a role's name and level.
func RoleID(name, level string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("role:"+name+"|"+level)).String()
}

// SeedDefaults ensures baseline roles exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	roles := repository.NewRoleRepo(db)
	existing, err := roles.List(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}
	for _, r := range DefaultRoles {
		r.ID = RoleID(r.Name, r.ExperienceLevel)
		if err := roles.Upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

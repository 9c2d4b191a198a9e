package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/tariffdesk/internal/database"
	"github.com/jask/tariffdesk/internal/database/repository"
)

func newDB(t *testing.T) repository.DBTX {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.db")
	require.NoError(t, database.RunMigrations(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTariffSetClearList(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	roles := repository.NewRoleRepo(db)
	tariffs := repository.NewTariffRepo(db)

	require.NoError(t, roles.Upsert(ctx, repository.Role{ID: "r1", Name: "Dev", ExperienceLevel: "Sr"}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "r1", Year: 2024, Month: 2, HourlyRate: 10}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "r1", Year: 2024, Month: 1, HourlyRate: 9}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "r1", Year: 2024, Month: 2, HourlyRate: 12}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "r1", Year: 2025, Month: 1, HourlyRate: 99}))

	got, err := tariffs.ListYear(ctx, 2024)
	require.NoError(t, err)
	require.Equal(t, []repository.Tariff{
		{RoleID: "r1", Year: 2024, Month: 1, HourlyRate: 9},
		{RoleID: "r1", Year: 2024, Month: 2, HourlyRate: 12},
	}, got)

	require.NoError(t, tariffs.Clear(ctx, "r1", 2024, 1))
	require.NoError(t, tariffs.Clear(ctx, "r1", 2024, 7))
	got, err = tariffs.ListYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, got, 1)

	err = tariffs.Set(ctx, repository.Tariff{RoleID: "ghost", Year: 2024, Month: 1, HourlyRate: 1})
	require.Error(t, err, "foreign key enforced")
}

func TestRoleGetMissing(t *testing.T) {
	role, err := repository.NewRoleRepo(newDB(t)).Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, role)
}

func TestCostLinesJoinTariffs(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	require.NoError(t, repository.NewRoleRepo(db).Upsert(ctx, repository.Role{ID: "dev", Name: "Dev"}))
	require.NoError(t, repository.NewRoleRepo(db).Upsert(ctx, repository.Role{ID: "qa", Name: "QA"}))
	require.NoError(t, repository.NewTariffRepo(db).Set(ctx, repository.Tariff{RoleID: "dev", Year: 2024, Month: 3, HourlyRate: 20}))
	require.NoError(t, repository.NewProjectRepo(db).Upsert(ctx, repository.Project{ID: "p1", Name: "Portal"}))
	res := repository.NewResourceRepo(db)
	require.NoError(t, res.Upsert(ctx, repository.Resource{ID: "a", Name: "Ana", RoleID: "dev", Seniority: "Sr"}))
	require.NoError(t, res.Upsert(ctx, repository.Resource{ID: "b", Name: "Beto", RoleID: "qa", Seniority: "Jr"}))
	ts := repository.NewTimesheetRepo(db)
	require.NoError(t, ts.Upsert(ctx, repository.Timesheet{ProjectID: "p1", ResourceID: "a", Year: 2024, Month: 3, Hours: 10}))
	require.NoError(t, ts.Upsert(ctx, repository.Timesheet{ProjectID: "p1", ResourceID: "b", Year: 2024, Month: 3, Hours: 4}))

	lines, err := ts.CostLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, "Ana", lines[0].ResourceName)
	require.NotNil(t, lines[0].HourlyRate)
	require.Equal(t, 20.0, *lines[0].HourlyRate)
	require.Equal(t, "QA", lines[1].RoleName)
	require.Nil(t, lines[1].HourlyRate)

	projects, err := repository.NewProjectRepo(db).List(ctx)
	require.NoError(t, err)
	require.Equal(t, []repository.Project{{ID: "p1", Name: "Portal"}}, projects)
}

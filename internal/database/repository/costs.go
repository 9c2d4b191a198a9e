package repository

import (
	"context"
)

// ProjectRepo handles projects.
type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(db DBTX) *ProjectRepo { return &ProjectRepo{db: db} }

func (r *ProjectRepo) Upsert(ctx context.Context, p Project) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO projects(id, name) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name;
	`, p.ID, p.Name)
	return err
}

func (r *ProjectRepo) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ResourceRepo handles resources.
type ResourceRepo struct {
	db DBTX
}

func NewResourceRepo(db DBTX) *ResourceRepo { return &ResourceRepo{db: db} }

func (r *ResourceRepo) Upsert(ctx context.Context, res Resource) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO resources(id, name, role_id, seniority) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 role_id=excluded.role_id,
	 seniority=excluded.seniority;
	`, res.ID, res.Name, res.RoleID, res.Seniority)
	return err
}

// TimesheetRepo handles logged hours and the cost join.
type TimesheetRepo struct {
	db DBTX
}

func NewTimesheetRepo(db DBTX) *TimesheetRepo { return &TimesheetRepo{db: db} }

func (r *TimesheetRepo) Upsert(ctx context.Context, ts Timesheet) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO timesheets(project_id, resource_id, year, month, hours) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(project_id, resource_id, year, month) DO UPDATE SET hours=excluded.hours;
	`, ts.ProjectID, ts.ResourceID, ts.Year, ts.Month, ts.Hours)
	return err
}

// CostLines joins every timesheet with the tariff of its resource's role
// for the same month, ordered by project, period and resource.
func (r *TimesheetRepo) CostLines(ctx context.Context) ([]CostLine, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT p.id, p.name, ts.year, ts.month, res.id, res.name, ro.name, res.seniority, ts.hours, t.hourly_rate
	FROM timesheets ts
	JOIN projects p ON p.id = ts.project_id
	JOIN resources res ON res.id = ts.resource_id
	JOIN roles ro ON ro.id = res.role_id
	LEFT JOIN tariffs t ON t.role_id = res.role_id AND t.year = ts.year AND t.month = ts.month
	ORDER BY p.name, p.id, ts.year, ts.month, res.name, res.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CostLine
	for rows.Next() {
		var c CostLine
		if err := rows.Scan(&c.ProjectID, &c.ProjectName, &c.Year, &c.Month, &c.ResourceID,
			&c.ResourceName, &c.RoleName, &c.Seniority, &c.Hours, &c.HourlyRate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

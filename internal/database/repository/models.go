package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so repos can run inside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Role represents a role row.
type Role struct {
	ID              string
	Name            string
	ExperienceLevel string
	CreatedAt       time.Time
}

// Tariff is the hourly rate of a role for one month.
type Tariff struct {
	RoleID     string
	Year       int
	Month      int
	HourlyRate float64
}

// Project represents a project row.
type Project struct {
	ID   string
	Name string
}

// Resource is a person billed to projects under a role.
type Resource struct {
	ID        string
	Name      string
	RoleID    string
	Seniority string
}

// Timesheet is the hours a resource worked on a project in a month.
type Timesheet struct {
	ProjectID  string
	ResourceID string
	Year       int
	Month      int
	Hours      float64
}

// CostLine is one timesheet joined with its resource, role and tariff.
// HourlyRate is nil when the role has no tariff for the month.
type CostLine struct {
	ProjectID    string
	ProjectName  string
	Year         int
	Month        int
	ResourceID   string
	ResourceName string
	RoleName     string
	Seniority    string
	Hours        float64
	HourlyRate   *float64
}

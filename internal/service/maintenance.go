package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jask/tariffdesk/internal/database"
)

// resetOrder lists tables children first so foreign keys never block a delete.
var resetOrder = []string{"timesheets", "resources", "projects", "tariffs", "roles"}

// MaintenanceService backs the tariffd -reset flag.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset empties every table in one transaction and compacts the file. The
// schema and migration version are left alone.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("maintenance: db not configured")
	}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, table := range resetOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("maintenance: vacuum: %w", err)
	}
	return nil
}

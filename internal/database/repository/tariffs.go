package repository

import (
	"context"
)

// TariffRepo handles monthly role tariffs.
type TariffRepo struct {
	db DBTX
}

func NewTariffRepo(db DBTX) *TariffRepo { return &TariffRepo{db: db} }

// Set stores the rate for one role and month, replacing any previous value.
func (r *TariffRepo) Set(ctx context.Context, t Tariff) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tariffs(role_id, year, month, hourly_rate, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(role_id, year, month) DO UPDATE SET
	 hourly_rate=excluded.hourly_rate,
	 updated_at=CURRENT_TIMESTAMP;
	`, t.RoleID, t.Year, t.Month, t.HourlyRate)
	return err
}

// Clear removes a month's rate. Clearing a missing rate is not an error.
func (r *TariffRepo) Clear(ctx context.Context, roleID string, year, month int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tariffs WHERE role_id = ? AND year = ? AND month = ?`, roleID, year, month)
	return err
}

// ListYear returns every stored rate of year ordered by role and month.
func (r *TariffRepo) ListYear(ctx context.Context, year int) ([]Tariff, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT role_id, year, month, hourly_rate
	FROM tariffs WHERE year = ?
	ORDER BY role_id, month`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tariff
	for rows.Next() {
		var t Tariff
		if err := rows.Scan(&t.RoleID, &t.Year, &t.Month, &t.HourlyRate); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

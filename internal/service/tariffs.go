package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/database"
	"github.com/jask/tariffdesk/internal/database/repository"
	"github.com/jask/tariffdesk/internal/events"
	"github.com/jask/tariffdesk/internal/log"
)

var (
	ErrValidation   = errors.New("invalid tariff update")
	ErrRoleNotFound = errors.New("role not found")
)

// TariffService reads and writes monthly role tariffs.
type TariffService struct {
	DB     *sql.DB
	Events events.Publisher
	Logger *log.Logger
	Now    func() time.Time
}

// Year returns every role with the months stored for year. Months without
// a rate are omitted; the client fills them with nulls.
func (s *TariffService) Year(ctx context.Context, year int) (api.YearTariffs, error) {
	if err := validYear(year); err != nil {
		return api.YearTariffs{}, err
	}
	roles, err := repository.NewRoleRepo(s.DB).List(ctx)
	if err != nil {
		return api.YearTariffs{}, fmt.Errorf("list roles: %w", err)
	}
	rates, err := repository.NewTariffRepo(s.DB).ListYear(ctx, year)
	if err != nil {
		return api.YearTariffs{}, fmt.Errorf("list tariffs %d: %w", year, err)
	}
	byRole := make(map[string]api.MonthlyRates)
	for _, t := range rates {
		if byRole[t.RoleID] == nil {
			byRole[t.RoleID] = api.MonthlyRates{}
		}
		byRole[t.RoleID][t.Month] = api.Rate(t.HourlyRate)
	}
	out := api.YearTariffs{Year: year, Roles: make([]api.RoleRate, 0, len(roles))}
	for _, r := range roles {
		values := byRole[r.ID]
		if values == nil {
			values = api.MonthlyRates{}
		}
		out.Roles = append(out.Roles, api.RoleRate{ID: r.ID, Name: r.Name, ExperienceLevel: r.ExperienceLevel, Values: values})
	}
	return out, nil
}

// UpdateRole applies one role's changes for one year.
func (s *TariffService) UpdateRole(ctx context.Context, roleID string, u api.RoleUpdate) error {
	return s.Bulk(ctx, []api.BulkItem{{RoleID: roleID, Year: u.Year, Values: u.Values, Cleared: u.Cleared}})
}

// Bulk applies every item in one transaction. Any invalid item or unknown
// role rejects the whole batch. A tariffs-updated event is published after
// commit; publishing failures are logged, not returned.
func (s *TariffService) Bulk(ctx context.Context, items []api.BulkItem) error {
	for i, it := range items {
		if err := validateItem(it); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if len(items) == 0 {
		return nil
	}

	cells := 0
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		roles := repository.NewRoleRepo(tx)
		tariffs := repository.NewTariffRepo(tx)
		for _, it := range items {
			role, err := roles.Get(ctx, it.RoleID)
			if err != nil {
				return fmt.Errorf("get role %s: %w", it.RoleID, err)
			}
			if role == nil {
				return fmt.Errorf("%w: %s", ErrRoleNotFound, it.RoleID)
			}
			for month, rate := range it.Values {
				if err := tariffs.Set(ctx, repository.Tariff{RoleID: it.RoleID, Year: it.Year, Month: month, HourlyRate: rate}); err != nil {
					return fmt.Errorf("set tariff %s %d-%02d: %w", it.RoleID, it.Year, month, err)
				}
				cells++
			}
			for _, month := range it.Cleared {
				if err := tariffs.Clear(ctx, it.RoleID, it.Year, month); err != nil {
					return fmt.Errorf("clear tariff %s %d-%02d: %w", it.RoleID, it.Year, month, err)
				}
				cells++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger().InfoContext(ctx, "tariffs updated", log.FieldOperation, log.OpBulk, log.FieldUpdates, cells)
	s.publish(ctx, items, cells)
	return nil
}

func (s *TariffService) publish(ctx context.Context, items []api.BulkItem, cells int) {
	if s.Events == nil {
		return
	}
	roleYears := make(map[string][]int)
	for _, it := range items {
		roleYears[it.RoleID] = append(roleYears[it.RoleID], it.Year)
	}
	ev := events.NewTariffsUpdated(roleYears, cells, s.now())
	if err := s.Events.PublishTariffsUpdated(ctx, ev); err != nil {
		s.logger().WarnContext(ctx, "publish tariffs updated failed", log.FieldError, err)
	}
}

func (s *TariffService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TariffService) logger() *log.Logger {
	if s.Logger == nil {
		return log.Discard()
	}
	return s.Logger.WithComponent(log.ComponentTariffs)
}

func validYear(year int) error {
	if year < 1900 || year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrValidation, year)
	}
	return nil
}

func validateItem(it api.BulkItem) error {
	if it.RoleID == "" {
		return fmt.Errorf("%w: rolId is required", ErrValidation)
	}
	if err := validYear(it.Year); err != nil {
		return err
	}
	for month, rate := range it.Values {
		if month < 1 || month > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrValidation, month)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
			return fmt.Errorf("%w: rate for month %d must be a non-negative number", ErrValidation, month)
		}
	}
	for _, month := range it.Cleared {
		if month < 1 || month > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrValidation, month)
		}
		if _, both := it.Values[month]; both {
			return fmt.Errorf("%w: month %d is both set and cleared", ErrValidation, month)
		}
	}
	return nil
}

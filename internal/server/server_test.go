package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/database"
	"github.com/jask/tariffdesk/internal/database/repository"
	"github.com/jask/tariffdesk/internal/events"
	"github.com/jask/tariffdesk/internal/service"
	"github.com/jask/tariffdesk/internal/tariff"
)

type fixture struct {
	srv    *httptest.Server
	client *api.Client
	events *events.Recorder
}

func newFixture(t *testing.T, token string) fixture {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "server.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	roles := repository.NewRoleRepo(db)
	require.NoError(t, roles.Upsert(ctx, repository.Role{ID: "dev", Name: "Desarrollador", ExperienceLevel: "Senior"}))
	require.NoError(t, roles.Upsert(ctx, repository.Role{ID: "an", Name: "Analista", ExperienceLevel: "Junior"}))
	tariffs := repository.NewTariffRepo(db)
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "dev", Year: 2023, Month: 12, HourlyRate: 90}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "dev", Year: 2024, Month: 1, HourlyRate: 100}))
	require.NoError(t, tariffs.Set(ctx, repository.Tariff{RoleID: "an", Year: 2025, Month: 1, HourlyRate: 45}))

	rec := events.NewRecorder()
	s := &Server{
		Tariffs: &service.TariffService{DB: db, Events: rec},
		Costs:   &service.CostService{DB: db},
		Token:   token,
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, client: api.NewClient(srv.URL, 2*time.Second, api.WithToken(token)), events: rec}
}

func TestWindowLoadReconciles(t *testing.T) {
	f := newFixture(t, "")
	data, err := f.client.FetchWindow(context.Background(), 2024)
	require.NoError(t, err)

	periods := tariff.BuildPeriods(2024, "es")
	r := tariff.Reconcile(periods, "es", data...)
	require.Equal(t, "Analista", r.Roles[0].Name)
	require.Equal(t, tariff.Num(90), r.Values.Get("dev", "2023-12"))
	require.Equal(t, tariff.Num(100), r.Values.Get("dev", "2024-01"))
	require.Equal(t, tariff.Num(45), r.Values.Get("an", "2025-01"))
	require.True(t, r.Values.Get("an", "2024-06").IsNull())
}

func TestSaveRoundTripThroughServer(t *testing.T) {
	f := newFixture(t, "tok")
	ctx := context.Background()

	data, err := f.client.FetchWindow(ctx, 2024)
	require.NoError(t, err)
	s := tariff.NewSession(2024, "es")
	s.Replace(2024, s.Periods, tariff.Reconcile(s.Periods, "es", data...))

	s.Apply("dev", "2024-01", tariff.Num(120))
	s.Apply("dev", "2023-12", tariff.Null())
	s.Apply("an", "2024-02", tariff.Num(50))
	updates := s.Pending()
	require.NoError(t, f.client.BulkUpdate(ctx, api.BulkFromUpdates(updates)))
	s.Commit(updates)
	require.False(t, s.HasChanges())

	data, err = f.client.FetchWindow(ctx, 2024)
	require.NoError(t, err)
	fresh := tariff.Reconcile(s.Periods, "es", data...)
	require.Equal(t, s.Baseline, fresh.Baseline)
	require.Len(t, f.events.Events(), 1)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, "tok")
	_, err := api.NewClient(f.srv.URL, time.Second).FetchCosts(context.Background())
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.Code)

	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	err := f.client.UpdateRole(ctx, "ghost", api.RoleUpdate{Year: 2024, Values: map[int]float64{1: 1}})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Code)

	err = f.client.BulkUpdate(ctx, []api.BulkItem{{RoleID: "dev", Year: 2024, Values: map[int]float64{13: 1}}})
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)
	require.Contains(t, se.Body, "month 13")

	_, err = f.client.FetchTariffs(ctx, 0)
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)

	req, err := http.NewRequest(http.MethodPut, f.srv.URL+"/api/tarifas", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/api/tarifas?anio=abc")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCostsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	got, err := f.client.FetchCosts(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

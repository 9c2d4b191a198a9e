// Package server is the reference HTTP implementation of the tariff API.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/log"
)

// TariffStore is the tariff side of the service layer.
type TariffStore interface {
	Year(ctx context.Context, year int) (api.YearTariffs, error)
	UpdateRole(ctx context.Context, roleID string, u api.RoleUpdate) error
	Bulk(ctx context.Context, items []api.BulkItem) error
}

// CostReporter produces the project cost report.
type CostReporter interface {
	Report(ctx context.Context) ([]api.ProjectCost, error)
}

type Server struct {
	Tariffs TariffStore
	Costs   CostReporter
	// Token, when set, is required as a bearer token on /api routes.
	Token  string
	Logger *log.Logger
}

// Router wires every route.
func (s *Server) Router() *mux.Router {
	logger := s.Logger
	if logger == nil {
		logger = log.Discard()
	}
	router := mux.NewRouter()
	router.Use(log.Middleware(logger))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.requireToken)
	apiRouter.HandleFunc("/tarifas", s.getTariffs).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tarifas", s.bulkUpdate).Methods(http.MethodPut)
	apiRouter.HandleFunc("/tarifas/{rolId}", s.updateRole).Methods(http.MethodPut)
	apiRouter.HandleFunc("/costos", s.getCosts).Methods(http.MethodGet)
	return router
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

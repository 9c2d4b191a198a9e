package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/service"
)

const maxBody = 1 << 20

func (s *Server) getTariffs(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("anio"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "anio must be a year")
		return
	}
	out, err := s.Tariffs.Year(r.Context(), year)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var body api.RoleUpdate
	if !decode(w, r, &body) {
		return
	}
	if err := s.Tariffs.UpdateRole(r.Context(), mux.Vars(r)["rolId"], body); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var items []api.BulkItem
	if !decode(w, r, &items) {
		return
	}
	if err := s.Tariffs.Bulk(r.Context(), items); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCosts(w http.ResponseWriter, r *http.Request) {
	out, err := s.Costs.Report(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// fail maps service errors: validation 400, unknown role 404, else 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", log.FieldPath, r.URL.Path, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

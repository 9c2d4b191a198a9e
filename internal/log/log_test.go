package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentAPI, Output: &buf})
	l.Info("fetched", FieldYear, 2024)
	require.Contains(t, buf.String(), "component=api")
	require.Contains(t, buf.String(), "year=2024")

	buf.Reset()
	l.WithComponent(ComponentTUI).Debug("hidden")
	require.Empty(t, buf.String())
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf})
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Same(t, l, FromContext(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tarifas?anio=2024", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "status_code=404")
	require.Contains(t, out, "component=http")
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	rec := New(false)
	_, ok := rec.(noop)
	require.True(t, ok)

	rec.ObserveRequest("/x", http.MethodGet, 200, time.Millisecond)
	rec.IncToggle("favorite", true)
	rec.GaugeFunc("x", "x", func() float64 { return 1 })

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetrics_CountersAndExposition(t *testing.T) {
	m := New(true).(*Metrics)

	m.IncToggle("favorite", true)
	m.IncToggle("favorite", true)
	m.IncToggle("owned", false)
	m.IncTeamChoice(true)
	m.IncAjaxFailure("toggle_collection", "auth")
	m.GaugeFunc("sse_clients", "Connected SSE clients", func() float64 { return 3 })

	assert.InDelta(t, 2, testutil.ToFloat64(m.togglesTotal.WithLabelValues("favorite", "on")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.togglesTotal.WithLabelValues("owned", "off")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ajaxFailures.WithLabelValues("toggle_collection", "auth")), 0)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "gameshelf_collection_toggles_total")
	assert.Contains(t, body, "gameshelf_sse_clients 3")
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New(true).(*Metrics)

	r := chi.NewRouter()
	r.Use(Middleware(m))
	r.Get("/api/v1/games/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/games/"+id, nil))
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/games/{id}", http.MethodGet, "4xx")), 0)

	count, err := testutil.GatherAndCount(m.Registry(), "gameshelf_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

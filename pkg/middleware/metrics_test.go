package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	const svc = "metrics-route-test"

	r := chi.NewRouter()
	r.Use(PrometheusMetrics(svc))
	r.Get("/api/v1/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+id, nil))
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(svc, http.MethodGet, "/api/v1/bookings/{id}", "404"))
	assert.Equal(t, float64(3), got)
}

func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	const svc = "metrics-default-status"

	r := chi.NewRouter()
	r.Use(PrometheusMetrics(svc))
	r.Get("/api/v1/listings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(svc, http.MethodGet, "/api/v1/listings", "200"))
	assert.Equal(t, float64(1), got)
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	const svc = "metrics-inflight"

	var during float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(svc))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight.WithLabelValues(svc))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues(svc)))
}

// ---------------------------------------------------------------------------
// statusRecorder
// ---------------------------------------------------------------------------

type flushHijackWriter struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (f *flushHijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	f.hijacked = true
	return nil, nil, nil
}

type bareWriter struct{ h http.Header }

func (b *bareWriter) Header() http.Header { return b.h }

func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }

func (b *bareWriter) WriteHeader(int) {}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusCreated, rec.status)
}

func TestStatusRecorder_ReusesExistingRecorder(t *testing.T) {
	inner := newStatusRecorder(httptest.NewRecorder())
	assert.Same(t, inner, newStatusRecorder(inner))
}

func TestStatusRecorder_DelegatesFlushAndHijack(t *testing.T) {
	under := &flushHijackWriter{ResponseRecorder: httptest.NewRecorder()}
	rec := newStatusRecorder(under)

	rec.Flush()
	assert.True(t, under.Flushed)

	_, _, err := rec.Hijack()
	assert.NoError(t, err)
	assert.True(t, under.hijacked)
}

func TestStatusRecorder_HijackUnsupported(t *testing.T) {
	rec := newStatusRecorder(&bareWriter{h: http.Header{}})
	rec.Flush()
	_, _, err := rec.Hijack()
	assert.Error(t, err)
	assert.NotNil(t, rec.Unwrap())
}

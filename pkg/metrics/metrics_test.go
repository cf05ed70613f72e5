package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tagline/pkg/metrics"
)

func TestOperationMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	m, err := metrics.NewOperationMetrics(reg, "tagline", "ledger")
	require.NoError(t, err)

	m.Observe("apply", time.Now(), nil)
	m.Observe("apply", time.Now(), nil)
	m.Observe("apply", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Count("apply", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Count("apply", metrics.StatusError)))

	_, err = metrics.NewOperationMetrics(reg, "tagline", "ledger")
	assert.True(t, metrics.IsAlreadyRegistered(err))
}

func TestNilOperationMetricsIsNoop(t *testing.T) {
	var m *metrics.OperationMetrics
	assert.NotPanics(t, func() { m.Observe("apply", time.Now(), nil) })
}

func TestHTTPMetricsAndHandler(t *testing.T) {
	reg := metrics.NewRegistry()
	hm, err := metrics.NewHTTPMetrics(reg, "tagline")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /labels/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := hm.Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/labels/a", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/labels/b", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `tagline_http_requests_total{pattern="GET /labels/{id}",status_code="200"} 2`)
	assert.Contains(t, string(body), `tagline_http_requests_total{pattern="unmatched",status_code="404"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

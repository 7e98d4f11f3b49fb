package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/obs"
)

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("resto", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/orders/track/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/track/R-7K2M9Q", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/orders/track/{code}", "204")))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestRequestLoggerIncludesAnnotations(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLogger(obs.LogConfig{Level: "debug", Service: "resto-api", Out: &buf})

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				obs.Annotate(req.Context(), "tenant", "warung-sate")
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/menu/{slug}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{}"))
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/menu/sate-ayam", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "resto-api", line["service"])
	require.Equal(t, "/api/v1/menu/{slug}", line["route"])
	require.Equal(t, "warung-sate", line["tenant"])
	require.Equal(t, float64(200), line["status"])
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 250}, obs.ParseBucketsCSV(" 5, x, -1, 250 ,"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}

package obs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/common"
)

func TestResolveRouteUsesChiPattern(t *testing.T) {
	// the pattern is only available after routing, which is when the
	// metrics/logging middlewares call resolveRoute
	var captured string
	probe := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			captured = resolveRoute(r)
		})
	}

	r := chi.NewRouter()
	r.Use(probe)
	r.Get("/carts/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/carts/abc", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/carts/{id}", captured)
}

func TestResolveRoutePrefersStoredPattern(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/carts/abc", nil)
	req = req.WithContext(common.WithRoutePattern(context.Background(), "/carts/{id}"))
	require.Equal(t, "/carts/{id}", resolveRoute(req))
}

func TestResolveRouteFallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unmatched/path", nil)
	require.Equal(t, "/unmatched/path", resolveRoute(req))
}

func TestHTTPObsRecordsRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("obstest", nil, reg)

	r := chi.NewRouter()
	r.Use(HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/products/{model}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/wp-1100", nil))

	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/products/{model}", "200"))
	require.Equal(t, float64(1), count)
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestStatusRecorderCapturesStatusAndBytes(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	require.Equal(t, http.StatusOK, rec.Status())

	rec.WriteHeader(http.StatusTeapot)
	n, err := rec.Write([]byte("short"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, http.StatusTeapot, rec.Status())
	require.Equal(t, int64(5), rec.BytesWritten())
}

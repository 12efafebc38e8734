package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdemHandler(t *testing.T, status func() int) (http.Handler, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	idem := Idem{R: client, TTL: time.Hour}
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status())
	}))
	return handler, &calls
}

func TestIdemMiddlewareRejectsReplay(t *testing.T) {
	handler, calls := newIdemHandler(t, func() int { return http.StatusCreated })

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/carts", nil)
		req.Header.Set("Idempotency-Key", "order-once")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "request %d", i)
	}
	require.Equal(t, 1, *calls)
}

func TestIdemMiddlewareReleasesKeyOnServerError(t *testing.T) {
	statuses := []int{http.StatusInternalServerError, http.StatusCreated}
	handler, calls := newIdemHandler(t, func() int {
		s := statuses[0]
		if len(statuses) > 1 {
			statuses = statuses[1:]
		}
		return s
	})

	req := httptest.NewRequest(http.MethodPost, "/carts", nil)
	req.Header.Set("Idempotency-Key", "retry-me")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// the failed attempt must not hold the key; the retry runs the handler again
	req = httptest.NewRequest(http.MethodPost, "/carts", nil)
	req.Header.Set("Idempotency-Key", "retry-me")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, *calls)
}

func TestIdemMiddlewareIgnoresMissingHeader(t *testing.T) {
	handler, calls := newIdemHandler(t, func() int { return http.StatusCreated })

	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, 2, *calls)
}

package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/common"
)

func newTestRouter(t *testing.T, store *fakeStore, cache *Cache) *chi.Mux {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: store, Cache: cache, Logger: zerolog.Nop()})
	require.NoError(t, err)
	handler := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/categories", handler.Categories)
	r.Get("/products/options", handler.Wizard)
	r.Get("/products/options/{field}", handler.Options)
	r.Get("/products/find-exact", handler.FindExact)
	r.Get("/partner-cards", handler.PartnerCards)
	return r
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func TestFindExactHandler(t *testing.T) {
	store := &fakeStore{products: []Product{{ID: 7, Model: "WP-100", MonthlyFee: 30000}}}
	router := newTestRouter(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/find-exact?category=water-purifier&model=WP-100&contractYears=5&careType=no-care", nil)
	req = req.WithContext(common.WithChannel(req.Context(), "retail"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var products []Product
	decodeData(t, rec, &products)
	require.Len(t, products, 1)
	require.Equal(t, int64(7), products[0].ID)

	require.Equal(t, "retail", store.lastFilter.Channel)
	require.Equal(t, "water-purifier", store.lastFilter.Category)
	require.Equal(t, 5, store.lastFilter.ContractYears)
	require.Equal(t, SentinelNoCare, store.lastFilter.CareType)
}

func TestOptionsHandler(t *testing.T) {
	store := &fakeStore{options: []OptionRow{{Value: ""}, {Value: "full"}}}
	router := newTestRouter(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/options/prepayOption?model=WP-100", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var options []string
	decodeData(t, rec, &options)
	require.Equal(t, []string{SentinelNoPrepay, "full"}, options)
}

func TestWizardHandlerListsStepsInOrder(t *testing.T) {
	router := newTestRouter(t, &fakeStore{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/options", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var fields []string
	decodeData(t, rec, &fields)
	require.Equal(t, WizardFields(), fields)
	require.Equal(t, "category", fields[0])
	require.Equal(t, "prepayOption", fields[len(fields)-1])
}

func TestOptionsHandlerUnknownField(t *testing.T) {
	router := newTestRouter(t, &fakeStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/options/monthlyFee", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPartnerCardsHandlerUsesCache(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	store := &fakeStore{cards: []PartnerCard{{Issuer: "shinhan", UsageTier: "700000+"}}}
	router := newTestRouter(t, store, cache)

	req := httptest.NewRequest(http.MethodGet, "/partner-cards", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// second call should be served from Redis even if the store empties
	store.cards = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partner-cards", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cards []PartnerCard
	decodeData(t, rec, &cards)
	require.Len(t, cards, 1)
	require.Equal(t, "shinhan", cards[0].Issuer)
}

func TestWarmerPopulatesCaches(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	store := &fakeStore{
		cards:      []PartnerCard{{Issuer: "shinhan", UsageTier: "700000+"}},
		categories: []string{"water-purifier", "air-conditioner"},
	}
	warmer := &Warmer{Store: store, Cache: cache, Logger: zerolog.Nop()}

	task, err := NewWarmCacheTask([]string{"retail"})
	require.NoError(t, err)
	require.NoError(t, warmer.HandleWarmCache(context.Background(), task))

	var cards []PartnerCard
	ok, err := cache.GetJSON(context.Background(), partnerCardsKey("retail"), &cards)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cards, 1)

	var categories []string
	ok, err = cache.GetJSON(context.Background(), categoriesKey("retail"), &categories)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"water-purifier", "air-conditioner"}, categories)
}

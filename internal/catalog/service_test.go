package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/resilience"
)

type fakeStore struct {
	products    []Product
	cards       []PartnerCard
	options     []OptionRow
	categories  []string
	err         error
	lastFilter  Filter
	lastColumn  string
	findCalls   int
	sleepBefore time.Duration
}

func (f *fakeStore) FindExact(ctx context.Context, filter Filter) ([]Product, error) {
	f.findCalls++
	f.lastFilter = filter
	if f.sleepBefore > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.sleepBefore):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeStore) ListPartnerCards(ctx context.Context, channel string) ([]PartnerCard, error) {
	return f.cards, f.err
}

func (f *fakeStore) DistinctOptions(ctx context.Context, column string, filter Filter) ([]OptionRow, error) {
	f.lastColumn = column
	f.lastFilter = filter
	return f.options, f.err
}

func (f *fakeStore) ListCategories(ctx context.Context, channel string) ([]string, error) {
	return f.categories, f.err
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Store:         store,
		LookupTimeout: 100 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func TestFindBundleVariantFound(t *testing.T) {
	store := &fakeStore{products: []Product{
		{ID: 1, Model: "WP-100", BundleType: BundleTypeNew, MonthlyFee: 30000},
		{ID: 2, Model: "WP-100", BundleType: BundleTypeNew, MonthlyFee: 31000},
	}}
	svc := newTestService(t, store)

	result := svc.FindBundleVariant(context.Background(), Filter{Model: "WP-100"})
	require.Equal(t, LookupFound, result.Status)
	require.Equal(t, int64(1), result.Product.ID)
	require.Equal(t, BundleTypeNew, store.lastFilter.BundleType)
}

func TestFindBundleVariantNotFound(t *testing.T) {
	svc := newTestService(t, &fakeStore{})

	result := svc.FindBundleVariant(context.Background(), Filter{Model: "WP-100"})
	require.Equal(t, LookupNotFound, result.Status)
	require.NoError(t, result.Err)
}

func TestFindBundleVariantFailed(t *testing.T) {
	svc := newTestService(t, &fakeStore{err: errors.New("connection refused")})

	result := svc.FindBundleVariant(context.Background(), Filter{Model: "WP-100"})
	require.Equal(t, LookupFailed, result.Status)
	require.Error(t, result.Err)
}

func TestFindBundleVariantTimesOut(t *testing.T) {
	svc := newTestService(t, &fakeStore{sleepBefore: time.Second})

	result := svc.FindBundleVariant(context.Background(), Filter{Model: "WP-100"})
	require.Equal(t, LookupFailed, result.Status)
	require.ErrorIs(t, result.Err, context.DeadlineExceeded)
}

func TestFindBundleVariantShortCircuitsOnOpenBreaker(t *testing.T) {
	store := &fakeStore{}
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	breaker.Report(context.Background(), false)
	svc, err := NewService(ServiceConfig{
		Store:   store,
		Breaker: breaker,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	result := svc.FindBundleVariant(context.Background(), Filter{Model: "WP-100"})
	require.Equal(t, LookupFailed, result.Status)
	require.ErrorIs(t, result.Err, resilience.ErrOpenCircuit)
	require.Zero(t, store.findCalls)
}

func TestListOptionsReplacesEmptyWithSentinel(t *testing.T) {
	store := &fakeStore{options: []OptionRow{
		{Value: ""},
		{Value: "4-month"},
		{Value: "2-month"},
	}}
	svc := newTestService(t, store)

	options, err := svc.ListOptions(context.Background(), "visitCycle", Filter{Model: "WP-100"})
	require.NoError(t, err)
	require.Equal(t, []string{SentinelNoVisit, "4-month", "2-month"}, options)
	require.Equal(t, "visit_cycle", store.lastColumn)
}

func TestListOptionsDropsEmptyWithoutSentinel(t *testing.T) {
	store := &fakeStore{options: []OptionRow{{Value: ""}, {Value: "WP-100"}}}
	svc := newTestService(t, store)

	options, err := svc.ListOptions(context.Background(), "model", Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{"WP-100"}, options)
}

func TestListOptionsPromotedModelsFirst(t *testing.T) {
	store := &fakeStore{options: []OptionRow{
		{Value: "WP-100", Activation: 0},
		{Value: "WP-200", Activation: 5000},
		{Value: "WP-300", Activation: 0},
		{Value: "WP-400", Activation: 3000},
	}}
	svc := newTestService(t, store)

	options, err := svc.ListOptions(context.Background(), "model", Filter{Category: "water-purifier"})
	require.NoError(t, err)
	require.Equal(t, []string{"WP-200", "WP-400", "WP-100", "WP-300"}, options)
}

func TestListOptionsRejectsUnknownField(t *testing.T) {
	svc := newTestService(t, &fakeStore{})

	_, err := svc.ListOptions(context.Background(), "monthlyFee", Filter{})
	require.Error(t, err)
}

func TestFindPartnerCard(t *testing.T) {
	store := &fakeStore{cards: []PartnerCard{
		{Issuer: "shinhan", UsageTier: "700000+", PromoDiscount: 18000},
		{Issuer: "shinhan", UsageTier: "1300000+", PromoDiscount: 22000},
		{Issuer: "kookmin", UsageTier: "300000+", PromoDiscount: 10000},
	}}
	svc := newTestService(t, store)

	card, err := svc.FindPartnerCard(context.Background(), "retail", "Shinhan", "1300000+")
	require.NoError(t, err)
	require.Equal(t, int64(22000), card.PromoDiscount)

	_, err = svc.FindPartnerCard(context.Background(), "retail", "hana", "700000+")
	require.Error(t, err)
}

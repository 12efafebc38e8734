package bundle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quoter-api/internal/catalog"
)

type fakeFinder struct {
	results map[string]catalog.LookupResult
	calls   []catalog.Filter
}

func (f *fakeFinder) FindBundleVariant(_ context.Context, filter catalog.Filter) catalog.LookupResult {
	f.calls = append(f.calls, filter)
	if result, ok := f.results[filter.Model]; ok {
		return result
	}
	return catalog.LookupResult{Status: catalog.LookupNotFound}
}

func newOptimizer(finder Finder) *Optimizer {
	return NewOptimizer(OptimizerConfig{Finder: finder, ForceOnMiss: true, Logger: zerolog.Nop()})
}

func legacyProduct(model string, fee int64) catalog.Product {
	return catalog.Product{Model: model, BundleType: "legacy", ContractYears: 3, MonthlyFee: fee}
}

func bundledProduct(model string, fee int64) catalog.Product {
	return catalog.Product{Model: model, BundleType: catalog.BundleTypeNew, ContractYears: 3, MonthlyFee: fee}
}

func TestReoptimizeSingleItemIsNoOp(t *testing.T) {
	finder := &fakeFinder{}
	opt := newOptimizer(finder)

	products, changes := opt.Reoptimize(context.Background(), []catalog.Product{legacyProduct("WP-100", 30000)})
	require.Empty(t, changes)
	require.Equal(t, "legacy", products[0].BundleType)
	require.Empty(t, finder.calls)
}

func TestReoptimizeSwapsLegacyLines(t *testing.T) {
	finder := &fakeFinder{results: map[string]catalog.LookupResult{
		"WP-100": {Status: catalog.LookupFound, Product: bundledProduct("WP-100", 28000)},
	}}
	opt := newOptimizer(finder)

	input := []catalog.Product{
		legacyProduct("WP-100", 30000),
		bundledProduct("AC-200", 45000),
	}
	products, changes := opt.Reoptimize(context.Background(), input)

	require.Len(t, changes, 1)
	require.Equal(t, "WP-100", changes[0].Model)
	require.Equal(t, int64(2000), changes[0].MonthlyDelta)
	for _, p := range products {
		require.Equal(t, catalog.BundleTypeNew, p.BundleType)
	}
	// input slice untouched
	require.Equal(t, "legacy", input[0].BundleType)
}

func TestReoptimizeNoChangeEntryWhenFeeNotLower(t *testing.T) {
	finder := &fakeFinder{results: map[string]catalog.LookupResult{
		"WP-100": {Status: catalog.LookupFound, Product: bundledProduct("WP-100", 30000)},
	}}
	opt := newOptimizer(finder)

	products, changes := opt.Reoptimize(context.Background(), []catalog.Product{
		legacyProduct("WP-100", 30000),
		bundledProduct("AC-200", 45000),
	})
	require.Empty(t, changes)
	require.Equal(t, catalog.BundleTypeNew, products[0].BundleType)
}

func TestReoptimizeForcesBundleTypeOnMiss(t *testing.T) {
	finder := &fakeFinder{}
	opt := newOptimizer(finder)

	products, changes := opt.Reoptimize(context.Background(), []catalog.Product{
		legacyProduct("WP-100", 30000),
		legacyProduct("AC-200", 45000),
	})
	require.Empty(t, changes)
	for _, p := range products {
		require.Equal(t, catalog.BundleTypeNew, p.BundleType)
	}
	require.Equal(t, int64(30000), products[0].MonthlyFee)
}

func TestReoptimizeKeepsLineOnLookupFailure(t *testing.T) {
	finder := &fakeFinder{results: map[string]catalog.LookupResult{
		"WP-100": {Status: catalog.LookupFailed, Err: errors.New("timeout")},
	}}
	opt := newOptimizer(finder)

	products, changes := opt.Reoptimize(context.Background(), []catalog.Product{
		legacyProduct("WP-100", 30000),
		bundledProduct("AC-200", 45000),
	})
	require.Empty(t, changes)
	require.Equal(t, catalog.BundleTypeNew, products[0].BundleType)
	require.Equal(t, int64(30000), products[0].MonthlyFee)
}

func TestReoptimizeIdempotent(t *testing.T) {
	finder := &fakeFinder{results: map[string]catalog.LookupResult{
		"WP-100": {Status: catalog.LookupFound, Product: bundledProduct("WP-100", 28000)},
	}}
	opt := newOptimizer(finder)

	first, changes := opt.Reoptimize(context.Background(), []catalog.Product{
		legacyProduct("WP-100", 30000),
		bundledProduct("AC-200", 45000),
	})
	require.Len(t, changes, 1)

	second, changes := opt.Reoptimize(context.Background(), first)
	require.Empty(t, changes)
	require.Equal(t, first, second)
}

func TestReoptimizeLookupPinsAbsentOptions(t *testing.T) {
	finder := &fakeFinder{}
	opt := newOptimizer(finder)

	p := legacyProduct("WP-100", 30000)
	p.CareType = ""
	p.VisitCycle = "4-month"
	p.PrepayOption = ""
	opt.Reoptimize(context.Background(), []catalog.Product{p, bundledProduct("AC-200", 45000)})

	require.Len(t, finder.calls, 1)
	call := finder.calls[0]
	require.Equal(t, catalog.SentinelNoCare, call.CareType)
	require.Equal(t, "4-month", call.VisitCycle)
	require.Equal(t, catalog.SentinelNoPrepay, call.PrepayOption)
	require.Equal(t, 3, call.ContractYears)
}

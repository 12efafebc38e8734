package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFindExactFullSelection(t *testing.T) {
	query, args := buildFindExact(Filter{
		Channel:       "retail",
		Category:      "water-purifier",
		Model:         "WP-100",
		BundleType:    BundleTypeNew,
		ContractYears: 5,
		CareType:      "self",
		VisitCycle:    "4-month",
		PrepayOption:  "full",
	}, 10)

	require.Contains(t, query, "channel = $1")
	require.Contains(t, query, "category = $2")
	require.Contains(t, query, "model = $3")
	require.Contains(t, query, "bundle_type = $4")
	require.Contains(t, query, "contract_years = $5")
	require.Contains(t, query, "care_type = $6")
	require.Contains(t, query, "visit_cycle = $7")
	require.Contains(t, query, "prepay_option = $8")
	require.Contains(t, query, "ORDER BY id LIMIT 10")
	require.Equal(t, []any{"retail", "water-purifier", "WP-100", BundleTypeNew, 5, "self", "4-month", "full"}, args)
}

func TestBuildFindExactSentinelsMatchEmptyOrNull(t *testing.T) {
	query, args := buildFindExact(Filter{
		Model:        "WP-100",
		CareType:     SentinelNoCare,
		VisitCycle:   SentinelNoVisit,
		PrepayOption: SentinelNoPrepay,
	}, 10)

	require.Contains(t, query, "(care_type = '' OR care_type IS NULL)")
	require.Contains(t, query, "(visit_cycle = '' OR visit_cycle IS NULL)")
	require.Contains(t, query, "(prepay_option = '' OR prepay_option IS NULL)")
	require.NotContains(t, query, SentinelNoCare)
	require.Equal(t, []any{"WP-100"}, args)
}

func TestBuildFindExactOmitsEmptyAttributes(t *testing.T) {
	query, args := buildFindExact(Filter{Category: "air-conditioner"}, 5)

	require.Contains(t, query, "WHERE category = $1")
	require.NotContains(t, query, "model")
	require.NotContains(t, query, "contract_years")
	require.Contains(t, query, "LIMIT 5")
	require.Equal(t, []any{"air-conditioner"}, args)
}

func TestBuildFindExactNoFilter(t *testing.T) {
	query, args := buildFindExact(Filter{}, 10)

	require.NotContains(t, query, "WHERE")
	require.Empty(t, args)
}

func TestValidOptionColumn(t *testing.T) {
	require.True(t, validOptionColumn("care_type"))
	require.False(t, validOptionColumn("monthly_fee"))
	require.False(t, validOptionColumn("products; DROP TABLE products"))
}

func TestIsSentinel(t *testing.T) {
	require.True(t, IsSentinel(SentinelNoCare))
	require.True(t, IsSentinel(" no-visit "))
	require.True(t, IsSentinel(SentinelNone))
	require.False(t, IsSentinel("4-month"))
	require.False(t, IsSentinel(""))
}

package bundle

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/quoter-api/internal/catalog"
	"github.com/noah-isme/quoter-api/internal/obs"
)

// Finder resolves the bundle-plan twin of a product configuration.
type Finder interface {
	FindBundleVariant(ctx context.Context, f catalog.Filter) catalog.LookupResult
}

// Change records one swap to a cheaper bundle variant, rendered as a
// user-facing notice on quote responses.
type Change struct {
	Model        string `json:"model"`
	MonthlyDelta int64  `json:"monthlyDelta"`
}

// Optimizer rewrites multi-item carts onto the current bundle plan. A cart
// with two or more appliances qualifies for bundle pricing, so every legacy
// line is swapped for its new-bundle twin when the catalog has one.
type Optimizer struct {
	finder      Finder
	forceOnMiss bool
	logger      zerolog.Logger
}

// OptimizerConfig groups Optimizer dependencies.
type OptimizerConfig struct {
	Finder Finder
	// ForceOnMiss marks a line as already on the bundle plan when its twin
	// is missing from the catalog, so later passes skip it. Mirrors the
	// storefront's behavior.
	ForceOnMiss bool
	Logger      zerolog.Logger
}

// NewOptimizer constructs an Optimizer.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	return &Optimizer{
		finder:      cfg.Finder,
		forceOnMiss: cfg.ForceOnMiss,
		logger:      cfg.Logger,
	}
}

// Reoptimize returns the products with every eligible line moved to the
// bundle plan, plus the change log for lines whose fee dropped. The input
// slice is not mutated. Lookup trouble degrades to keeping the current line;
// it never fails the call.
func (o *Optimizer) Reoptimize(ctx context.Context, products []catalog.Product) ([]catalog.Product, []Change) {
	out := make([]catalog.Product, len(products))
	copy(out, products)
	if len(out) < 2 {
		return out, nil
	}

	var changes []Change
	for i, p := range out {
		if p.BundleType == catalog.BundleTypeNew {
			continue
		}
		result := o.finder.FindBundleVariant(ctx, catalog.Filter{
			Channel:       p.Channel,
			Model:         p.Model,
			ContractYears: p.ContractYears,
			CareType:      sentinelOr(p.CareType, catalog.SentinelNoCare),
			VisitCycle:    sentinelOr(p.VisitCycle, catalog.SentinelNoVisit),
			PrepayOption:  sentinelOr(p.PrepayOption, catalog.SentinelNoPrepay),
		})
		switch result.Status {
		case catalog.LookupFound:
			delta := p.MonthlyFee - result.Product.MonthlyFee
			out[i] = result.Product
			if delta > 0 {
				changes = append(changes, Change{Model: p.Model, MonthlyDelta: delta})
			}
			if m := obs.Domain(); m != nil {
				m.RebundleSwaps.Inc()
			}
		case catalog.LookupNotFound, catalog.LookupFailed:
			if o.forceOnMiss {
				out[i].BundleType = catalog.BundleTypeNew
			}
			if result.Status == catalog.LookupFailed {
				o.logger.Warn().Str("model", p.Model).Msg("bundle lookup degraded, keeping current line")
			}
		}
	}
	return out, changes
}

// sentinelOr maps an empty catalog column back to its absence label so the
// variant lookup pins the attribute instead of leaving it unconstrained.
func sentinelOr(value, sentinel string) string {
	if value == "" {
		return sentinel
	}
	return value
}

package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics groups pricing-domain collectors shared across packages.
type DomainMetrics struct {
	QuotesComputed  prometheus.Counter
	RebundleSwaps   prometheus.Counter
	LookupFailures  *prometheus.CounterVec
	LoyaltyGrants   prometheus.Counter
	EventsPublished *prometheus.CounterVec
}

var (
	domainOnce sync.Once
	domain     *DomainMetrics
)

// MustRegisterDomainMetrics registers the domain collectors once and returns them.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m := &DomainMetrics{
			QuotesComputed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quotes_computed_total",
				Help:      "Total number of cart quotes computed.",
			}),
			RebundleSwaps: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebundle_swaps_total",
				Help:      "Total number of products swapped to their bundle variant.",
			}),
			LookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_lookup_failures_total",
				Help:      "Catalog lookups degraded to not-found, by reason.",
			}, []string{"reason"}),
			LoyaltyGrants: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loyalty_grants_total",
				Help:      "Total number of loyalty rewards granted at card attach.",
			}),
			EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_published_total",
				Help:      "Domain events published to the event stream, by topic.",
			}, []string{"topic"}),
		}
		reg.MustRegister(m.QuotesComputed, m.RebundleSwaps, m.LookupFailures, m.LoyaltyGrants, m.EventsPublished)
		domain = m
	})
	return domain
}

// Domain returns the registered domain metrics, or nil before registration.
func Domain() *DomainMetrics {
	return domain
}

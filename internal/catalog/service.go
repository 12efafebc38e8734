package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/quoter-api/internal/common"
	"github.com/noah-isme/quoter-api/internal/obs"
	"github.com/noah-isme/quoter-api/internal/resilience"
)

type storeProvider interface {
	FindExact(ctx context.Context, f Filter) ([]Product, error)
	ListPartnerCards(ctx context.Context, channel string) ([]PartnerCard, error)
	DistinctOptions(ctx context.Context, column string, f Filter) ([]OptionRow, error)
	ListCategories(ctx context.Context, channel string) ([]string, error)
}

// Fields the selection wizard walks through, in order. Each step's options
// are the distinct values remaining after applying the prior selections.
var wizardFields = []string{
	"category", "model", "bundleType", "contractYears",
	"careType", "visitCycle", "prepayOption",
}

var fieldColumns = map[string]string{
	"category":      "category",
	"model":         "model",
	"bundleType":    "bundle_type",
	"contractYears": "contract_years",
	"careType":      "care_type",
	"visitCycle":    "visit_cycle",
	"prepayOption":  "prepay_option",
}

// fieldSentinels maps each optional attribute to the label shown when the
// column is empty in the catalog.
var fieldSentinels = map[string]string{
	"careType":     SentinelNoCare,
	"visitCycle":   SentinelNoVisit,
	"prepayOption": SentinelNoPrepay,
	"bundleType":   SentinelNone,
}

// Service orchestrates catalog lookups, caching, and degradation policy.
type Service struct {
	store         storeProvider
	cache         *Cache
	breaker       *resilience.Breaker
	lookupTimeout time.Duration
	logger        zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store         storeProvider
	Cache         *Cache
	Breaker       *resilience.Breaker
	LookupTimeout time.Duration
	Logger        zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		store:         cfg.Store,
		cache:         cfg.Cache,
		breaker:       cfg.Breaker,
		lookupTimeout: timeout,
		logger:        cfg.Logger,
	}, nil
}

// FindExact resolves the filter to matching catalog rows. Selection handlers
// use the first row; an empty slice means nothing in the catalog matches.
func (s *Service) FindExact(ctx context.Context, f Filter) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	if s.breaker != nil && !s.breaker.Allow(ctx) {
		return nil, resilience.ErrOpenCircuit
	}
	products, err := s.store.FindExact(ctx, f)
	if s.breaker != nil {
		s.breaker.Report(ctx, err == nil)
	}
	return products, err
}

// FindBundleVariant looks up the bundle-plan twin of a product configuration
// for the optimizer. Errors never escape: transport trouble is reported as
// LookupFailed so the caller can degrade.
func (s *Service) FindBundleVariant(ctx context.Context, f Filter) LookupResult {
	f.BundleType = BundleTypeNew

	products, err := s.FindExact(ctx, f)
	if err != nil {
		reason := "query_error"
		switch {
		case errors.Is(err, resilience.ErrOpenCircuit):
			reason = "breaker_open"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		}
		if m := obs.Domain(); m != nil {
			m.LookupFailures.WithLabelValues(reason).Inc()
		}
		s.logger.Warn().Err(err).Str("model", f.Model).Str("reason", reason).Msg("bundle variant lookup failed")
		return LookupResult{Status: LookupFailed, Err: err}
	}
	if len(products) == 0 {
		return LookupResult{Status: LookupNotFound}
	}
	return LookupResult{Status: LookupFound, Product: products[0]}
}

// ListPartnerCards returns the card programs for a channel, cached in Redis.
func (s *Service) ListPartnerCards(ctx context.Context, channel string) ([]PartnerCard, error) {
	key := partnerCardsKey(channel)
	if s.cache != nil {
		var cached []PartnerCard
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	cards, err := s.store.ListPartnerCards(ctx, channel)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cards)
	}
	return cards, nil
}

// FindPartnerCard resolves a card program by issuer and usage tier.
func (s *Service) FindPartnerCard(ctx context.Context, channel, issuer, usageTier string) (PartnerCard, error) {
	cards, err := s.ListPartnerCards(ctx, channel)
	if err != nil {
		return PartnerCard{}, err
	}
	issuer = strings.TrimSpace(issuer)
	usageTier = strings.TrimSpace(usageTier)
	for _, card := range cards {
		if strings.EqualFold(card.Issuer, issuer) && card.UsageTier == usageTier {
			return card, nil
		}
	}
	return PartnerCard{}, common.NotFoundError("no partner card matches issuer and tier", nil)
}

// ListCategories returns the categories offered on a channel, cached in Redis.
func (s *Service) ListCategories(ctx context.Context, channel string) ([]string, error) {
	key := categoriesKey(channel)
	if s.cache != nil {
		var cached []string
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	categories, err := s.store.ListCategories(ctx, channel)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, categories)
	}
	return categories, nil
}

// ListOptions returns the distinct values for one wizard step given the prior
// selections. Empty column values surface as the step's absence label, and
// models carrying an activation promotion sort ahead of the rest.
func (s *Service) ListOptions(ctx context.Context, field string, f Filter) ([]string, error) {
	column, ok := fieldColumns[field]
	if !ok {
		return nil, common.BadRequestError("field", "unknown option field", nil)
	}
	rows, err := s.store.DistinctOptions(ctx, column, f)
	if err != nil {
		return nil, err
	}

	sentinel := fieldSentinels[field]
	values := make([]string, 0, len(rows))
	promoted := make(map[string]bool, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		value := row.Value
		if value == "" {
			if sentinel == "" {
				continue
			}
			value = sentinel
		}
		if seen[value] {
			promoted[value] = promoted[value] || row.Activation > 0
			continue
		}
		seen[value] = true
		promoted[value] = row.Activation > 0
		values = append(values, value)
	}

	if field == "model" {
		sort.SliceStable(values, func(i, j int) bool {
			return promoted[values[i]] && !promoted[values[j]]
		})
	}
	return values, nil
}

// WizardFields returns the ordered selection steps.
func WizardFields() []string {
	fields := make([]string, len(wizardFields))
	copy(fields, wizardFields)
	return fields
}

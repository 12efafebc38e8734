package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quoter-api/internal/bundle"
	"github.com/noah-isme/quoter-api/internal/catalog"
	"github.com/noah-isme/quoter-api/internal/common"
	"github.com/noah-isme/quoter-api/internal/events"
	"github.com/noah-isme/quoter-api/internal/loyalty"
	"github.com/noah-isme/quoter-api/internal/obs"
	"github.com/noah-isme/quoter-api/internal/pricing"
	"github.com/noah-isme/quoter-api/internal/quote"
)

type catalogProvider interface {
	FindExact(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	FindPartnerCard(ctx context.Context, channel, issuer, usageTier string) (catalog.PartnerCard, error)
	FindBundleVariant(ctx context.Context, f catalog.Filter) catalog.LookupResult
}

// QuoteResult is a computed quote plus the degradation signals the storefront
// renders alongside it.
type QuoteResult struct {
	Summary quote.Summary `json:"summary"`
	Notices []string      `json:"notices,omitempty"`
	Stale   bool          `json:"stale,omitempty"`
}

// Service owns cart mutations. Every mutation runs under the cart's Redis
// lock and completes its reoptimize + requote before the next is admitted.
type Service struct {
	store       Store
	catalog     catalogProvider
	rule        loyalty.Rule
	bus         *events.Bus
	mutex       Mutex
	forceOnMiss bool
	logger      zerolog.Logger
	now         func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store       Store
	Catalog     catalogProvider
	Rule        loyalty.Rule
	Bus         *events.Bus
	Mutex       Mutex
	ForceOnMiss bool
	Logger      zerolog.Logger
	Now         func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("cart: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("cart: catalog provider is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:       cfg.Store,
		catalog:     cfg.Catalog,
		rule:        cfg.Rule,
		bus:         cfg.Bus,
		mutex:       cfg.Mutex,
		forceOnMiss: cfg.ForceOnMiss,
		logger:      cfg.Logger,
		now:         now,
	}, nil
}

// Create opens a new quoting session on the caller's channel.
func (s *Service) Create(ctx context.Context, channel string) (Cart, error) {
	now := s.now().UTC()
	cart := Cart{
		ID:        uuid.New(),
		Channel:   channel,
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	s.emit(ctx, events.TopicCartCreated, cart.ID, map[string]string{"channel": channel})
	return cart, nil
}

// Get loads a cart and quotes it as-is, without reoptimizing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Cart, QuoteResult, error) {
	cart, err := s.store.Get(ctx, id)
	if err != nil {
		return Cart{}, QuoteResult{}, err
	}
	return cart, s.buildQuote(cart, nil, false), nil
}

// Quote recomputes the quote for a cart as-is.
func (s *Service) Quote(ctx context.Context, id uuid.UUID) (QuoteResult, error) {
	_, result, err := s.Get(ctx, id)
	return result, err
}

// AddItem resolves the wizard selection against the catalog and appends the
// matched product as a new line.
func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, sel Selection) (Cart, QuoteResult, error) {
	return s.mutate(ctx, cartID, events.TopicItemAdded, func(ctx context.Context, cart *Cart) error {
		product, err := s.resolve(ctx, cart.Channel, sel)
		if err != nil {
			return err
		}
		cart.Items = append(cart.Items, Item{ID: uuid.New(), Product: product})
		return nil
	})
}

// EditItem re-resolves the selection and replaces the line's product. Any
// attached card is kept; its loyalty reward is re-evaluated against the new
// displayed price.
func (s *Service) EditItem(ctx context.Context, cartID, itemID uuid.UUID, sel Selection) (Cart, QuoteResult, error) {
	return s.mutate(ctx, cartID, events.TopicItemUpdated, func(ctx context.Context, cart *Cart) error {
		item := cart.Item(itemID)
		if item == nil {
			return ErrItemNotFound
		}
		product, err := s.resolve(ctx, cart.Channel, sel)
		if err != nil {
			return err
		}
		item.Product = product
		if item.Card != nil {
			item.LoyaltyMonthly = s.evaluateLoyalty(product, *item.Card)
		}
		return nil
	})
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (Cart, QuoteResult, error) {
	return s.mutate(ctx, cartID, events.TopicItemRemoved, func(_ context.Context, cart *Cart) error {
		if !cart.RemoveItem(itemID) {
			return ErrItemNotFound
		}
		return nil
	})
}

// AttachCard attaches or replaces the partner card on a line. Loyalty
// eligibility is judged once, here, against the then-current displayed price.
func (s *Service) AttachCard(ctx context.Context, cartID, itemID uuid.UUID, issuer, usageTier string) (Cart, QuoteResult, error) {
	return s.mutate(ctx, cartID, events.TopicCardAttached, func(ctx context.Context, cart *Cart) error {
		item := cart.Item(itemID)
		if item == nil {
			return ErrItemNotFound
		}
		card, err := s.catalog.FindPartnerCard(ctx, cart.Channel, issuer, usageTier)
		if err != nil {
			return err
		}
		item.Card = &card
		item.LoyaltyMonthly = s.evaluateLoyalty(item.Product, card)
		return nil
	})
}

// DetachCard removes the partner card and its loyalty reward from a line.
func (s *Service) DetachCard(ctx context.Context, cartID, itemID uuid.UUID) (Cart, QuoteResult, error) {
	return s.mutate(ctx, cartID, events.TopicCardDetached, func(_ context.Context, cart *Cart) error {
		item := cart.Item(itemID)
		if item == nil {
			return ErrItemNotFound
		}
		item.Card = nil
		item.LoyaltyMonthly = 0
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, cartID uuid.UUID, topic string, fn func(context.Context, *Cart) error) (Cart, QuoteResult, error) {
	var (
		cart   Cart
		result QuoteResult
	)
	err := s.mutex.WithLock(ctx, cartID, func(ctx context.Context) error {
		loaded, err := s.store.Get(ctx, cartID)
		if err != nil {
			return err
		}
		cart = loaded
		if err := fn(ctx, &cart); err != nil {
			return err
		}
		changes, stale := s.reoptimize(ctx, &cart)
		cart.UpdatedAt = s.now().UTC()
		if err := s.store.Save(ctx, cart); err != nil {
			return err
		}
		s.emit(ctx, topic, cart.ID, map[string]any{"items": len(cart.Items)})
		if len(changes) > 0 {
			s.emit(ctx, events.TopicCartRebundled, cart.ID, map[string]any{"changes": changes})
		}
		result = s.buildQuote(cart, changes, stale)
		s.emit(ctx, events.TopicQuoteComputed, cart.ID, map[string]any{
			"payableMonthly": result.Summary.Monthly.PayableMonthly,
			"stale":          stale,
		})
		return nil
	})
	if err != nil {
		return Cart{}, QuoteResult{}, err
	}
	return cart, result, nil
}

// reoptimize moves a multi-item cart onto the bundle plan. Lookup failures
// keep the prior state and flip the stale flag instead of failing the call.
func (s *Service) reoptimize(ctx context.Context, cart *Cart) ([]bundle.Change, bool) {
	if len(cart.Items) < 2 {
		return nil, false
	}
	finder := &recordingFinder{inner: s.catalog}
	optimizer := bundle.NewOptimizer(bundle.OptimizerConfig{
		Finder:      finder,
		ForceOnMiss: s.forceOnMiss,
		Logger:      s.logger,
	})

	products := make([]catalog.Product, len(cart.Items))
	for i, item := range cart.Items {
		products[i] = item.Product
	}
	optimized, changes := optimizer.Reoptimize(ctx, products)
	for i := range cart.Items {
		cart.Items[i].Product = optimized[i]
	}
	return changes, finder.failed
}

func (s *Service) resolve(ctx context.Context, channel string, sel Selection) (catalog.Product, error) {
	products, err := s.catalog.FindExact(ctx, sel.Filter(channel))
	if err != nil {
		return catalog.Product{}, common.NewAppError("UNAVAILABLE", "catalog temporarily unavailable", http.StatusServiceUnavailable, err)
	}
	if len(products) == 0 {
		return catalog.Product{}, common.NotFoundError("no product matches these options", nil)
	}
	return products[0], nil
}

func (s *Service) evaluateLoyalty(product catalog.Product, card catalog.PartnerCard) pricing.Money {
	if s.rule == nil {
		return 0
	}
	breakdown := pricing.Allocate(product, &card)
	monthly, ok := s.rule.Evaluate(loyalty.Eligibility{
		Issuer:       card.Issuer,
		UsageTier:    card.UsageTier,
		DisplayPrice: breakdown.DisplayPrice,
	})
	if !ok {
		return 0
	}
	if m := obs.Domain(); m != nil {
		m.LoyaltyGrants.Inc()
	}
	return monthly
}

func (s *Service) buildQuote(cart Cart, changes []bundle.Change, stale bool) QuoteResult {
	lines := make([]quote.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, quote.Line{
			ItemID:         item.ID.String(),
			Product:        item.Product,
			Card:           item.Card,
			LoyaltyMonthly: item.LoyaltyMonthly,
		})
	}
	if m := obs.Domain(); m != nil {
		m.QuotesComputed.Inc()
	}
	return QuoteResult{
		Summary: quote.Summarize(lines),
		Notices: renderNotices(changes),
		Stale:   stale,
	}
}

func renderNotices(changes []bundle.Change) []string {
	if len(changes) == 0 {
		return nil
	}
	notices := make([]string, 0, len(changes))
	for _, change := range changes {
		notices = append(notices, fmt.Sprintf(
			"%s switched to the bundle plan, monthly fee reduced by %d won", change.Model, change.MonthlyDelta))
	}
	return notices
}

// emit publishes a domain event; losing an event never loses the mutation.
func (s *Service) emit(ctx context.Context, topic string, cartID uuid.UUID, payload any) {
	if s.bus == nil {
		return
	}
	if _, err := s.bus.Emit(ctx, topic, cartID, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}

// recordingFinder notes lookup failures so the quote can carry a stale flag.
type recordingFinder struct {
	inner  catalogProvider
	failed bool
}

func (r *recordingFinder) FindBundleVariant(ctx context.Context, f catalog.Filter) catalog.LookupResult {
	result := r.inner.FindBundleVariant(ctx, f)
	if result.Status == catalog.LookupFailed {
		r.failed = true
	}
	return result
}

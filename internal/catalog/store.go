package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/quoter-api/internal/common"
)

// querier is the slice of pgxpool.Pool the store needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store runs catalog queries against Postgres. The catalog is read-only to
// this service; writes happen through the import pipeline.
type Store struct {
	db    querier
	limit int
}

// NewStore constructs a Store. limit caps FindExact result sets.
func NewStore(db querier, limit int) *Store {
	if limit <= 0 {
		limit = 10
	}
	return &Store{db: db, limit: limit}
}

const productColumns = `id, channel, category, model, bundle_type, contract_years,
	care_type, visit_cycle, prepay_option,
	monthly_fee, list_price, activation_discount, promo_end_month,
	bundle_discount, prepay_amount`

// FindExact returns catalog rows matching every populated filter attribute,
// ordered by id for a deterministic first row.
func (s *Store) FindExact(ctx context.Context, f Filter) ([]Product, error) {
	query, args := buildFindExact(f, s.limit)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find exact: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func buildFindExact(f Filter, limit int) (string, []any) {
	where, args := buildFilter(f)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY id LIMIT %d", productColumns, where, limit)
	return query, args
}

// buildFilter compiles the populated filter attributes into a WHERE clause.
// Sentinel labels match rows where the column is empty or NULL, mirroring how
// the legacy import records absent options.
func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(column, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if IsSentinel(value) {
			conds = append(conds, fmt.Sprintf("(%s = '' OR %s IS NULL)", column, column))
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("channel", f.Channel)
	add("category", f.Category)
	add("model", f.Model)
	add("bundle_type", f.BundleType)
	if f.ContractYears > 0 {
		args = append(args, f.ContractYears)
		conds = append(conds, fmt.Sprintf("contract_years = $%d", len(args)))
	}
	add("care_type", f.CareType)
	add("visit_cycle", f.VisitCycle)
	add("prepay_option", f.PrepayOption)

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var (
			p                  Product
			channel            *string
			careType           *string
			visitCycle         *string
			prepayOption       *string
			monthlyFee         *string
			listPrice          *string
			activationDiscount *string
			bundleDiscount     *string
			prepayAmount       *string
		)
		if err := rows.Scan(
			&p.ID, &channel, &p.Category, &p.Model, &p.BundleType, &p.ContractYears,
			&careType, &visitCycle, &prepayOption,
			&monthlyFee, &listPrice, &activationDiscount, &p.PromoEndMonth,
			&bundleDiscount, &prepayAmount,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Channel = deref(channel)
		p.CareType = deref(careType)
		p.VisitCycle = deref(visitCycle)
		p.PrepayOption = deref(prepayOption)
		p.MonthlyFee = common.ParseAmount(deref(monthlyFee))
		p.ListPrice = common.ParseAmount(deref(listPrice))
		p.ActivationDiscount = common.ParseAmount(deref(activationDiscount))
		p.BundleDiscount = common.ParseAmount(deref(bundleDiscount))
		p.PrepayAmount = common.ParseAmount(deref(prepayAmount))
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// ListPartnerCards returns the discount card programs visible to a channel.
// Rows flagged as unused by the import are skipped.
func (s *Store) ListPartnerCards(ctx context.Context, channel string) ([]PartnerCard, error) {
	query := `SELECT id, COALESCE(channel, ''), issuer, usage_tier,
		promo_discount, basic_discount, promo_months,
		COALESCE(benefit, ''), COALESCE(note, '')
	FROM partner_cards
	WHERE issuer <> '' AND issuer <> 'unused'
	  AND (channel = '' OR channel IS NULL OR channel = $1)
	ORDER BY issuer, usage_tier`
	rows, err := s.db.Query(ctx, query, channel)
	if err != nil {
		return nil, fmt.Errorf("list partner cards: %w", err)
	}
	defer rows.Close()

	var cards []PartnerCard
	for rows.Next() {
		var (
			c             PartnerCard
			promoDiscount *string
			basicDiscount *string
		)
		if err := rows.Scan(
			&c.ID, &c.Channel, &c.Issuer, &c.UsageTier,
			&promoDiscount, &basicDiscount, &c.PromoMonths,
			&c.Benefit, &c.Note,
		); err != nil {
			return nil, fmt.Errorf("scan partner card: %w", err)
		}
		c.PromoDiscount = common.ParseAmount(deref(promoDiscount))
		c.BasicDiscount = common.ParseAmount(deref(basicDiscount))
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partner cards: %w", err)
	}
	return cards, nil
}

// OptionRow is one distinct option value with the activation discount text of
// its cheapest-to-activate variant; the service layer decides ordering.
type OptionRow struct {
	Value      string
	Activation int64
}

// DistinctOptions returns the distinct values of one identity column under
// the supplied filter. For the model column the activation discount rides
// along so promoted models can be listed first.
func (s *Store) DistinctOptions(ctx context.Context, column string, f Filter) ([]OptionRow, error) {
	if !validOptionColumn(column) {
		return nil, fmt.Errorf("distinct options: unknown column %q", column)
	}
	where, args := buildFilter(f)
	// activation_discount is a text column, so MAX is lexicographic. Callers
	// only test the parsed value for > 0 as a promoted flag; the number itself
	// is not a usable amount here.
	query := fmt.Sprintf(
		"SELECT COALESCE(%s::text, ''), COALESCE(MAX(activation_discount), '') FROM products%s GROUP BY 1 ORDER BY 1",
		column, where,
	)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var options []OptionRow
	for rows.Next() {
		var value, activation string
		if err := rows.Scan(&value, &activation); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, OptionRow{Value: value, Activation: common.ParseAmount(activation)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return options, nil
}

// ListCategories returns the distinct categories offered on a channel.
func (s *Store) ListCategories(ctx context.Context, channel string) ([]string, error) {
	options, err := s.DistinctOptions(ctx, "category", Filter{Channel: channel})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(options))
	for _, opt := range options {
		if opt.Value == "" {
			continue
		}
		categories = append(categories, opt.Value)
	}
	return categories, nil
}

func validOptionColumn(column string) bool {
	switch column {
	case "category", "model", "bundle_type", "contract_years", "care_type", "visit_cycle", "prepay_option":
		return true
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package pricing

import "github.com/noah-isme/quoter-api/internal/catalog"

// Money represents a monetary value in won.
type Money = int64

// Periods is the promo/basic split of a contract term. Promo + Basic always
// equals Total when a card is attached; without a card both slices are zero.
type Periods struct {
	Promo int `json:"promoMonths"`
	Basic int `json:"basicMonths"`
	Total int `json:"totalMonths"`
}

// Breakdown is the full discount allocation for one cart line.
type Breakdown struct {
	Periods Periods `json:"periods"`

	// Monthly view.
	NormalMonthly Money `json:"normalMonthly"`
	DisplayPrice  Money `json:"displayPrice"`
	CardDiscount  Money `json:"cardDiscount"`

	// Contract view.
	GrossTotal        Money `json:"grossTotal"`
	CardBenefit       Money `json:"cardBenefit"`
	ActivationBenefit Money `json:"activationBenefit"`
	BundlingBenefit   Money `json:"bundlingBenefit"`
	TotalBenefit      Money `json:"totalBenefit"`
	NetTotal          Money `json:"netTotal"`
}

// ContractMonths converts a contract term in years to months.
func ContractMonths(years int) int {
	if years < 0 {
		return 0
	}
	return years * 12
}

// Clamp caps a discount at the fee it applies to. Discounts never push a
// price below zero and a negative discount counts as none.
func Clamp(discount, fee Money) Money {
	if discount < 0 {
		return 0
	}
	if discount > fee {
		return fee
	}
	return discount
}

// SplitPeriods divides the contract term into the promo-rate slice and the
// basic-rate slice of the attached card.
func SplitPeriods(contractMonths int, card *catalog.PartnerCard) Periods {
	if contractMonths < 0 {
		contractMonths = 0
	}
	if card == nil {
		return Periods{Total: contractMonths}
	}
	if card.PromoMonths <= 0 {
		return Periods{Basic: contractMonths, Total: contractMonths}
	}
	if contractMonths <= card.PromoMonths {
		return Periods{Promo: contractMonths, Total: contractMonths}
	}
	return Periods{
		Promo: card.PromoMonths,
		Basic: contractMonths - card.PromoMonths,
		Total: contractMonths,
	}
}

// Allocate computes the discount allocation for one product with an optional
// partner card attached.
func Allocate(product catalog.Product, card *catalog.PartnerCard) Breakdown {
	months := product.ContractMonths()
	periods := SplitPeriods(months, card)
	fee := product.MonthlyFee

	var promoRate, basicRate Money
	if card != nil {
		promoRate = Clamp(card.PromoDiscount, fee)
		basicRate = Clamp(card.BasicDiscount, fee)
	}

	// The storefront shows the first-period price: the promo rate while a
	// promo slice exists, the basic rate afterwards.
	currentDiscount := basicRate
	if periods.Promo > 0 {
		currentDiscount = promoRate
	}
	if card == nil {
		currentDiscount = 0
	}

	b := Breakdown{
		Periods:       periods,
		NormalMonthly: fee + product.ActivationDiscount + product.BundleDiscount,
		DisplayPrice:  fee - currentDiscount,
		CardDiscount:  currentDiscount,

		GrossTotal:        fee * Money(months),
		CardBenefit:       promoRate*Money(periods.Promo) + basicRate*Money(periods.Basic),
		ActivationBenefit: product.ActivationDiscount * Money(product.PromoEndMonth),
		BundlingBenefit:   product.BundleDiscount * Money(months),
	}
	b.TotalBenefit = b.CardBenefit + b.ActivationBenefit + b.BundlingBenefit
	b.NetTotal = b.GrossTotal - b.TotalBenefit
	return b
}

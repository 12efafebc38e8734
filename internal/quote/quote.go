package quote

import (
	"github.com/noah-isme/quoter-api/internal/catalog"
	"github.com/noah-isme/quoter-api/internal/pricing"
)

// Line is one cart item presented for quoting.
type Line struct {
	ItemID         string
	Product        catalog.Product
	Card           *catalog.PartnerCard
	LoyaltyMonthly pricing.Money
}

// LineQuote is the priced rendition of a Line.
type LineQuote struct {
	ItemID         string            `json:"itemId"`
	Product        catalog.Product   `json:"product"`
	Card           *catalog.PartnerCard `json:"card,omitempty"`
	Breakdown      pricing.Breakdown `json:"breakdown"`
	LoyaltyMonthly pricing.Money     `json:"loyaltyMonthly,omitempty"`
	LoyaltyTotal   pricing.Money     `json:"loyaltyTotal,omitempty"`
}

// MonthlyView aggregates the per-month storefront numbers.
type MonthlyView struct {
	ListMonthly        pricing.Money `json:"listMonthly"`
	PayableMonthly     pricing.Money `json:"payableMonthly"`
	ActivationDiscount pricing.Money `json:"activationDiscount"`
	BundlingDiscount   pricing.Money `json:"bundlingDiscount"`
	CardDiscount       pricing.Money `json:"cardDiscount"`
}

// ContractView aggregates the whole-contract numbers.
type ContractView struct {
	GrossTotal   pricing.Money `json:"grossTotal"`
	BenefitTotal pricing.Money `json:"benefitTotal"`
	LoyaltyTotal pricing.Money `json:"loyaltyTotal"`
	PayableTotal pricing.Money `json:"payableTotal"`
}

// PrepayLine details one item's up-front payment.
type PrepayLine struct {
	ItemID string        `json:"itemId"`
	Model  string        `json:"model"`
	Option string        `json:"option"`
	Amount pricing.Money `json:"amount"`
}

// PrepaySection sums the up-front payments across the cart.
type PrepaySection struct {
	Total pricing.Money `json:"total"`
	Lines []PrepayLine  `json:"lines,omitempty"`
}

// Summary is a complete cart quote.
type Summary struct {
	Lines      []LineQuote   `json:"lines"`
	Monthly    MonthlyView   `json:"monthly"`
	Contract   ContractView  `json:"contract"`
	Prepayment PrepaySection `json:"prepayment"`
}

// Summarize prices every line and aggregates the monthly, contract, and
// prepayment views.
func Summarize(lines []Line) Summary {
	summary := Summary{Lines: make([]LineQuote, 0, len(lines))}

	for _, line := range lines {
		breakdown := pricing.Allocate(line.Product, line.Card)
		months := line.Product.ContractMonths()
		loyaltyTotal := line.LoyaltyMonthly * pricing.Money(months)

		summary.Lines = append(summary.Lines, LineQuote{
			ItemID:         line.ItemID,
			Product:        line.Product,
			Card:           line.Card,
			Breakdown:      breakdown,
			LoyaltyMonthly: line.LoyaltyMonthly,
			LoyaltyTotal:   loyaltyTotal,
		})

		summary.Monthly.ListMonthly += breakdown.NormalMonthly
		summary.Monthly.PayableMonthly += breakdown.DisplayPrice
		summary.Monthly.ActivationDiscount += line.Product.ActivationDiscount
		summary.Monthly.BundlingDiscount += line.Product.BundleDiscount
		summary.Monthly.CardDiscount += breakdown.CardDiscount

		summary.Contract.GrossTotal += breakdown.GrossTotal
		summary.Contract.BenefitTotal += breakdown.TotalBenefit
		summary.Contract.LoyaltyTotal += loyaltyTotal
		summary.Contract.PayableTotal += breakdown.NetTotal - loyaltyTotal

		if option := line.Product.PrepayOption; option != "" && !catalog.IsSentinel(option) && line.Product.PrepayAmount > 0 {
			summary.Prepayment.Total += line.Product.PrepayAmount
			summary.Prepayment.Lines = append(summary.Prepayment.Lines, PrepayLine{
				ItemID: line.ItemID,
				Model:  line.Product.Model,
				Option: option,
				Amount: line.Product.PrepayAmount,
			})
		}
	}
	return summary
}

package loyalty

import "strings"

// Eligibility is the snapshot a rule judges: the card identity and the
// displayed monthly price at the moment of attachment.
type Eligibility struct {
	Issuer       string
	UsageTier    string
	DisplayPrice int64
}

// Rule decides whether a card attachment earns a recurring monthly reward.
type Rule interface {
	Evaluate(e Eligibility) (monthly int64, ok bool)
}

// CashPointRule grants a flat monthly cash-point reward for one issuer's
// high-usage tiers, provided the displayed price clears a floor.
type CashPointRule struct {
	Issuer          string
	Tiers           []string
	MinDisplayPrice int64
	MonthlyReward   int64
}

// Evaluate implements Rule.
func (r CashPointRule) Evaluate(e Eligibility) (int64, bool) {
	if r.MonthlyReward <= 0 {
		return 0, false
	}
	if !strings.EqualFold(strings.TrimSpace(e.Issuer), strings.TrimSpace(r.Issuer)) {
		return 0, false
	}
	if e.DisplayPrice < r.MinDisplayPrice {
		return 0, false
	}
	for _, tier := range r.Tiers {
		if e.UsageTier == tier {
			return r.MonthlyReward, true
		}
	}
	return 0, false
}

// Rules evaluates a rule chain; the first match wins.
type Rules []Rule

// Evaluate implements Rule.
func (rs Rules) Evaluate(e Eligibility) (int64, bool) {
	for _, r := range rs {
		if monthly, ok := r.Evaluate(e); ok {
			return monthly, true
		}
	}
	return 0, false
}

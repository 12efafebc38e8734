package catalog

import "strings"

// BundleTypeNew marks the current-generation bundle plan. Every other value
// in the bundle_type column is a legacy plan the optimizer tries to swap away.
const BundleTypeNew = "new-bundle"

// Sentinel labels the storefront uses for "option absent". The legacy catalog
// import stores absence as an empty string (sometimes NULL), so these compile
// to an empty-or-null match at the SQL boundary.
const (
	SentinelNoCare   = "no-care"
	SentinelNoVisit  = "no-visit"
	SentinelNoPrepay = "no-prepay"
	SentinelNone     = "none"
)

// IsSentinel reports whether the value is one of the absence labels.
func IsSentinel(value string) bool {
	switch strings.TrimSpace(value) {
	case SentinelNoCare, SentinelNoVisit, SentinelNoPrepay, SentinelNone:
		return true
	}
	return false
}

// Product is an immutable catalog row. The seven identity attributes pin down
// exactly one sellable configuration; the money columns arrive as legacy text
// and are parsed to integer amounts when scanned.
type Product struct {
	ID            int64  `json:"id"`
	Channel       string `json:"channel"`
	Category      string `json:"category"`
	Model         string `json:"model"`
	BundleType    string `json:"bundleType"`
	ContractYears int    `json:"contractYears"`
	CareType      string `json:"careType"`
	VisitCycle    string `json:"visitCycle"`
	PrepayOption  string `json:"prepayOption"`

	MonthlyFee         int64 `json:"monthlyFee"`
	ListPrice          int64 `json:"listPrice"`
	ActivationDiscount int64 `json:"activationDiscount"`
	PromoEndMonth      int   `json:"promoEndMonth"`
	BundleDiscount     int64 `json:"bundleDiscount"`
	PrepayAmount       int64 `json:"prepayAmount"`
}

// ContractMonths returns the contract term in months.
func (p Product) ContractMonths() int {
	return p.ContractYears * 12
}

// PartnerCard is a co-branded card discount program row.
type PartnerCard struct {
	ID            int64  `json:"id"`
	Channel       string `json:"channel,omitempty"`
	Issuer        string `json:"issuer"`
	UsageTier     string `json:"usageTier"`
	PromoDiscount int64  `json:"promoDiscount"`
	BasicDiscount int64  `json:"basicDiscount"`
	PromoMonths   int    `json:"promoMonths"`
	Benefit       string `json:"benefit,omitempty"`
	Note          string `json:"note,omitempty"`
}

// Filter narrows catalog lookups. Zero-valued fields are omitted from the
// generated WHERE clause; sentinel labels match empty-or-null columns.
type Filter struct {
	Channel       string
	Category      string
	Model         string
	BundleType    string
	ContractYears int
	CareType      string
	VisitCycle    string
	PrepayOption  string
}

// LookupStatus discriminates the three outcomes of a variant lookup.
type LookupStatus int

const (
	// LookupFound means exactly one usable row came back.
	LookupFound LookupStatus = iota
	// LookupNotFound means the query ran but matched nothing.
	LookupNotFound
	// LookupFailed means the query could not run (timeout, breaker open,
	// transport error). Callers degrade rather than surface it.
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LookupResult carries a variant lookup outcome. Product is only meaningful
// when Status is LookupFound; Err is only set when Status is LookupFailed.
type LookupResult struct {
	Status  LookupStatus
	Product Product
	Err     error
}

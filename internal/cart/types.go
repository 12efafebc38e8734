package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/quoter-api/internal/catalog"
	"github.com/noah-isme/quoter-api/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrItemNotFound indicates the requested cart item could not be located.
var ErrItemNotFound = errors.New("cart item not found")

// Item is one appliance line in a cart. LoyaltyMonthly is fixed at the moment
// a partner card is attached and is not re-evaluated afterwards.
type Item struct {
	ID             uuid.UUID            `json:"id"`
	Product        catalog.Product      `json:"product"`
	Card           *catalog.PartnerCard `json:"card,omitempty"`
	LoyaltyMonthly pricing.Money        `json:"loyaltyMonthly,omitempty"`
}

// Cart is an interactive quoting session. Items keep insertion order and
// duplicates are allowed.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	Channel   string    `json:"channel,omitempty"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Item returns a pointer to the item with the given id, or nil.
func (c *Cart) Item(id uuid.UUID) *Item {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the item with the given id, reporting whether it existed.
func (c *Cart) RemoveItem(id uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Selection is the full 7-step wizard outcome identifying one catalog product.
type Selection struct {
	Category      string
	Model         string
	BundleType    string
	ContractYears int
	CareType      string
	VisitCycle    string
	PrepayOption  string
}

// Filter translates the selection into a catalog lookup.
func (s Selection) Filter(channel string) catalog.Filter {
	return catalog.Filter{
		Channel:       channel,
		Category:      s.Category,
		Model:         s.Model,
		BundleType:    s.BundleType,
		ContractYears: s.ContractYears,
		CareType:      s.CareType,
		VisitCycle:    s.VisitCycle,
		PrepayOption:  s.PrepayOption,
	}
}

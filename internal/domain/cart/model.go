package cart

import (
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
)

// ItemStatus is the pricing lifecycle state of a line item
type ItemStatus string

const (
	// StatusPending means the item has never been successfully priced
	StatusPending ItemStatus = "pending"
	// StatusPriced means the item carries at least one recommendation
	StatusPriced ItemStatus = "priced"
	// StatusPurchased means the user bought the item; it is excluded from
	// re-pricing until reactivated
	StatusPurchased ItemStatus = "purchased"
)

// LineItem is one entry in a shopping list
type LineItem struct {
	ID              int64                    `json:"id"`
	ListID          int64                    `json:"list_id"`
	ProductName     string                   `json:"product_name"`
	Quantity        int                      `json:"quantity"`
	Status          ItemStatus               `json:"status"`
	NoCoverage      bool                     `json:"no_coverage"`
	Recommendations []catalog.Recommendation `json:"recommendations,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// List is a user's shopping list. Items keep insertion order.
type List struct {
	ID        int64      `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Summary is the per-list overview row for an owner's lists
type Summary struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ItemCount      int       `json:"item_count"`
	PurchasedCount int       `json:"purchased_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SnapshotItem is one line of an optimization snapshot. Line totals use the
// rank-1 recommendation; savings compare rank 1 against rank 2.
type SnapshotItem struct {
	ItemID             int64                    `json:"item_id"`
	ProductName        string                   `json:"product_name"`
	Quantity           int                      `json:"quantity"`
	Status             ItemStatus               `json:"status"`
	NoCoverage         bool                     `json:"no_coverage"`
	Recommendations    []catalog.Recommendation `json:"recommendations,omitempty"`
	LineTotalLocal     float64                  `json:"line_total_local"`
	LineTotalReference float64                  `json:"line_total_reference"`
	LineSavingsLocal   float64                  `json:"line_savings_local"`
	LineSavingsRef     float64                  `json:"line_savings_reference"`
}

// Snapshot is the cached result of one optimization run over a list.
// Sources records the enabled source set the run used, ItemCount the list
// size at optimization time; both serve staleness and comparability checks.
type Snapshot struct {
	ListID            int64          `json:"list_id"`
	Items             []SnapshotItem `json:"items"`
	TotalCostLocal    float64        `json:"total_cost_local"`
	TotalCostRef      float64        `json:"total_cost_reference"`
	PotentialSavLocal float64        `json:"potential_savings_local"`
	PotentialSavRef   float64        `json:"potential_savings_reference"`
	UncoveredItems    []int64        `json:"uncovered_items,omitempty"`
	Sources           []string       `json:"sources"`
	ItemCount         int            `json:"item_count"`
	OptimizedAt       time.Time      `json:"optimized_at"`
}

// Stale reports whether the snapshot predates the given threshold or the
// list has changed shape since it was taken
func (s *Snapshot) Stale(now time.Time, threshold time.Duration, currentItemCount int) bool {
	if currentItemCount != s.ItemCount {
		return true
	}
	return now.Sub(s.OptimizedAt) > threshold
}

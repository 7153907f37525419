package client

import "time"

// Recommendation is one ranked product offer
type Recommendation struct {
	Rank           int     `json:"rank"`
	Source         string  `json:"source"`
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	PriceLocal     float64 `json:"priceLocal"`
	PriceReference float64 `json:"priceReference"`
	Currency       string  `json:"currency"`
	Rate           float64 `json:"rate"`
}

// SourceFailure reports a storefront that produced no results
type SourceFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// SearchResult is the outcome of a product search
type SearchResult struct {
	Term            string           `json:"term"`
	Recommendations []Recommendation `json:"recommendations"`
	Failures        []SourceFailure  `json:"failures,omitempty"`
	SourcesQueried  []string         `json:"sourcesQueried"`
	DurationMs      int64            `json:"durationMs"`
}

// Source describes one configured storefront
type Source struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// LineItem is a shopping list line item
type LineItem struct {
	ID              int64            `json:"id"`
	ProductName     string           `json:"productName"`
	Quantity        int              `json:"quantity"`
	Status          string           `json:"status"`
	NoCoverage      bool             `json:"noCoverage"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// List is a shopping list with its items
type List struct {
	ID        int64      `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Name      string     `json:"name"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Summary is a shopping list overview row
type Summary struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ItemCount      int       `json:"itemCount"`
	PurchasedCount int       `json:"purchasedCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SnapshotItem is one priced line inside a snapshot
type SnapshotItem struct {
	ItemID             int64            `json:"itemId"`
	ProductName        string           `json:"productName"`
	Quantity           int              `json:"quantity"`
	Status             string           `json:"status"`
	NoCoverage         bool             `json:"noCoverage"`
	Recommendations    []Recommendation `json:"recommendations,omitempty"`
	LineTotalLocal     float64          `json:"lineTotalLocal"`
	LineTotalReference float64          `json:"lineTotalReference"`
	LineSavingsLocal   float64          `json:"lineSavingsLocal"`
	LineSavingsRef     float64          `json:"lineSavingsReference"`
}

// Snapshot is an optimization snapshot
type Snapshot struct {
	ListID            int64          `json:"listId"`
	Items             []SnapshotItem `json:"items"`
	TotalCostLocal    float64        `json:"totalCostLocal"`
	TotalCostRef      float64        `json:"totalCostReference"`
	PotentialSavLocal float64        `json:"potentialSavingsLocal"`
	PotentialSavRef   float64        `json:"potentialSavingsReference"`
	UncoveredItems    []int64        `json:"uncoveredItems,omitempty"`
	Sources           []string       `json:"sources"`
	ItemCount         int            `json:"itemCount"`
	OptimizedAt       time.Time      `json:"optimizedAt"`
}

// PricePoint is one historical price observation
type PricePoint struct {
	ProductName string    `json:"productName"`
	Source      string    `json:"source"`
	PriceLocal  float64   `json:"priceLocal"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewItem is one product to add to a shopping list
type NewItem struct {
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

package catalog

import "time"

// NoURL is the placeholder a source reports when it exposes no product link
const NoURL = "N/A"

// SearchQuery describes one product search. It is immutable once issued;
// flags affect selection only, never which offers the sources return.
type SearchQuery struct {
	Term              string   `json:"term"`
	Sources           []string `json:"sources"`
	TopN              int      `json:"top_n"`
	SortByPrice       bool     `json:"sort_by_price"`
	EqualDistribution bool     `json:"equal_distribution"`
	Parallel          bool     `json:"parallel"`
}

// RawProduct is a single offer exactly as a catalog source reported it
type RawProduct struct {
	Source   string  `json:"source"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	URL      string  `json:"url"`
}

// PriceSet holds an offer's price in both currencies
type PriceSet struct {
	Local     float64 `json:"local"`
	Reference float64 `json:"reference"`
}

// NormalizedProduct is a raw offer with its price converted to the local
// and reference currencies at the startup rate
type NormalizedProduct struct {
	RawProduct
	Prices PriceSet `json:"prices"`
	Rate   float64  `json:"rate"`
}

// Recommendation is a normalized offer with its 1-based rank after selection
type Recommendation struct {
	NormalizedProduct
	Rank int `json:"rank"`
}

// SourceFailure records one source that failed during a fan-out search
type SourceFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// SearchResult is one complete fan-out batch: the ranked selection plus the
// per-source failure report. A result with failures is still usable; only a
// run where every source failed is an error.
type SearchResult struct {
	Query           SearchQuery      `json:"query"`
	Recommendations []Recommendation `json:"recommendations"`
	Failures        []SourceFailure  `json:"failures"`
	SourcesQueried  []string         `json:"sources_queried"`
	Duration        time.Duration    `json:"duration_ms"`
}

// PricePoint is one historical price observation for a product
type PricePoint struct {
	ProductName string    `json:"product_name"`
	Source      string    `json:"source"`
	PriceLocal  float64   `json:"price_local"`
	RecordedAt  time.Time `json:"recorded_at"`
}

package dto

import (
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
)

// RecommendationDTO represents one ranked product offer in API responses
// Uses camelCase for frontend compatibility
type RecommendationDTO struct {
	Rank           int     `json:"rank"`
	Source         string  `json:"source"`
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	PriceLocal     float64 `json:"priceLocal"`
	PriceReference float64 `json:"priceReference"`
	Currency       string  `json:"currency"`
	Rate           float64 `json:"rate"`
}

// SourceFailureDTO reports a storefront that produced no results
type SourceFailureDTO struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// SearchResponse represents a product search result
type SearchResponse struct {
	Term            string              `json:"term"`
	Recommendations []RecommendationDTO `json:"recommendations"`
	Failures        []SourceFailureDTO  `json:"failures,omitempty"`
	SourcesQueried  []string            `json:"sourcesQueried"`
	DurationMs      int64               `json:"durationMs"`
}

// SourceDTO describes one configured storefront
type SourceDTO struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// NewRecommendationDTO converts a domain recommendation
func NewRecommendationDTO(r catalog.Recommendation) RecommendationDTO {
	return RecommendationDTO{
		Rank:           r.Rank,
		Source:         r.Source,
		Name:           r.Name,
		URL:            r.URL,
		PriceLocal:     r.Prices.Local,
		PriceReference: r.Prices.Reference,
		Currency:       r.Currency,
		Rate:           r.Rate,
	}
}

// NewSearchResponse converts a domain search result
func NewSearchResponse(res *catalog.SearchResult) SearchResponse {
	out := SearchResponse{
		Term:            res.Query.Term,
		Recommendations: make([]RecommendationDTO, len(res.Recommendations)),
		SourcesQueried:  res.SourcesQueried,
		DurationMs:      res.Duration.Milliseconds(),
	}
	for i, r := range res.Recommendations {
		out.Recommendations[i] = NewRecommendationDTO(r)
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, SourceFailureDTO{Source: f.Source, Reason: f.Reason})
	}
	return out
}

// PricePointDTO represents one historical price observation
type PricePointDTO struct {
	ProductName string    `json:"productName"`
	Source      string    `json:"source"`
	PriceLocal  float64   `json:"priceLocal"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewPricePointDTO converts a domain price point
func NewPricePointDTO(p catalog.PricePoint) PricePointDTO {
	return PricePointDTO{
		ProductName: p.ProductName,
		Source:      p.Source,
		PriceLocal:  p.PriceLocal,
		RecordedAt:  p.RecordedAt,
	}
}

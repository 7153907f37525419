package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// SearchService handles product search API calls
type SearchService struct {
	client *Client
}

// SearchOptions contains optional search parameters
type SearchOptions struct {
	Sources           []string // subset of sources to query
	TopN              int      // number of recommendations to return
	Sort              *bool    // sort by reference price
	EqualDistribution *bool    // cap results per source
}

// Search runs a product search across the configured storefronts
func (s *SearchService) Search(ctx context.Context, term string, opts *SearchOptions) (*SearchResult, error) {
	query := url.Values{}
	query.Set("q", term)

	if opts != nil {
		if len(opts.Sources) > 0 {
			query.Set("sources", strings.Join(opts.Sources, ","))
		}
		if opts.TopN > 0 {
			query.Set("top_n", strconv.Itoa(opts.TopN))
		}
		if opts.Sort != nil {
			query.Set("sort", strconv.FormatBool(*opts.Sort))
		}
		if opts.EqualDistribution != nil {
			query.Set("equal_distribution", strconv.FormatBool(*opts.EqualDistribution))
		}
	}

	var result SearchResult
	if err := s.client.doRequest(ctx, "GET", "/api/v1/search?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Sources retrieves the configured storefronts
func (s *SearchService) Sources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := s.client.doRequest(ctx, "GET", "/api/v1/sources", nil, &sources); err != nil {
		return nil, err
	}

	return sources, nil
}

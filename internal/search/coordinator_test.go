package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paisapro/pricewise/internal/currency"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/sources"
)

// stubAdapter returns canned products or an error
type stubAdapter struct {
	name     string
	products []catalog.RawProduct
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (s *stubAdapter) Name() string     { return s.name }
func (s *stubAdapter) Currency() string { return "PKR" }
func (s *stubAdapter) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func offer(source, name string, priceLocal float64) catalog.RawProduct {
	return catalog.RawProduct{
		Source:   source,
		Name:     name,
		Price:    priceLocal,
		Currency: "PKR",
		URL:      fmt.Sprintf("https://%s.example/%s", source, name),
	}
}

func newCoordinator(t *testing.T, adapters ...sources.Adapter) *Coordinator {
	t.Helper()
	reg, err := sources.NewRegistry(adapters...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	conv, err := currency.New("PKR", "USD", 280.0)
	if err != nil {
		t.Fatalf("currency.New() error = %v", err)
	}
	return NewCoordinator(reg, conv, 2*time.Second, 20, logger.Nop())
}

func query(sources ...string) catalog.SearchQuery {
	return catalog.SearchQuery{
		Term:        "milk",
		Sources:     sources,
		TopN:        5,
		SortByPrice: true,
		Parallel:    true,
	}
}

func TestSearchMergesAllSources(t *testing.T) {
	c := newCoordinator(t,
		&stubAdapter{name: "alfatah", products: []catalog.RawProduct{offer("alfatah", "a", 588)}},
		&stubAdapter{name: "daraz", products: []catalog.RawProduct{offer("daraz", "b", 546)}},
	)

	res, err := c.Search(context.Background(), query("alfatah", "daraz"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(res.Recommendations))
	}
	if len(res.Failures) != 0 {
		t.Errorf("got %d failures, want 0", len(res.Failures))
	}
	// cheapest first: 546 PKR is 1.95 USD, 588 PKR is 2.10 USD
	if res.Recommendations[0].Source != "daraz" || res.Recommendations[0].Rank != 1 {
		t.Errorf("rank 1 = %+v, want daraz offer", res.Recommendations[0])
	}
	if res.Recommendations[0].Prices.Reference != 1.95 {
		t.Errorf("reference price = %v, want 1.95", res.Recommendations[0].Prices.Reference)
	}
}

func TestSearchPartialFailure(t *testing.T) {
	c := newCoordinator(t,
		&stubAdapter{name: "alfatah", products: []catalog.RawProduct{offer("alfatah", "a", 588)}},
		&stubAdapter{name: "daraz", err: fmt.Errorf("connection refused")},
		&stubAdapter{name: "imtiaz", products: []catalog.RawProduct{offer("imtiaz", "c", 700)}},
	)

	res, err := c.Search(context.Background(), query("alfatah", "daraz", "imtiaz"))
	if err != nil {
		t.Fatalf("Search() error = %v, partial failure must not fail the call", err)
	}
	if len(res.Recommendations) != 2 {
		t.Errorf("got %d recommendations, want 2", len(res.Recommendations))
	}
	if len(res.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(res.Failures))
	}
	if res.Failures[0].Source != "daraz" {
		t.Errorf("failed source = %s, want daraz", res.Failures[0].Source)
	}
}

func TestSearchAllSourcesFailed(t *testing.T) {
	c := newCoordinator(t,
		&stubAdapter{name: "alfatah", err: fmt.Errorf("boom")},
		&stubAdapter{name: "daraz", err: fmt.Errorf("boom")},
	)

	_, err := c.Search(context.Background(), query("alfatah", "daraz"))
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.AppError", err)
	}
	if appErr.Code != errors.ErrCodeAllSourcesFailed {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeAllSourcesFailed)
	}
}

func TestSearchTimeoutReportedAsFailure(t *testing.T) {
	slow := &stubAdapter{name: "daraz", delay: 10 * time.Second,
		products: []catalog.RawProduct{offer("daraz", "never", 1)}}
	fast := &stubAdapter{name: "alfatah", products: []catalog.RawProduct{offer("alfatah", "a", 588)}}

	reg, _ := sources.NewRegistry(fast, slow)
	conv, _ := currency.New("PKR", "USD", 280.0)
	c := NewCoordinator(reg, conv, 100*time.Millisecond, 20, logger.Nop())

	res, err := c.Search(context.Background(), query("alfatah", "daraz"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Recommendations) != 1 {
		t.Errorf("got %d recommendations, want 1", len(res.Recommendations))
	}
	if len(res.Failures) != 1 || res.Failures[0].Source != "daraz" {
		t.Fatalf("failures = %+v, want one daraz timeout", res.Failures)
	}
}

func TestSearchSequentialMode(t *testing.T) {
	a := &stubAdapter{name: "alfatah", products: []catalog.RawProduct{offer("alfatah", "a", 588)}}
	d := &stubAdapter{name: "daraz", products: []catalog.RawProduct{offer("daraz", "b", 546)}}
	c := newCoordinator(t, a, d)

	q := query("alfatah", "daraz")
	q.Parallel = false

	res, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Errorf("got %d recommendations, want 2", len(res.Recommendations))
	}
	if a.calls.Load() != 1 || d.calls.Load() != 1 {
		t.Errorf("each adapter should be called exactly once")
	}
}

func TestSearchInvalidQuery(t *testing.T) {
	c := newCoordinator(t, &stubAdapter{name: "alfatah"})

	tests := []struct {
		name string
		q    catalog.SearchQuery
	}{
		{"blank term", catalog.SearchQuery{Term: "  ", Sources: []string{"alfatah"}, TopN: 3}},
		{"zero top n", catalog.SearchQuery{Term: "milk", Sources: []string{"alfatah"}, TopN: 0}},
		{"no sources", catalog.SearchQuery{Term: "milk", TopN: 3}},
		{"unknown source", catalog.SearchQuery{Term: "milk", Sources: []string{"walmart"}, TopN: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Search(context.Background(), tt.q); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSearchSubsetOnlyQueriesRequested(t *testing.T) {
	a := &stubAdapter{name: "alfatah", products: []catalog.RawProduct{offer("alfatah", "a", 588)}}
	d := &stubAdapter{name: "daraz", products: []catalog.RawProduct{offer("daraz", "b", 546)}}
	c := newCoordinator(t, a, d)

	_, err := c.Search(context.Background(), query("daraz"))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if a.calls.Load() != 0 {
		t.Error("alfatah should not have been queried")
	}
	if d.calls.Load() != 1 {
		t.Error("daraz should have been queried once")
	}
}

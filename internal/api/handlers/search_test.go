package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/paisapro/pricewise/internal/api/dto"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/sources"
)

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t,
		&fakeAdapter{name: "alfatah", products: []catalog.RawProduct{
			{Source: "alfatah", Name: "Olpers Milk 1L", Price: 588, Currency: "PKR", URL: "https://alfatah.example/milk"},
		}},
		&fakeAdapter{name: "daraz", products: []catalog.RawProduct{
			{Source: "daraz", Name: "Olpers Milk 1L", Price: 546, Currency: "PKR", URL: "https://daraz.example/milk"},
		}},
	)

	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/search?q=milk", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %+v", status, body)
	}
	var res dto.SearchResponse
	if err := json.Unmarshal(body.Data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(res.Recommendations))
	}
	first := res.Recommendations[0]
	if first.Rank != 1 || first.Source != "daraz" || first.PriceReference != 1.95 {
		t.Errorf("rank 1 = %+v, want the cheaper daraz offer at 1.95", first)
	}
	if len(res.SourcesQueried) != 2 {
		t.Errorf("sourcesQueried = %v, want both sources", res.SourcesQueried)
	}
}

func TestSearchEndpointPartialFailure(t *testing.T) {
	env := newTestEnv(t,
		&fakeAdapter{name: "alfatah", err: fmt.Errorf("upstream returned 502")},
		&fakeAdapter{name: "daraz", products: []catalog.RawProduct{
			{Source: "daraz", Name: "Olpers Milk 1L", Price: 546, Currency: "PKR", URL: "https://daraz.example/milk"},
		}},
	)

	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/search?q=milk", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, partial failure must still answer", status)
	}
	var res dto.SearchResponse
	if err := json.Unmarshal(body.Data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Recommendations) != 1 || len(res.Failures) != 1 {
		t.Errorf("got %d recommendations and %d failures, want 1 and 1", len(res.Recommendations), len(res.Failures))
	}
	if res.Failures[0].Source != "alfatah" {
		t.Errorf("failure = %+v, want alfatah", res.Failures[0])
	}
}

func TestSearchEndpointAllSourcesFailed(t *testing.T) {
	env := newTestEnv(t,
		&fakeAdapter{name: "daraz", err: fmt.Errorf("connection refused")},
	)

	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/search?q=milk", nil)
	if status != http.StatusBadGateway || body.Error.Code != "ALL_SOURCES_FAILED" {
		t.Errorf("status = %d, code = %s, want 502 ALL_SOURCES_FAILED", status, body.Error.Code)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
	}{
		{"blank term", "q="},
		{"bad top_n", "q=milk&top_n=zero"},
		{"unknown source", "q=milk&sources=walmart"},
		{"bad sort flag", "q=milk&sort=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, http.MethodGet, env.server.URL+"/api/v1/search?"+tt.query, nil)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}

func TestSearchEndpointSourceSubset(t *testing.T) {
	env := newTestEnv(t,
		&fakeAdapter{name: "alfatah", products: []catalog.RawProduct{
			{Source: "alfatah", Name: "Milk", Price: 588, Currency: "PKR", URL: catalog.NoURL},
		}},
		&fakeAdapter{name: "daraz", products: []catalog.RawProduct{
			{Source: "daraz", Name: "Milk", Price: 546, Currency: "PKR", URL: catalog.NoURL},
		}},
	)

	q := url.Values{"q": {"milk"}, "sources": {"alfatah"}}
	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/search?"+q.Encode(), nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var res dto.SearchResponse
	if err := json.Unmarshal(body.Data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, rec := range res.Recommendations {
		if rec.Source != "alfatah" {
			t.Errorf("recommendation from %s, want only alfatah", rec.Source)
		}
	}
}

func TestListSourcesEndpoint(t *testing.T) {
	env := newTestEnv(t,
		&fakeAdapter{name: "alfatah"},
		&fakeAdapter{name: "daraz"},
		&fakeAdapter{name: "imtiaz"},
	)

	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/sources", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var out []dto.SourceDTO
	if err := json.Unmarshal(body.Data, &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d sources, want 3", len(out))
	}
	if out[0].Name != "alfatah" || out[0].Currency != "PKR" {
		t.Errorf("first source = %+v", out[0])
	}
}

var _ sources.Adapter = (*fakeAdapter)(nil)

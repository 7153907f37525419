package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

// Imtiaz queries the Imtiaz online store's catalog API, which returns
// numeric prices directly.
type Imtiaz struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewImtiaz creates the Imtiaz adapter
func NewImtiaz(baseURL string, timeout time.Duration, log *logger.Logger) *Imtiaz {
	return &Imtiaz{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     log.With("source", "imtiaz"),
	}
}

// Name implements Adapter
func (i *Imtiaz) Name() string { return "imtiaz" }

// Currency implements Adapter
func (i *Imtiaz) Currency() string { return "PKR" }

type imtiazResponse struct {
	Data struct {
		Products []struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
			Slug  string  `json:"slug"`
		} `json:"products"`
	} `json:"data"`
}

// Fetch implements Adapter
func (i *Imtiaz) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	endpoint := fmt.Sprintf("%s/api/catalog/search?q=%s&limit=%d",
		i.baseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body imtiazResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := body.Data.Products
	if len(raw) == 0 {
		return nil, fmt.Errorf("no products found for %q", query)
	}

	products := make([]catalog.RawProduct, 0, len(raw))
	for _, p := range raw {
		if p.Price <= 0 {
			i.logger.Warnf("skipping product %q with price %f", p.Name, p.Price)
			continue
		}
		link := catalog.NoURL
		if p.Slug != "" {
			link = fmt.Sprintf("%s/product/%s", i.baseURL, p.Slug)
		}
		products = append(products, catalog.RawProduct{
			Source:   i.Name(),
			Name:     p.Name,
			Price:    p.Price,
			Currency: i.Currency(),
			URL:      link,
		})
		if len(products) == maxResults {
			break
		}
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no parsable products for %q", query)
	}
	return products, nil
}

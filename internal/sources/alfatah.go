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

// Alfatah queries the Alfatah storefront's search suggest endpoint. The
// store runs on a Shopify-style backend, so products come back under
// resources.results.products with display-formatted prices.
type Alfatah struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewAlfatah creates the Alfatah adapter
func NewAlfatah(baseURL string, timeout time.Duration, log *logger.Logger) *Alfatah {
	return &Alfatah{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     log.With("source", "alfatah"),
	}
}

// Name implements Adapter
func (a *Alfatah) Name() string { return "alfatah" }

// Currency implements Adapter
func (a *Alfatah) Currency() string { return "PKR" }

type alfatahResponse struct {
	Resources struct {
		Results struct {
			Products []struct {
				Title string `json:"title"`
				Price string `json:"price"`
				URL   string `json:"url"`
			} `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

// Fetch implements Adapter
func (a *Alfatah) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	endpoint := fmt.Sprintf("%s/search/suggest.json?q=%s&resources[type]=product&resources[limit]=%d",
		a.baseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body alfatahResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := body.Resources.Results.Products
	if len(raw) == 0 {
		return nil, fmt.Errorf("no products found for %q", query)
	}

	products := make([]catalog.RawProduct, 0, len(raw))
	for _, p := range raw {
		price, err := ExtractPrice(p.Price)
		if err != nil {
			a.logger.WithError(err).Warnf("skipping product %q", p.Title)
			continue
		}
		link := catalog.NoURL
		if p.URL != "" {
			link = a.baseURL + p.URL
		}
		products = append(products, catalog.RawProduct{
			Source:   a.Name(),
			Name:     p.Title,
			Price:    price,
			Currency: a.Currency(),
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

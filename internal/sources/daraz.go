package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

// Daraz queries the Daraz marketplace catalog endpoint in its ajax mode,
// which returns listing data as JSON under mods.listItems.
type Daraz struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewDaraz creates the Daraz adapter
func NewDaraz(baseURL string, timeout time.Duration, log *logger.Logger) *Daraz {
	return &Daraz{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		logger:     log.With("source", "daraz"),
	}
}

// Name implements Adapter
func (d *Daraz) Name() string { return "daraz" }

// Currency implements Adapter
func (d *Daraz) Currency() string { return "PKR" }

type darazResponse struct {
	Mods struct {
		ListItems []struct {
			Name       string `json:"name"`
			PriceShow  string `json:"priceShow"`
			ProductURL string `json:"productUrl"`
		} `json:"listItems"`
	} `json:"mods"`
}

// Fetch implements Adapter
func (d *Daraz) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	endpoint := fmt.Sprintf("%s/catalog/?ajax=true&q=%s", d.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body darazResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := body.Mods.ListItems
	if len(items) == 0 {
		return nil, fmt.Errorf("no products found for %q", query)
	}

	products := make([]catalog.RawProduct, 0, len(items))
	for _, it := range items {
		price, err := ExtractPrice(it.PriceShow)
		if err != nil {
			d.logger.WithError(err).Warnf("skipping product %q", it.Name)
			continue
		}
		link := catalog.NoURL
		if it.ProductURL != "" {
			// listing URLs come back protocol-relative
			if strings.HasPrefix(it.ProductURL, "//") {
				link = "https:" + it.ProductURL
			} else {
				link = it.ProductURL
			}
		}
		products = append(products, catalog.RawProduct{
			Source:   d.Name(),
			Name:     it.Name,
			Price:    price,
			Currency: d.Currency(),
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

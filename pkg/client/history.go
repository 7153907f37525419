package client

import (
	"context"
	"fmt"
	"net/url"
)

// HistoryService handles price history API calls
type HistoryService struct {
	client *Client
}

// historyPage is the paginated wrapper the server returns
type historyPage struct {
	Data       []PricePoint `json:"data"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalItems int64        `json:"total_items"`
	TotalPages int          `json:"total_pages"`
}

// History retrieves the recorded price observations for a product within
// the last days, oldest first. All pages are fetched.
func (s *HistoryService) History(ctx context.Context, product string, days int) ([]PricePoint, error) {
	base := "/api/v1/price-history/" + url.PathEscape(product)

	var points []PricePoint
	for page := 1; ; page++ {
		path := fmt.Sprintf("%s?page=%d", base, page)
		if days > 0 {
			path += fmt.Sprintf("&days=%d", days)
		}

		var out historyPage
		if err := s.client.doRequest(ctx, "GET", path, nil, &out); err != nil {
			return nil, err
		}
		points = append(points, out.Data...)

		if page >= out.TotalPages {
			break
		}
	}

	return points, nil
}

package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
)

// Adapter is one storefront catalog. Fetch returns either a complete batch
// of offers or an error; it never returns a partially valid batch. Adapters
// own their HTTP client and request timeout, and also honor ctx
// cancellation from the fan-out deadline.
type Adapter interface {
	// Name returns the registry name of the source (e.g. "daraz")
	Name() string
	// Currency returns the currency code the source quotes prices in
	Currency() string
	// Fetch searches the storefront catalog for the given term
	Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error)
}

// newHTTPClient builds the client every concrete adapter uses. The timeout
// caps a single storefront round trip; the fan-out deadline is enforced
// separately through the request context.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// userAgent identifies the service to storefront endpoints
const userAgent = "pricewise/1.0"

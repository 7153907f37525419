package currency

import (
	"fmt"
	"math"

	"github.com/paisapro/pricewise/internal/domain/catalog"
)

// Converter translates source prices into the local and reference
// currencies using a rate fixed at startup. It is pure and safe for
// concurrent use.
type Converter struct {
	local     string
	reference string
	rate      float64 // local units per one reference unit
}

// New creates a converter. The rate is local units per reference unit
// (e.g. 280 PKR per USD).
func New(local, reference string, rate float64) (*Converter, error) {
	if local == "" || reference == "" {
		return nil, fmt.Errorf("currency codes must not be empty")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("exchange rate must be positive, got %f", rate)
	}
	return &Converter{
		local:     local,
		reference: reference,
		rate:      rate,
	}, nil
}

// Local returns the local currency code
func (c *Converter) Local() string { return c.local }

// Reference returns the reference currency code
func (c *Converter) Reference() string { return c.reference }

// Rate returns the fixed exchange rate
func (c *Converter) Rate() float64 { return c.rate }

// Supports reports whether the converter knows the given currency code
func (c *Converter) Supports(code string) bool {
	return code == c.local || code == c.reference
}

// Normalize converts a source price into a PriceSet. The source currency
// must be either the local or the reference currency; anything else is a
// configuration problem surfaced at startup, not a per-request condition.
func (c *Converter) Normalize(price float64, sourceCurrency string) (catalog.PriceSet, error) {
	switch sourceCurrency {
	case c.local:
		return catalog.PriceSet{
			Local:     price,
			Reference: round2(price / c.rate),
		}, nil
	case c.reference:
		return catalog.PriceSet{
			Local:     round2(price * c.rate),
			Reference: price,
		}, nil
	default:
		return catalog.PriceSet{}, fmt.Errorf("unknown currency code: %s", sourceCurrency)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/sources"
)

// SelectConfig controls ranking and selection over one completed result set
type SelectConfig struct {
	TopN              int
	SortByPrice       bool
	EqualDistribution bool
	// SourcePos maps a source name to its registry enumeration position.
	// It is the first tie-break for equal reference prices.
	SourcePos func(name string) int
}

// ranked carries a record with its arrival index, the second tie-break
type ranked struct {
	rec     catalog.NormalizedProduct
	arrival int
}

// Select turns a completed result set into the final ranked recommendations.
// The pipeline is fixed: dedupe, optional per-source cap, optional price
// sort, truncate, assign ranks. For a given input and config the output is
// identical on every run.
func Select(records []catalog.NormalizedProduct, cfg SelectConfig) []catalog.Recommendation {
	if cfg.TopN < 1 || len(records) == 0 {
		return nil
	}
	pos := cfg.SourcePos
	if pos == nil {
		pos = func(string) int { return 0 }
	}

	// Dedupe by (source, URL), falling back to (source, normalized name)
	// when the source reported no link. First arrival wins.
	seen := make(map[string]bool, len(records))
	deduped := make([]ranked, 0, len(records))
	for i, r := range records {
		key := r.Source + "|url|" + r.URL
		if r.URL == "" || r.URL == catalog.NoURL {
			key = r.Source + "|name|" + sources.NormalizeName(r.Name)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, ranked{rec: r, arrival: i})
	}

	if cfg.EqualDistribution {
		deduped = capPerSource(deduped, cfg.TopN)
	}

	if cfg.SortByPrice {
		sort.SliceStable(deduped, func(a, b int) bool {
			ra, rb := deduped[a], deduped[b]
			if ra.rec.Prices.Reference != rb.rec.Prices.Reference {
				return ra.rec.Prices.Reference < rb.rec.Prices.Reference
			}
			pa, pb := pos(ra.rec.Source), pos(rb.rec.Source)
			if pa != pb {
				return pa < pb
			}
			return ra.arrival < rb.arrival
		})
	}

	if len(deduped) > cfg.TopN {
		deduped = deduped[:cfg.TopN]
	}

	out := make([]catalog.Recommendation, len(deduped))
	for i, r := range deduped {
		out[i] = catalog.Recommendation{
			NormalizedProduct: r.rec,
			Rank:              i + 1,
		}
	}
	return out
}

// capPerSource keeps at most ceil(topN/sourceCount) offers per source,
// cheapest first, so no single source can crowd out the rest. The
// denominator is the number of sources that actually contributed offers,
// not the number queried: a failed or empty source does not reserve slots,
// so its share is redistributed among the sources that answered.
func capPerSource(records []ranked, topN int) []ranked {
	bySource := make(map[string][]ranked)
	for _, r := range records {
		bySource[r.rec.Source] = append(bySource[r.rec.Source], r)
	}
	limit := int(math.Ceil(float64(topN) / float64(len(bySource))))

	keep := make(map[string]bool, len(records))
	for _, group := range bySource {
		g := append([]ranked(nil), group...)
		sort.SliceStable(g, func(a, b int) bool {
			if g[a].rec.Prices.Reference != g[b].rec.Prices.Reference {
				return g[a].rec.Prices.Reference < g[b].rec.Prices.Reference
			}
			return g[a].arrival < g[b].arrival
		})
		if len(g) > limit {
			g = g[:limit]
		}
		for _, r := range g {
			keep[keyOf(r)] = true
		}
	}

	// preserve original arrival order among the survivors
	out := make([]ranked, 0, len(keep))
	for _, r := range records {
		if keep[keyOf(r)] {
			out = append(out, r)
		}
	}
	return out
}

func keyOf(r ranked) string {
	return fmt.Sprintf("%s|%d", r.rec.Source, r.arrival)
}

package optimizer

import (
	"context"
	stderrors "errors"
	"math"
	"sync"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

// GetCached returns the stored snapshot for a list. It never recomputes:
// a list that exists but was never optimized yields NEVER_OPTIMIZED.
func (s *Service) GetCached(ctx context.Context, listID int64) (*cart.Snapshot, error) {
	snap, err := s.snapshots.Get(ctx, listID)
	if err == nil {
		metrics.RecordSnapshotRead("hit")
		return snap, nil
	}
	if !stderrors.Is(err, cart.ErrNoSnapshot) {
		return nil, errors.DatabaseError("snapshot read failed", err)
	}
	metrics.RecordSnapshotRead("miss")
	if _, lerr := s.carts.GetList(ctx, listID); lerr != nil {
		return nil, s.mapRepoErr(lerr, "cart")
	}
	return nil, errors.NeverOptimized(listID)
}

// Refresh recomputes a list's snapshot and atomically replaces the stored
// one on success. A failed run leaves the previous snapshot untouched.
// Refreshes of the same list serialize; different lists run in parallel.
func (s *Service) Refresh(ctx context.Context, listID int64) (*cart.Snapshot, error) {
	mu := s.lockFor(listID)
	mu.Lock()
	defer mu.Unlock()

	snap, err := s.optimize(ctx, listID)
	if err != nil {
		metrics.RecordOptimizeRun("error")
		return nil, err
	}
	if err := s.snapshots.Replace(ctx, snap); err != nil {
		metrics.RecordOptimizeRun("error")
		return nil, errors.DatabaseError("snapshot replace failed", err)
	}
	metrics.RecordOptimizeRun("ok")
	return snap, nil
}

// optimize prices every non-purchased item concurrently and folds the
// results into one snapshot. Item-level failures never abort the run; they
// surface as uncovered items.
func (s *Service) optimize(ctx context.Context, listID int64) (*cart.Snapshot, error) {
	list, err := s.carts.GetList(ctx, listID)
	if err != nil {
		return nil, s.mapRepoErr(err, "cart")
	}

	snap := &cart.Snapshot{
		ListID:      list.ID,
		Sources:     append([]string(nil), s.sourceNames...),
		ItemCount:   len(list.Items),
		OptimizedAt: time.Now().UTC(),
	}
	if len(list.Items) == 0 {
		return snap, nil
	}

	results := make([]cart.SnapshotItem, len(list.Items))
	sem := make(chan struct{}, s.cfg.ItemConcurrency)
	var wg sync.WaitGroup
	for idx, item := range list.Items {
		if item.Status == cart.StatusPurchased {
			// purchased items keep their last recommendations for
			// display but are never re-priced
			results[idx] = cart.SnapshotItem{
				ItemID:          item.ID,
				ProductName:     item.ProductName,
				Quantity:        item.Quantity,
				Status:          cart.StatusPurchased,
				Recommendations: item.Recommendations,
			}
			continue
		}
		wg.Add(1)
		go func(idx int, item cart.LineItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = s.priceItem(ctx, item)
		}(idx, item)
	}
	wg.Wait()

	for _, si := range results {
		snap.Items = append(snap.Items, si)
		if si.Status == cart.StatusPurchased {
			continue
		}
		if si.NoCoverage {
			snap.UncoveredItems = append(snap.UncoveredItems, si.ItemID)
			continue
		}
		snap.TotalCostLocal += si.LineTotalLocal
		snap.TotalCostRef += si.LineTotalReference
		snap.PotentialSavLocal += si.LineSavingsLocal
		snap.PotentialSavRef += si.LineSavingsRef
	}
	snap.TotalCostLocal = round2(snap.TotalCostLocal)
	snap.TotalCostRef = round2(snap.TotalCostRef)
	snap.PotentialSavLocal = round2(snap.PotentialSavLocal)
	snap.PotentialSavRef = round2(snap.PotentialSavRef)

	return snap, nil
}

// priceItem searches one item, persists its recommendations and price
// history, and returns the snapshot line. All failures collapse into
// NoCoverage.
func (s *Service) priceItem(ctx context.Context, item cart.LineItem) cart.SnapshotItem {
	si := cart.SnapshotItem{
		ItemID:      item.ID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Status:      item.Status,
	}

	res, err := s.searcher.Search(ctx, catalog.SearchQuery{
		Term:        item.ProductName,
		Sources:     s.sourceNames,
		TopN:        s.cfg.RecommendationsPerItem,
		SortByPrice: true,
		Parallel:    true,
	})
	if err != nil || len(res.Recommendations) == 0 {
		if err != nil {
			s.logger.WithError(err).Warnf("pricing failed for item %d", item.ID)
		}
		si.NoCoverage = true
		si.Recommendations = item.Recommendations
		if serr := s.carts.StoreRecommendations(ctx, item.ID, item.Recommendations, item.Status, true); serr != nil {
			s.logger.WithError(serr).Warnf("could not flag item %d as uncovered", item.ID)
		}
		return si
	}

	recs := res.Recommendations
	si.Recommendations = recs
	si.Status = cart.StatusPriced

	best := recs[0]
	si.LineTotalLocal = round2(float64(item.Quantity) * best.Prices.Local)
	si.LineTotalReference = round2(float64(item.Quantity) * best.Prices.Reference)
	if len(recs) > 1 {
		second := recs[1]
		si.LineSavingsLocal = round2(float64(item.Quantity) * (second.Prices.Local - best.Prices.Local))
		si.LineSavingsRef = round2(float64(item.Quantity) * (second.Prices.Reference - best.Prices.Reference))
	}

	if err := s.carts.StoreRecommendations(ctx, item.ID, recs, cart.StatusPriced, false); err != nil {
		s.logger.WithError(err).Warnf("could not store recommendations for item %d", item.ID)
	}
	now := time.Now().UTC()
	for _, r := range recs {
		point := catalog.PricePoint{
			ProductName: item.ProductName,
			Source:      r.Source,
			PriceLocal:  r.Prices.Local,
			RecordedAt:  now,
		}
		if err := s.history.Record(ctx, point); err != nil {
			s.logger.WithError(err).Warnf("could not record price history for %q", item.ProductName)
		}
	}

	return si
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

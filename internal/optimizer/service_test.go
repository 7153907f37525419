package optimizer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/testutil"
)

type fixture struct {
	svc      *Service
	carts    *testutil.CartRepo
	snaps    *testutil.SnapshotRepo
	history  *testutil.HistoryRepo
	searcher *testutil.Searcher
	recorder *testutil.Recorder
}

func newFixture() *fixture {
	f := &fixture{
		carts:    testutil.NewCartRepo(),
		snaps:    testutil.NewSnapshotRepo(),
		history:  testutil.NewHistoryRepo(),
		searcher: testutil.NewSearcher(),
		recorder: testutil.NewRecorder(),
	}
	f.svc = NewService(
		f.carts, f.snaps, f.history, f.searcher, f.recorder,
		[]string{"alfatah", "daraz", "imtiaz"},
		"PKR", "USD",
		Config{RecommendationsPerItem: 3, ItemConcurrency: 2},
		logger.Nop(),
	)
	return f
}

func TestRefreshComputesTotalsAndSavings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// daraz is cheapest at 1.95, alfatah second at 2.10
	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
		testutil.Recommendation("alfatah", "Milk 1L", 2, 2.10),
	}

	list, err := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}

	snap, err := f.svc.Refresh(ctx, list.ID)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if snap.TotalCostRef != 3.90 {
		t.Errorf("TotalCostRef = %v, want 3.90", snap.TotalCostRef)
	}
	if snap.PotentialSavRef != 0.30 {
		t.Errorf("PotentialSavRef = %v, want 0.30", snap.PotentialSavRef)
	}
	if snap.ItemCount != 1 || len(snap.Items) != 1 {
		t.Errorf("snapshot shape = %+v", snap)
	}
	if len(snap.UncoveredItems) != 0 {
		t.Errorf("uncovered = %v, want none", snap.UncoveredItems)
	}

	// item transitioned to priced with stored recommendations
	got, _ := f.svc.GetList(ctx, list.ID)
	if got.Items[0].Status != cart.StatusPriced {
		t.Errorf("item status = %s, want priced", got.Items[0].Status)
	}
	if len(got.Items[0].Recommendations) != 2 {
		t.Errorf("stored %d recommendations, want 2", len(got.Items[0].Recommendations))
	}

	// each recommendation left a price history row
	if len(f.history.Points) != 2 {
		t.Errorf("recorded %d history points, want 2", len(f.history.Points))
	}
}

func TestRefreshEmptyCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	list, _ := f.svc.CreateList(ctx, "user-1", "Empty", nil)
	snap, err := f.svc.Refresh(ctx, list.ID)
	if err != nil {
		t.Fatalf("Refresh() error = %v, empty cart must optimize to zero", err)
	}
	if snap.TotalCostRef != 0 || snap.PotentialSavRef != 0 || snap.ItemCount != 0 {
		t.Errorf("snapshot = %+v, want zero totals", snap)
	}

	// the zero snapshot is cached like any other
	if _, err := f.svc.GetCached(ctx, list.ID); err != nil {
		t.Errorf("GetCached() after empty refresh error = %v", err)
	}
}

func TestRefreshUncoveredItemExcludedFromTotals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}
	f.searcher.Errs["unobtainium"] = fmt.Errorf("all sources failed")

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
		{ProductName: "unobtainium", Quantity: 1},
	})

	snap, err := f.svc.Refresh(ctx, list.ID)
	if err != nil {
		t.Fatalf("Refresh() error = %v, item failure must not abort the run", err)
	}
	if snap.TotalCostRef != 1.95 {
		t.Errorf("TotalCostRef = %v, want 1.95", snap.TotalCostRef)
	}
	if len(snap.UncoveredItems) != 1 {
		t.Fatalf("uncovered = %v, want one item", snap.UncoveredItems)
	}

	got, _ := f.svc.GetList(ctx, list.ID)
	var uncovered *cart.LineItem
	for i := range got.Items {
		if got.Items[i].ProductName == "unobtainium" {
			uncovered = &got.Items[i]
		}
	}
	if uncovered == nil || !uncovered.NoCoverage {
		t.Errorf("uncovered item not flagged: %+v", uncovered)
	}
	if uncovered.Status != cart.StatusPending {
		t.Errorf("uncovered item status = %s, want still pending", uncovered.Status)
	}
}

func TestRefreshSingleRecommendationZeroSavings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 2},
	})

	snap, _ := f.svc.Refresh(ctx, list.ID)
	if snap.PotentialSavRef != 0 {
		t.Errorf("PotentialSavRef = %v, want 0 with a single offer", snap.PotentialSavRef)
	}
	if snap.TotalCostRef != 3.90 {
		t.Errorf("TotalCostRef = %v, want 3.90", snap.TotalCostRef)
	}
}

func TestRefreshSkipsPurchasedItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
		{ProductName: "bread", Quantity: 1},
	})
	var breadID int64
	for _, it := range list.Items {
		if it.ProductName == "bread" {
			breadID = it.ID
		}
	}
	if err := f.svc.MarkPurchased(ctx, breadID); err != nil {
		t.Fatalf("MarkPurchased() error = %v", err)
	}

	snap, err := f.svc.Refresh(ctx, list.ID)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	// bread was never searched
	for _, q := range f.searcher.Queries {
		if q.Term == "bread" {
			t.Error("purchased item was re-priced")
		}
	}
	// bread appears in the snapshot but not in totals
	if len(snap.Items) != 2 {
		t.Errorf("snapshot has %d items, want 2", len(snap.Items))
	}
	if snap.TotalCostRef != 1.95 {
		t.Errorf("TotalCostRef = %v, want 1.95", snap.TotalCostRef)
	}
}

func TestGetCachedNeverRecomputes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
	})

	_, err := f.svc.GetCached(ctx, list.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNeverOptimized {
		t.Fatalf("error = %v, want NEVER_OPTIMIZED", err)
	}
	if len(f.searcher.Queries) != 0 {
		t.Error("GetCached must not trigger any search")
	}
}

func TestGetCachedUnknownList(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetCached(context.Background(), 999)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestFailedRefreshPreservesSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
	})
	first, err := f.svc.Refresh(ctx, list.ID)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	f.snaps.ReplaceErr = fmt.Errorf("disk full")
	if _, err := f.svc.Refresh(ctx, list.ID); err == nil {
		t.Fatal("expected error from failed refresh")
	}

	got, err := f.svc.GetCached(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if !got.OptimizedAt.Equal(first.OptimizedAt) {
		t.Error("failed refresh must leave the previous snapshot intact")
	}
}

func TestCreateListDuplicateNameConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateList(ctx, "user-1", "Groceries", nil); err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}
	_, err := f.svc.CreateList(ctx, "user-1", "Groceries", nil)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeConflict {
		t.Fatalf("error = %v, want CONFLICT", err)
	}
}

func TestCreateListValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		list  string
		items []cart.NewItem
	}{
		{"blank name", "  ", nil},
		{"blank item", "Groceries", []cart.NewItem{{ProductName: " ", Quantity: 1}}},
		{"zero quantity", "Groceries", []cart.NewItem{{ProductName: "milk", Quantity: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateList(ctx, "user-1", tt.list, tt.items); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMarkPurchasedEmitsExpenseWhenListComplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 2},
	})
	if _, err := f.svc.Refresh(ctx, list.ID); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if err := f.svc.MarkPurchased(ctx, list.Items[0].ID); err != nil {
		t.Fatalf("MarkPurchased() error = %v", err)
	}

	if len(f.recorder.Expenses) != 1 {
		t.Fatalf("recorded %d expenses, want 1", len(f.recorder.Expenses))
	}
	e := f.recorder.Expenses[0]
	if e.Description != "Groceries" || e.Category != "shopping" || e.Amount != 3.90 {
		t.Errorf("expense = %+v", e)
	}
}

func TestMarkPurchasedPartialListNoExpense(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
		{ProductName: "bread", Quantity: 1},
	})
	if err := f.svc.MarkPurchased(ctx, list.Items[0].ID); err != nil {
		t.Fatalf("MarkPurchased() error = %v", err)
	}
	if len(f.recorder.Expenses) != 0 {
		t.Errorf("recorded %d expenses, want 0 for a partial list", len(f.recorder.Expenses))
	}
}

func TestReactivate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	list, _ := f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
	})
	itemID := list.Items[0].ID

	// only purchased items can be reactivated
	if err := f.svc.Reactivate(ctx, itemID); err == nil {
		t.Error("expected error reactivating a pending item")
	}

	f.svc.MarkPurchased(ctx, itemID)
	if err := f.svc.Reactivate(ctx, itemID); err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}
	it, _ := f.carts.GetItem(ctx, itemID)
	if it.Status != cart.StatusPending {
		t.Errorf("status = %s, want pending after reactivation", it.Status)
	}
}

func TestOverview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 1},
	})
	f.svc.CreateList(ctx, "user-1", "Party", nil)

	summaries, err := f.svc.Overview(ctx, "user-1")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("got %d summaries, want 2", len(summaries))
	}
}

// gatedSnapshotRepo delays inside Replace and records how many Replace
// calls ran at once, exposing interleaved snapshot writes.
type gatedSnapshotRepo struct {
	*testutil.SnapshotRepo
	inFlight int32
	maxSeen  int32
	replaces int32
}

func (r *gatedSnapshotRepo) Replace(ctx context.Context, snap *cart.Snapshot) error {
	n := atomic.AddInt32(&r.inFlight, 1)
	for {
		max := atomic.LoadInt32(&r.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&r.maxSeen, max, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	err := r.SnapshotRepo.Replace(ctx, snap)
	atomic.AddInt32(&r.inFlight, -1)
	atomic.AddInt32(&r.replaces, 1)
	return err
}

func TestConcurrentRefreshesOfOneListSerialize(t *testing.T) {
	f := newFixture()
	snaps := &gatedSnapshotRepo{SnapshotRepo: testutil.NewSnapshotRepo()}
	svc := NewService(
		f.carts, snaps, f.history, f.searcher, f.recorder,
		[]string{"alfatah", "daraz", "imtiaz"},
		"PKR", "USD",
		Config{RecommendationsPerItem: 3, ItemConcurrency: 2},
		logger.Nop(),
	)
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
		testutil.Recommendation("alfatah", "Milk 1L", 2, 2.10),
	}
	list, err := svc.CreateList(ctx, "user-1", "Groceries", []cart.NewItem{
		{ProductName: "milk", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := svc.Refresh(ctx, list.ID)
			if err != nil {
				errs[i] = err
				return
			}
			// every caller must see one complete run's output, never a
			// half-written snapshot
			if snap.TotalCostRef != 3.90 || snap.PotentialSavRef != 0.30 {
				errs[i] = fmt.Errorf("snapshot totals = %v/%v, want 3.90/0.30",
					snap.TotalCostRef, snap.PotentialSavRef)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if max := atomic.LoadInt32(&snaps.maxSeen); max != 1 {
		t.Errorf("observed %d overlapping snapshot writes for one list, want none", max)
	}
	if got := atomic.LoadInt32(&snaps.replaces); got != callers {
		t.Errorf("Replace ran %d times, want %d", got, callers)
	}

	stored, err := svc.GetCached(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if stored.TotalCostRef != 3.90 || stored.PotentialSavRef != 0.30 {
		t.Errorf("stored totals = %v/%v, want 3.90/0.30", stored.TotalCostRef, stored.PotentialSavRef)
	}
}

func TestConcurrentRefreshesOfDifferentListsComplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
	}

	const lists = 6
	ids := make([]int64, lists)
	for i := 0; i < lists; i++ {
		l, err := f.svc.CreateList(ctx, "user-1", fmt.Sprintf("List %d", i), []cart.NewItem{
			{ProductName: "milk", Quantity: 1},
		})
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}
		ids[i] = l.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, lists)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.svc.Refresh(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("list %d: Refresh() error = %v", ids[i], err)
		}
	}
	for _, id := range ids {
		if _, err := f.svc.GetCached(ctx, id); err != nil {
			t.Errorf("list %d: GetCached() error = %v", id, err)
		}
	}
}

package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/ledger"
)

// CartRepo is an in-memory cart.Repository for tests
type CartRepo struct {
	mu       sync.Mutex
	lists    map[int64]*cart.List
	items    map[int64]*cart.LineItem
	nextList int64
	nextItem int64
}

// NewCartRepo creates an empty in-memory cart repository
func NewCartRepo() *CartRepo {
	return &CartRepo{
		lists: make(map[int64]*cart.List),
		items: make(map[int64]*cart.LineItem),
	}
}

func (r *CartRepo) CreateList(ctx context.Context, ownerID, name string, items []cart.NewItem) (*cart.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lists {
		if l.OwnerID == ownerID && l.Name == name {
			return nil, cart.ErrDuplicateName
		}
	}
	r.nextList++
	now := time.Now().UTC()
	list := &cart.List{
		ID:        r.nextList,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.lists[list.ID] = list
	for _, it := range items {
		r.addItemLocked(list.ID, it)
	}
	return r.getListLocked(list.ID)
}

func (r *CartRepo) addItemLocked(listID int64, item cart.NewItem) *cart.LineItem {
	for _, li := range r.items {
		if li.ListID == listID && strings.EqualFold(li.ProductName, item.ProductName) {
			li.Quantity += item.Quantity
			li.UpdatedAt = time.Now().UTC()
			return li
		}
	}
	r.nextItem++
	now := time.Now().UTC()
	li := &cart.LineItem{
		ID:          r.nextItem,
		ListID:      listID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Status:      cart.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[li.ID] = li
	return li
}

func (r *CartRepo) getListLocked(id int64) (*cart.List, error) {
	l, ok := r.lists[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	out := *l
	out.Items = nil
	// insertion order is item ID order
	for itemID := int64(1); itemID <= r.nextItem; itemID++ {
		if li, ok := r.items[itemID]; ok && li.ListID == l.ID {
			out.Items = append(out.Items, *li)
		}
	}
	return &out, nil
}

func (r *CartRepo) GetList(ctx context.Context, id int64) (*cart.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getListLocked(id)
}

func (r *CartRepo) ListsByOwner(ctx context.Context, ownerID string) ([]cart.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []cart.Summary
	for id := int64(1); id <= r.nextList; id++ {
		l, ok := r.lists[id]
		if !ok || l.OwnerID != ownerID {
			continue
		}
		s := cart.Summary{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
		for _, li := range r.items {
			if li.ListID != l.ID {
				continue
			}
			s.ItemCount++
			if li.Status == cart.StatusPurchased {
				s.PurchasedCount++
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *CartRepo) DeleteList(ctx context.Context, id int64, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok || l.OwnerID != ownerID {
		return cart.ErrNotFound
	}
	delete(r.lists, id)
	for iid, li := range r.items {
		if li.ListID == id {
			delete(r.items, iid)
		}
	}
	return nil
}

func (r *CartRepo) AddItem(ctx context.Context, listID int64, item cart.NewItem) (*cart.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[listID]; !ok {
		return nil, cart.ErrNotFound
	}
	li := r.addItemLocked(listID, item)
	r.lists[listID].UpdatedAt = time.Now().UTC()
	out := *li
	return &out, nil
}

func (r *CartRepo) GetItem(ctx context.Context, itemID int64) (*cart.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.items[itemID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	out := *li
	return &out, nil
}

func (r *CartRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.items[itemID]
	if !ok {
		return cart.ErrNotFound
	}
	li.Quantity = quantity
	li.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[itemID]; !ok {
		return cart.ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *CartRepo) SetItemStatus(ctx context.Context, itemID int64, status cart.ItemStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.items[itemID]
	if !ok {
		return cart.ErrNotFound
	}
	li.Status = status
	li.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CartRepo) StoreRecommendations(ctx context.Context, itemID int64, recs []catalog.Recommendation, status cart.ItemStatus, noCoverage bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.items[itemID]
	if !ok {
		return cart.ErrNotFound
	}
	li.Recommendations = append([]catalog.Recommendation(nil), recs...)
	li.Status = status
	li.NoCoverage = noCoverage
	li.UpdatedAt = time.Now().UTC()
	return nil
}

// SnapshotRepo is an in-memory cart.SnapshotRepository for tests.
// ReplaceErr, when set, makes Replace fail without touching stored state.
type SnapshotRepo struct {
	mu         sync.Mutex
	snaps      map[int64]*cart.Snapshot
	ReplaceErr error
}

// NewSnapshotRepo creates an empty in-memory snapshot repository
func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{snaps: make(map[int64]*cart.Snapshot)}
}

func (r *SnapshotRepo) Get(ctx context.Context, listID int64) (*cart.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[listID]
	if !ok {
		return nil, cart.ErrNoSnapshot
	}
	out := *s
	return &out, nil
}

func (r *SnapshotRepo) Replace(ctx context.Context, snap *cart.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReplaceErr != nil {
		return r.ReplaceErr
	}
	cp := *snap
	r.snaps[snap.ListID] = &cp
	return nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, listID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, listID)
	return nil
}

func (r *SnapshotRepo) StaleListIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for id, s := range r.snaps {
		if s.OptimizedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out, nil
}

// HistoryRepo is an in-memory cart.HistoryRepository for tests
type HistoryRepo struct {
	mu     sync.Mutex
	Points []catalog.PricePoint
}

// NewHistoryRepo creates an empty in-memory history repository
func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Record(ctx context.Context, point catalog.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Points = append(r.Points, point)
	return nil
}

func (r *HistoryRepo) History(ctx context.Context, productName string, since time.Time) ([]catalog.PricePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.PricePoint
	for _, p := range r.Points {
		if p.ProductName == productName && !p.RecordedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Searcher is a scripted fan-out searcher for tests. Results maps a search
// term to its ranked recommendations; Errs maps a term to a forced error.
type Searcher struct {
	mu      sync.Mutex
	Results map[string][]catalog.Recommendation
	Errs    map[string]error
	Queries []catalog.SearchQuery
}

// NewSearcher creates an empty scripted searcher
func NewSearcher() *Searcher {
	return &Searcher{
		Results: make(map[string][]catalog.Recommendation),
		Errs:    make(map[string]error),
	}
}

func (s *Searcher) Search(ctx context.Context, q catalog.SearchQuery) (*catalog.SearchResult, error) {
	s.mu.Lock()
	s.Queries = append(s.Queries, q)
	err := s.Errs[q.Term]
	recs := s.Results[q.Term]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(recs) > q.TopN {
		recs = recs[:q.TopN]
	}
	return &catalog.SearchResult{
		Query:           q,
		Recommendations: recs,
		SourcesQueried:  q.Sources,
	}, nil
}

// Recorder captures expense events for tests
type Recorder struct {
	mu       sync.Mutex
	Expenses []ledger.Expense
	Err      error
}

// NewRecorder creates an empty capturing recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordExpense(ctx context.Context, e ledger.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Expenses = append(r.Expenses, e)
	return nil
}

// Recommendation builds a ranked recommendation for tests
func Recommendation(source, name string, rank int, refPrice float64) catalog.Recommendation {
	return catalog.Recommendation{
		NormalizedProduct: catalog.NormalizedProduct{
			RawProduct: catalog.RawProduct{
				Source:   source,
				Name:     name,
				Price:    refPrice * 280,
				Currency: "PKR",
				URL:      "https://" + source + ".example/" + name,
			},
			Prices: catalog.PriceSet{Local: refPrice * 280, Reference: refPrice},
			Rate:   280,
		},
		Rank: rank,
	}
}

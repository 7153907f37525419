package optimizer

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/ledger"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

// Searcher is the fan-out search entry point the optimizer prices items
// through
type Searcher interface {
	Search(ctx context.Context, q catalog.SearchQuery) (*catalog.SearchResult, error)
}

// Config holds optimizer tuning
type Config struct {
	// RecommendationsPerItem is the top-N stored per line item
	RecommendationsPerItem int
	// ItemConcurrency bounds how many items are priced at once
	ItemConcurrency int
}

// Service orchestrates shopping lists: CRUD, per-item pricing, snapshot
// computation and the cached-snapshot gate.
type Service struct {
	carts     cart.Repository
	snapshots cart.SnapshotRepository
	history   cart.HistoryRepository
	searcher  Searcher
	recorder  ledger.Recorder
	logger    *logger.Logger
	cfg       Config

	// enabled source names in registry order; fixed at startup
	sourceNames []string
	localCur    string
	refCur      string

	// per-list refresh serialization
	locks [64]sync.Mutex
}

// NewService creates the optimizer service
func NewService(
	carts cart.Repository,
	snapshots cart.SnapshotRepository,
	history cart.HistoryRepository,
	searcher Searcher,
	recorder ledger.Recorder,
	sourceNames []string,
	localCur, refCur string,
	cfg Config,
	log *logger.Logger,
) *Service {
	if cfg.RecommendationsPerItem < 1 {
		cfg.RecommendationsPerItem = 3
	}
	if cfg.ItemConcurrency < 1 {
		cfg.ItemConcurrency = 4
	}
	return &Service{
		carts:       carts,
		snapshots:   snapshots,
		history:     history,
		searcher:    searcher,
		recorder:    recorder,
		sourceNames: sourceNames,
		localCur:    localCur,
		refCur:      refCur,
		cfg:         cfg,
		logger:      log,
	}
}

func (s *Service) lockFor(listID int64) *sync.Mutex {
	return &s.locks[uint64(listID)%uint64(len(s.locks))]
}

// CreateList creates a shopping list with its initial items. An owner
// cannot have two lists with the same name.
func (s *Service) CreateList(ctx context.Context, ownerID, name string, items []cart.NewItem) (*cart.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("list name must not be blank")
	}
	for _, it := range items {
		if strings.TrimSpace(it.ProductName) == "" {
			return nil, errors.BadRequest("item product name must not be blank")
		}
		if it.Quantity < 1 {
			return nil, errors.BadRequest("item quantity must be at least 1")
		}
	}

	list, err := s.carts.CreateList(ctx, ownerID, name, items)
	if err != nil {
		return nil, s.mapRepoErr(err, "cart")
	}
	return list, nil
}

// GetList returns a list with its items and stored recommendations
func (s *Service) GetList(ctx context.Context, id int64) (*cart.List, error) {
	list, err := s.carts.GetList(ctx, id)
	if err != nil {
		return nil, s.mapRepoErr(err, "cart")
	}
	return list, nil
}

// Overview returns the per-list summaries for an owner
func (s *Service) Overview(ctx context.Context, ownerID string) ([]cart.Summary, error) {
	summaries, err := s.carts.ListsByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.mapRepoErr(err, "cart")
	}
	return summaries, nil
}

// DeleteList removes a list with its items, recommendations and snapshot
func (s *Service) DeleteList(ctx context.Context, id int64, ownerID string) error {
	if err := s.carts.DeleteList(ctx, id, ownerID); err != nil {
		return s.mapRepoErr(err, "cart")
	}
	return nil
}

// AddItem adds a product to a list. Adding a product already on the list
// adds to its quantity.
func (s *Service) AddItem(ctx context.Context, listID int64, item cart.NewItem) (*cart.LineItem, error) {
	if strings.TrimSpace(item.ProductName) == "" {
		return nil, errors.BadRequest("product name must not be blank")
	}
	if item.Quantity < 1 {
		return nil, errors.BadRequest("quantity must be at least 1")
	}
	li, err := s.carts.AddItem(ctx, listID, item)
	if err != nil {
		return nil, s.mapRepoErr(err, "cart")
	}
	return li, nil
}

// UpdateItemQuantity changes a line item's quantity
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 1 {
		return errors.BadRequest("quantity must be at least 1")
	}
	if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return s.mapRepoErr(err, "item")
	}
	return nil
}

// DeleteItem removes a line item
func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	if err := s.carts.DeleteItem(ctx, itemID); err != nil {
		return s.mapRepoErr(err, "item")
	}
	return nil
}

// MarkPurchased flips an item to purchased. When that completes the whole
// list, one expense event is emitted to the ledger; delivery failures are
// logged, never surfaced.
func (s *Service) MarkPurchased(ctx context.Context, itemID int64) error {
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return s.mapRepoErr(err, "item")
	}
	if err := s.carts.SetItemStatus(ctx, itemID, cart.StatusPurchased); err != nil {
		return s.mapRepoErr(err, "item")
	}

	list, err := s.carts.GetList(ctx, item.ListID)
	if err != nil {
		s.logger.WithError(err).Warn("could not re-read list after purchase")
		return nil
	}
	for _, it := range list.Items {
		if it.Status != cart.StatusPurchased {
			return nil
		}
	}
	s.recordListExpense(ctx, list)
	return nil
}

// Reactivate flips a purchased item back to pending so the next refresh
// prices it again
func (s *Service) Reactivate(ctx context.Context, itemID int64) error {
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return s.mapRepoErr(err, "item")
	}
	if item.Status != cart.StatusPurchased {
		return errors.BadRequest("only purchased items can be reactivated")
	}
	if err := s.carts.SetItemStatus(ctx, itemID, cart.StatusPending); err != nil {
		return s.mapRepoErr(err, "item")
	}
	return nil
}

// recordListExpense emits the completed-list expense using the last
// snapshot's total. No snapshot means nothing to report.
func (s *Service) recordListExpense(ctx context.Context, list *cart.List) {
	snap, err := s.snapshots.Get(ctx, list.ID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{"list_id": list.ID}).
			Info("list fully purchased without a snapshot, skipping expense event")
		return
	}
	e := ledger.Expense{
		Description: list.Name,
		Amount:      snap.TotalCostRef,
		Currency:    s.refCur,
		Category:    ledger.CategoryShopping,
		Date:        time.Now().UTC(),
	}
	if err := s.recorder.RecordExpense(ctx, e); err != nil {
		s.logger.WithError(err).Warn("expense event not accepted by ledger")
	}
}

func (s *Service) mapRepoErr(err error, resource string) error {
	switch {
	case stderrors.Is(err, cart.ErrNotFound):
		return errors.NotFound(resource)
	case stderrors.Is(err, cart.ErrDuplicateName):
		return errors.Conflict("a list with that name already exists")
	default:
		return errors.DatabaseError("storage operation failed", err)
	}
}

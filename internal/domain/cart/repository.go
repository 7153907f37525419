package cart

import (
	"context"
	"errors"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
)

// ErrNotFound is returned when a list or item does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when an owner already has a list of that name
var ErrDuplicateName = errors.New("list name already exists for owner")

// ErrNoSnapshot is returned when a list has never been optimized
var ErrNoSnapshot = errors.New("no snapshot for list")

// NewItem is the input shape for creating a line item
type NewItem struct {
	ProductName string
	Quantity    int
}

// Repository is the persistence contract for shopping lists and their items
type Repository interface {
	CreateList(ctx context.Context, ownerID, name string, items []NewItem) (*List, error)
	GetList(ctx context.Context, id int64) (*List, error)
	ListsByOwner(ctx context.Context, ownerID string) ([]Summary, error)
	DeleteList(ctx context.Context, id int64, ownerID string) error

	// AddItem upserts: adding a product already on the list adds to its
	// quantity instead of creating a duplicate row.
	AddItem(ctx context.Context, listID int64, item NewItem) (*LineItem, error)
	GetItem(ctx context.Context, itemID int64) (*LineItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	SetItemStatus(ctx context.Context, itemID int64, status ItemStatus) error

	// StoreRecommendations replaces an item's recommendations and updates
	// its status and coverage flag in one transaction.
	StoreRecommendations(ctx context.Context, itemID int64, recs []catalog.Recommendation, status ItemStatus, noCoverage bool) error
}

// SnapshotRepository is the persistence contract for optimization snapshots.
// One snapshot per list; Replace swaps it atomically.
type SnapshotRepository interface {
	Get(ctx context.Context, listID int64) (*Snapshot, error)
	Replace(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, listID int64) error

	// StaleListIDs returns lists whose snapshot is older than cutoff,
	// for the scheduled refresher.
	StaleListIDs(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// HistoryRepository is the persistence contract for price history
type HistoryRepository interface {
	Record(ctx context.Context, point catalog.PricePoint) error
	History(ctx context.Context, productName string, since time.Time) ([]catalog.PricePoint, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

// CartRepository implements cart.Repository over database/sql
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// CreateList creates a shopping list and its initial items in one
// transaction. Duplicate list names per owner are rejected.
func (r *CartRepository) CreateList(ctx context.Context, ownerID, name string, items []cart.NewItem) (*cart.List, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "shopping_lists", time.Since(start)) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM shopping_lists WHERE owner_id = ? AND name = ?`,
		ownerID, name).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, cart.ErrDuplicateName
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_lists (owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		ownerID, name, now, now)
	if err != nil {
		return nil, err
	}
	listID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := upsertItem(ctx, tx, listID, it, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetList(ctx, listID)
}

// upsertItem inserts an item or, when the list already has that product,
// adds to its quantity
func upsertItem(ctx context.Context, tx *sql.Tx, listID int64, item cart.NewItem, now time.Time) error {
	var existingID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM list_items WHERE list_id = ? AND LOWER(product_name) = ?`,
		listID, strings.ToLower(item.ProductName)).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO list_items (list_id, product_name, quantity, status, no_coverage, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 0, ?, ?)`,
			listID, item.ProductName, item.Quantity, cart.StatusPending, now, now)
		return err
	case err != nil:
		return err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE list_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
			item.Quantity, now, existingID)
		return err
	}
}

// GetList returns a list with its items in insertion order, each carrying
// its stored recommendations
func (r *CartRepository) GetList(ctx context.Context, id int64) (*cart.List, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "shopping_lists", time.Since(start)) }()

	var l cart.List
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM shopping_lists WHERE id = ?`, id).
		Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, list_id, product_name, quantity, status, no_coverage, created_at, updated_at
		 FROM list_items WHERE list_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.LineItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.ProductName, &it.Quantity, &it.Status,
			&it.NoCoverage, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		l.Items = append(l.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range l.Items {
		recs, err := r.recommendationsFor(ctx, l.Items[i].ID)
		if err != nil {
			return nil, err
		}
		l.Items[i].Recommendations = recs
	}
	return &l, nil
}

func (r *CartRepository) recommendationsFor(ctx context.Context, itemID int64) ([]catalog.Recommendation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rank, source, product_name, price_local, price_reference, currency, rate, url
		 FROM item_recommendations WHERE item_id = ? ORDER BY rank`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Recommendation
	for rows.Next() {
		var rec catalog.Recommendation
		if err := rows.Scan(&rec.Rank, &rec.Source, &rec.Name, &rec.Prices.Local,
			&rec.Prices.Reference, &rec.Currency, &rec.Rate, &rec.URL); err != nil {
			return nil, err
		}
		rec.Price = rec.Prices.Local
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListsByOwner returns the per-list summaries for an owner
func (r *CartRepository) ListsByOwner(ctx context.Context, ownerID string) ([]cart.Summary, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "shopping_lists", time.Since(start)) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.name, l.created_at, l.updated_at,
		        COUNT(i.id),
		        COALESCE(SUM(CASE WHEN i.status = ? THEN 1 ELSE 0 END), 0)
		 FROM shopping_lists l
		 LEFT JOIN list_items i ON i.list_id = l.id
		 WHERE l.owner_id = ?
		 GROUP BY l.id, l.name, l.created_at, l.updated_at
		 ORDER BY l.id`, cart.StatusPurchased, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cart.Summary
	for rows.Next() {
		var s cart.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt,
			&s.ItemCount, &s.PurchasedCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteList removes a list; items, recommendations and the snapshot
// cascade away with it
func (r *CartRepository) DeleteList(ctx context.Context, id int64, ownerID string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "shopping_lists", time.Since(start)) }()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shopping_lists WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// AddItem upserts one item into a list and bumps the list's updated_at
func (r *CartRepository) AddItem(ctx context.Context, listID int64, item cart.NewItem) (*cart.LineItem, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "list_items", time.Since(start)) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM shopping_lists WHERE id = ?`, listID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, cart.ErrNotFound
	}

	now := time.Now().UTC()
	if err := upsertItem(ctx, tx, listID, item, now); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET updated_at = ? WHERE id = ?`, now, listID); err != nil {
		return nil, err
	}

	var it cart.LineItem
	err = tx.QueryRowContext(ctx,
		`SELECT id, list_id, product_name, quantity, status, no_coverage, created_at, updated_at
		 FROM list_items WHERE list_id = ? AND LOWER(product_name) = ?`,
		listID, strings.ToLower(item.ProductName)).
		Scan(&it.ID, &it.ListID, &it.ProductName, &it.Quantity, &it.Status,
			&it.NoCoverage, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &it, nil
}

// GetItem returns one item with its recommendations
func (r *CartRepository) GetItem(ctx context.Context, itemID int64) (*cart.LineItem, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "list_items", time.Since(start)) }()

	var it cart.LineItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, list_id, product_name, quantity, status, no_coverage, created_at, updated_at
		 FROM list_items WHERE id = ?`, itemID).
		Scan(&it.ID, &it.ListID, &it.ProductName, &it.Quantity, &it.Status,
			&it.NoCoverage, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	recs, err := r.recommendationsFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	it.Recommendations = recs
	return &it, nil
}

// UpdateItemQuantity changes an item's quantity
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.touchItem(ctx, itemID,
		`UPDATE list_items SET quantity = ?, updated_at = ? WHERE id = ?`, quantity)
}

// SetItemStatus changes an item's lifecycle status
func (r *CartRepository) SetItemStatus(ctx context.Context, itemID int64, status cart.ItemStatus) error {
	return r.touchItem(ctx, itemID,
		`UPDATE list_items SET status = ?, updated_at = ? WHERE id = ?`, string(status))
}

func (r *CartRepository) touchItem(ctx context.Context, itemID int64, query string, value interface{}) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "list_items", time.Since(start)) }()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, value, now, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cart.ErrNotFound
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE shopping_lists SET updated_at = ?
		 WHERE id = (SELECT list_id FROM list_items WHERE id = ?)`, now, itemID)
	return err
}

// DeleteItem removes one item and its recommendations
func (r *CartRepository) DeleteItem(ctx context.Context, itemID int64) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "list_items", time.Since(start)) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM list_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// StoreRecommendations replaces an item's recommendations and updates its
// status and coverage flag in one transaction
func (r *CartRepository) StoreRecommendations(ctx context.Context, itemID int64, recs []catalog.Recommendation, status cart.ItemStatus, noCoverage bool) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "item_recommendations", time.Since(start)) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE list_items SET status = ?, no_coverage = ?, updated_at = ? WHERE id = ?`,
		string(status), noCoverage, now, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cart.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_recommendations WHERE item_id = ?`, itemID); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_recommendations
			 (item_id, rank, source, product_name, price_local, price_reference, currency, rate, url, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			itemID, rec.Rank, rec.Source, rec.Name, rec.Prices.Local, rec.Prices.Reference,
			rec.Currency, rec.Rate, rec.URL, now); err != nil {
			return fmt.Errorf("insert recommendation rank %d: %w", rec.Rank, err)
		}
	}

	return tx.Commit()
}

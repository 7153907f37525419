package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

// SnapshotRepository implements cart.SnapshotRepository. The snapshot body
// is stored as one JSON payload per list; item_count and optimized_at are
// kept as columns for the staleness query. Replace is a single upsert, so
// readers never observe a half-written snapshot.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get returns the stored snapshot for a list
func (r *SnapshotRepository) Get(ctx context.Context, listID int64) (*cart.Snapshot, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "snapshots", time.Since(start)) }()

	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE list_id = ?`, listID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, cart.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var snap cart.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot for list %d: %w", listID, err)
	}
	return &snap, nil
}

// Replace atomically swaps the stored snapshot for a list
func (r *SnapshotRepository) Replace(ctx context.Context, snap *cart.Snapshot) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "snapshots", time.Since(start)) }()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot for list %d: %w", snap.ListID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (list_id, payload, item_count, optimized_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(list_id) DO UPDATE SET
		   payload = excluded.payload,
		   item_count = excluded.item_count,
		   optimized_at = excluded.optimized_at`,
		snap.ListID, string(payload), snap.ItemCount, snap.OptimizedAt)
	return err
}

// Delete removes a list's snapshot
func (r *SnapshotRepository) Delete(ctx context.Context, listID int64) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "snapshots", time.Since(start)) }()

	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE list_id = ?`, listID)
	return err
}

// StaleListIDs returns lists whose snapshot predates cutoff
func (r *SnapshotRepository) StaleListIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "snapshots", time.Since(start)) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT list_id FROM snapshots WHERE optimized_at < ? ORDER BY list_id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

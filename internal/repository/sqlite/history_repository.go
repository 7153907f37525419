package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
)

// HistoryRepository implements cart.HistoryRepository
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new price history repository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record appends one price observation
func (r *HistoryRepository) Record(ctx context.Context, point catalog.PricePoint) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "price_history", time.Since(start)) }()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_history (product_name, source, price_local, recorded_at)
		 VALUES (?, ?, ?, ?)`,
		point.ProductName, point.Source, point.PriceLocal, point.RecordedAt)
	return err
}

// History returns the observations for a product since the given time,
// oldest first
func (r *HistoryRepository) History(ctx context.Context, productName string, since time.Time) ([]catalog.PricePoint, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "price_history", time.Since(start)) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_name, source, price_local, recorded_at
		 FROM price_history
		 WHERE LOWER(product_name) = LOWER(?) AND recorded_at >= ?
		 ORDER BY recorded_at`, productName, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.PricePoint
	for rows.Next() {
		var p catalog.PricePoint
		if err := rows.Scan(&p.ProductName, &p.Source, &p.PriceLocal, &p.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

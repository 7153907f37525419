package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

// Optimizer is the subset of the optimizer service the refresher drives
type Optimizer interface {
	Refresh(ctx context.Context, listID int64) (*cart.Snapshot, error)
}

// SnapshotRefresher re-optimizes lists whose snapshot has gone stale on a
// cron schedule
type SnapshotRefresher struct {
	optimizer      Optimizer
	snapshots      cart.SnapshotRepository
	schedule       string
	staleThreshold time.Duration
	cron           *cron.Cron
	logger         *logger.Logger
}

// NewSnapshotRefresher creates a new snapshot refresher worker
func NewSnapshotRefresher(
	opt Optimizer,
	snapshots cart.SnapshotRepository,
	schedule string,
	staleThreshold time.Duration,
	log *logger.Logger,
) *SnapshotRefresher {
	return &SnapshotRefresher{
		optimizer:      opt,
		snapshots:      snapshots,
		schedule:       schedule,
		staleThreshold: staleThreshold,
		logger:         log,
	}
}

// Start schedules the periodic refresh sweep. It returns once the schedule
// is registered; sweeps run on the cron's own goroutine until Stop.
func (w *SnapshotRefresher) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, func() { w.Sweep(ctx) })
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.WithFields(map[string]interface{}{
		"schedule":        w.schedule,
		"stale_threshold": w.staleThreshold.String(),
	}).Info("Snapshot refresher started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (w *SnapshotRefresher) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("Snapshot refresher stopped")
}

// Sweep refreshes every list whose snapshot is older than the stale
// threshold. Per-list failures are logged and never abort the sweep.
func (w *SnapshotRefresher) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.staleThreshold)
	ids, err := w.snapshots.StaleListIDs(ctx, cutoff)
	if err != nil {
		w.logger.WithError(err).Error("Failed to find stale snapshots")
		return
	}
	if len(ids) == 0 {
		w.logger.Debug("No stale snapshots to refresh")
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"count": len(ids),
	}).Info("Refreshing stale snapshots")

	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.optimizer.Refresh(ctx, id); err != nil {
			failed++
			w.logger.WithFields(map[string]interface{}{
				"list_id": id,
			}).WithError(err).Warn("Failed to refresh snapshot")
		}
	}

	w.logger.WithFields(map[string]interface{}{
		"refreshed": len(ids) - failed,
		"failed":    failed,
	}).Info("Snapshot refresh sweep completed")
}

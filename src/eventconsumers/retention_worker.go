package eventconsumers

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

// RetentionWorker hard deletes price history older than the retention period.
type RetentionWorker struct {
	wg       *sync.WaitGroup
	db       models.IDatabaseService
	period   time.Duration
	interval time.Duration
}

func NewRetentionWorker(wg *sync.WaitGroup, db models.IDatabaseService, period, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		wg:       wg,
		db:       db,
		period:   period,
		interval: interval,
	}
}

// Sweep deletes records with a timestamp before now minus the retention
// period and returns how many were removed.
func (w *RetentionWorker) Sweep(now time.Time) (int64, error) {
	// price_history.timestamp has no zone, so the cutoff is compared in UTC.
	cutoff := now.UTC().Add(-w.period)

	deleted, err := w.db.DeletePriceHistoryBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("RetentionWorker.Sweep: %w", err)
	}

	log.Infof("RetentionWorker: deleted %d price history records before %s", deleted, cutoff.Format(time.RFC3339))
	return deleted, nil
}

func (w *RetentionWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Sweep(time.Now().UTC()); err != nil {
				log.Error(err)
			}
		case <-ctx.Done():
			log.Info("RetentionWorker stopped")
			return
		}
	}
}

// Start sweeps once immediately, then every interval until ctx is done.
func (w *RetentionWorker) Start(ctx context.Context) {
	w.wg.Add(1)

	log.Infof("Starting RetentionWorker: keep %s, sweep every %s", w.period, w.interval)

	if _, err := w.Sweep(time.Now().UTC()); err != nil {
		log.Error(err)
	}

	go w.run(ctx)
}

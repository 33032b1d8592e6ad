// Package cleanup sweeps stale ledger documents on a fixed interval.
package cleanup

import (
	"context"
	"log"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/repository"
)

// Sweeper deletes documents older than a cutoff, batch by batch.
type Sweeper interface {
	DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time, batch int) (int64, error)
}

type Job struct {
	sweeper   Sweeper
	retention time.Duration
	interval  time.Duration
	batchSize int
}

func NewJob(sweeper Sweeper, retention, interval time.Duration, batchSize int) *Job {
	return &Job{
		sweeper:   sweeper,
		retention: retention,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Collections holding transient documents. Confirmed orders and payment
// requests are durable records and are never swept.
var sweptCollections = []string{
	repository.CollPendingOrders,
	repository.CollTransactionLogs,
	repository.CollPaymentErrors,
	repository.CollVerificationErrors,
}

func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.sweepOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (j *Job) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)
	for _, collection := range sweptCollections {
		total := int64(0)
		for {
			deleted, err := j.sweeper.DeleteOlderThan(ctx, collection, cutoff, j.batchSize)
			if err != nil {
				log.Printf("cleanup of %s failed: %v", collection, err)
				break
			}
			total += deleted
			if deleted < int64(j.batchSize) {
				break
			}
		}
		if total > 0 {
			log.Printf("cleanup removed %d stale documents from %s", total, collection)
		}
	}
}

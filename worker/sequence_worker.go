package worker

import (
	"context"
	"log"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

// SequenceWorker drives the send pipeline: it reclaims stuck sends, collects
// what is due and dispatches each send through the executor.
type SequenceWorker struct {
	selector     *sequence.Selector
	executor     *sequence.Executor
	interval     time.Duration
	batchSize    int
	reclaimAfter time.Duration
	logger       *log.Logger
}

func NewSequenceWorker(selector *sequence.Selector, executor *sequence.Executor, interval time.Duration, batchSize int, reclaimAfter time.Duration, logger *log.Logger) *SequenceWorker {
	return &SequenceWorker{
		selector:     selector,
		executor:     executor,
		interval:     interval,
		batchSize:    batchSize,
		reclaimAfter: reclaimAfter,
		logger:       logger,
	}
}

func (sw *SequenceWorker) Start(ctx context.Context) {
	sw.logger.Println("Starting sequence worker...")
	ticker := time.NewTicker(sw.interval)

	for {
		select {
		case <-ticker.C:
			sw.runOnce()
		case <-ctx.Done():
			sw.logger.Println("Stopping sequence worker...")
			ticker.Stop()
			return
		}
	}
}

func (sw *SequenceWorker) runOnce() {
	now := time.Now().UTC()

	if _, err := sw.selector.Reclaim(sw.reclaimAfter, now); err != nil {
		utils.LogError(err, "failed to reclaim stuck sends", nil)
	}

	due, err := sw.selector.CollectDue(now, sw.batchSize)
	if err != nil {
		utils.LogError(err, "failed to collect due sends", nil)
		return
	}
	if len(due) == 0 {
		return
	}

	sw.logger.Printf("dispatching %d due sends", len(due))
	sent := 0
	for i := range due {
		result, err := sw.executor.Dispatch(due[i].ID)
		if err != nil {
			utils.LogError(err, "dispatch failed", map[string]interface{}{
				"send_id":     due[i].ID,
				"campaign_id": due[i].CampaignID,
				"contact_id":  due[i].ContactID,
			})
			continue
		}
		if !result.Skipped {
			sent++
		}
	}
	sw.logger.Printf("dispatch round done: %d sent, %d skipped or failed", sent, len(due)-sent)
}

package jobs

import (
	"context"

	"warehouse-lending-backend/internal/logger"
)

// RelayTransactionEvents publishes committed events that have not been published yet and
// stamps them. A failed batch stays pending and is retried on the next run.
func (jr *JobRunner) RelayTransactionEvents() {
	jr.runWithRecovery("RelayTransactionEvents", jr.relayTransactionEvents)
}

func (jr *JobRunner) relayTransactionEvents(ctx context.Context) error {
	if jr.services.Publisher == nil {
		logger.Debug("Transaction event relay disabled, skipping")
		return nil
	}

	limit := int32(jr.config.Kafka.BatchSize)
	total := 0
	for {
		pending, err := jr.services.Recorder.PendingPublication(ctx, limit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			break
		}

		if err := jr.services.Publisher.PublishTransactionEvents(ctx, pending); err != nil {
			return err
		}

		ids := make([]int32, len(pending))
		for i, ev := range pending {
			ids[i] = ev.ID
		}
		if err := jr.services.Recorder.MarkPublished(ctx, ids); err != nil {
			return err
		}
		total += len(pending)

		if limit <= 0 || int32(len(pending)) < limit {
			break
		}
	}

	logger.Info("Relayed transaction events", "count", total)
	return nil
}

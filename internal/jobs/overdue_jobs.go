package jobs

import (
	"context"

	"warehouse-lending-backend/internal/logger"
)

// MarkOverdueRequests stamps active requests past their required-by date. Status is left alone.
func (jr *JobRunner) MarkOverdueRequests() {
	jr.runWithRecovery("MarkOverdueRequests", jr.markOverdueRequests)
}

func (jr *JobRunner) markOverdueRequests(ctx context.Context) error {
	ids, err := jr.services.Recorder.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	logger.Info("Marked requests as overdue", "count", len(ids))
	for _, id := range ids {
		logger.Debug("Marked request as overdue", "request_id", id)
	}
	return nil
}

// SendOverdueReminders mails the ops mailbox a digest of every overdue request.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", jr.sendOverdueReminders)
}

func (jr *JobRunner) sendOverdueReminders(ctx context.Context) error {
	if jr.services.Email == nil || jr.config.Notification.OpsEmail == "" {
		logger.Info("Overdue reminders disabled, skipping")
		return nil
	}

	overdue, err := jr.services.Reporting.ListOverdue(ctx)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		logger.Info("No overdue requests")
		return nil
	}

	asOf := jr.services.Clock.Now()
	return jr.services.Email.SendOverdueDigest(ctx, jr.config.Notification.OpsEmail, overdue, asOf)
}

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/config"
	"warehouse-lending-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		MarkOverdueRequests:    "0 0 2 * * *",
		SendOverdueReminders:   "0 0 8 * * *",
		RelayTransactionEvents: "*/30 * * * * *",
	}}

	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.cron.Entries(), 3)

	s.Start()
	s.Stop()
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		MarkOverdueRequests:    "every night",
		SendOverdueReminders:   "0 0 8 * * *",
		RelayTransactionEvents: "*/30 * * * * *",
	}}

	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	assert.ErrorContains(t, err, "MarkOverdueRequests")
}

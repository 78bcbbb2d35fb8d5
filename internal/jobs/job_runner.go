package jobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"warehouse-lending-backend/internal/config"
	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/service"
)

const jobTimeout = 5 * time.Minute

// EventPublisher delivers committed transaction events downstream.
type EventPublisher interface {
	PublishTransactionEvents(ctx context.Context, events []domain.TransactionEvent) error
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs.
// A nil Email or Publisher turns the matching job into a no-op.
type Services struct {
	Recorder  service.TransactionRecorder
	Reporting service.ReportingService
	Email     service.EmailService
	Publisher EventPublisher
	Clock     service.Clock
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery, a deadline and a trace span.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	ctx, span := otel.Tracer("warehouse-lending/jobs").Start(ctx, "job."+jobName)
	span.SetAttributes(attribute.String("job.name", jobName))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Job panicked", "job", jobName, "panic", r)
			span.SetStatus(codes.Error, "panic")
		}
	}()

	logger.InfoContext(ctx, "Starting job", "job", jobName)
	start := time.Now()
	if err := jobFunc(ctx); err != nil {
		logger.ErrorContext(ctx, "Job failed", "job", jobName, "error", err, "duration_ms", time.Since(start).Milliseconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	logger.InfoContext(ctx, "Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueRequests()
	jr.SendOverdueReminders()
}

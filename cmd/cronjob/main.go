package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"warehouse-lending-backend/internal/config"
	"warehouse-lending-backend/internal/jobs"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/messaging"
	"warehouse-lending-backend/internal/repository/postgres"
	"warehouse-lending-backend/internal/scheduler"
	"warehouse-lending-backend/internal/service"
	"warehouse-lending-backend/internal/tracing"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-requests', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Type != "postgres" {
		log.Fatalf("Cronjob runner requires a postgres database, got %q", cfg.Database.Type)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Warehouse Lending Cronjob Runner...", "log_level", cfg.Log.Level)

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	clock := service.SystemClock()
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)
	recorder := service.NewTransactionRecorder(store.TransactionRepository, store.RequestRepository, service.NewULIDGenerator(clock), clock)
	reportingService := service.NewReportingService(store.InventoryRepository, store.RequestRepository, resolver, clock)

	jobServices := &jobs.Services{
		Recorder:  recorder,
		Reporting: reportingService,
		Clock:     clock,
	}

	if cfg.NotificationsEnabled() {
		jobServices.Email = service.NewEmailService(cfg.Notification.SendGridAPIKey, cfg.Notification.FromEmail, cfg.Notification.FromName)
	} else {
		logger.Warn("SendGrid is not configured, overdue reminders are disabled")
	}

	if cfg.RelayEnabled() {
		publisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close kafka publisher", "error", err)
			}
		}()
		jobServices.Publisher = publisher
	} else {
		logger.Warn("Kafka brokers are not configured, transaction event relay is disabled")
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to register jobs", "error", err)
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "mark-overdue-requests":
		jobRunner.MarkOverdueRequests()
	case "send-overdue-reminders":
		jobRunner.SendOverdueReminders()
	case "relay-transaction-events":
		jobRunner.RelayTransactionEvents()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-requests\n")
		fmt.Printf("  - send-overdue-reminders\n")
		fmt.Printf("  - relay-transaction-events\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}

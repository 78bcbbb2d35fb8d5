package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "warehouse-lending-backend/internal/api/grpc"
	"warehouse-lending-backend/internal/api/grpc/interceptor"
	httpapi "warehouse-lending-backend/internal/api/http"
	"warehouse-lending-backend/internal/config"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
	"warehouse-lending-backend/internal/repository/memory"
	"warehouse-lending-backend/internal/repository/postgres"
	"warehouse-lending-backend/internal/security"
	"warehouse-lending-backend/internal/service"
	"warehouse-lending-backend/internal/tracing"
)

// backend bundles the transaction manager and repositories of one persistence store.
type backend struct {
	txm          repository.TxManager
	catalog      repository.CatalogRepository
	inventory    repository.InventoryRepository
	requests     repository.RequestRepository
	transactions repository.TransactionRepository
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Warehouse Lending Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Lending configuration",
		"default_handler_id", cfg.Lending.DefaultHandlerEmployeeID,
		"default_location_id", cfg.Lending.DefaultLocationID,
		"operation_timeout", cfg.Lending.OperationTimeout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	// Initialize Database
	var (
		repos  backend
		pinger httpapi.Pinger
	)
	switch cfg.Database.Type {
	case "memory":
		logger.Warn("Using in-memory store, state is lost on restart")
		s := memory.NewStore()
		repos = backend{s, s.CatalogRepository, s.InventoryRepository, s.RequestRepository, s.TransactionRepository}
	default:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		s := postgres.NewStore(db)
		repos = backend{s.TxManager, s.CatalogRepository, s.InventoryRepository, s.RequestRepository, s.TransactionRepository}
		pinger = db
	}

	// Initialize Services
	clock := service.SystemClock()
	ledger := service.NewInventoryLedger(repos.inventory, repos.txm, service.LockRetryPolicy{
		MaxAttempts:     cfg.Lending.LockRetryAttempts,
		InitialInterval: cfg.Lending.LockRetryInitial(),
		MaxInterval:     cfg.Lending.LockRetryMax(),
	})
	resolver := service.NewItemLineResolver(repos.catalog, repos.requests)
	recorder := service.NewTransactionRecorder(repos.transactions, repos.requests, service.NewULIDGenerator(clock), clock)
	requestService := service.NewRequestService(repos.txm, repos.requests, resolver, ledger, recorder, clock, service.LendingPolicy{
		DefaultHandlerID:  cfg.Lending.DefaultHandlerEmployeeID,
		DefaultLocationID: cfg.Lending.DefaultLocationID,
		OperationTimeout:  cfg.Lending.OperationTimeout(),
	})
	reportingService := service.NewReportingService(repos.inventory, repos.requests, resolver, clock)

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Initialize gRPC Server
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptor.RequestLogging(),
			authInterceptor.Unary(),
		),
	)

	api.RegisterBorrowingServiceServer(grpcServer, api.NewBorrowingHandler(requestService, reportingService, ledger, clock))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Enable reflection for debugging. BorrowingService has no proto descriptors to serve.
	api.RegisterReflection(grpcServer, healthpb.Health_ServiceDesc.ServiceName)

	// Initialize HTTP Server for reporting
	router := mux.NewRouter()
	httpapi.NewReportingHandler(reportingService, tokenManager, pinger).Register(router)
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "address", cfg.GetServerAddress(), "error", err)
		log.Fatalf("failed to listen: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", cfg.GetHTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		log.Fatalf("server error: %v", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetimeDuration())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		logger.Info("Applying database migrations")
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-engine/internal/api"
	"credit-engine/internal/batch"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/cache"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// @title Credit Engine API
// @version 1.0
// @description Customer registration, loan eligibility scoring and loan booking.

// @host localhost:8080
// @BasePath /
func main() {
	cfg, logger := initializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
			logger.Error("Failed to apply database migrations", "error", err)
			os.Exit(1)
		}
	}

	dbPool := initializeDatabase(ctx, cfg, logger)
	defer closeDatabase(dbPool, logger)

	publisher, brokerConn := initializePublisher(cfg, logger)
	if brokerConn != nil {
		defer brokerConn.Close()
	}

	rdb := initializeRedis(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	app := initializeServices(dbPool, publisher, logger)
	pipeline := batch.NewPipeline(app.customerRepo, app.loanRepo, app.loanService, logger)
	importJob := batch.NewImportJob(pipeline, publisher, cfg.Ingestion.CustomerFile, cfg.Ingestion.LoanFile, cfg.Ingestion.Timeout, logger)

	cronScheduler := startBatchJobs(cfg, logger, importJob)
	if cfg.Ingestion.RunOnStartup {
		if err := importJob.Trigger(ctx); err != nil {
			logger.Warn("Startup import not started", "error", err)
		}
	}

	deps := api.Dependencies{
		LoanService:     app.loanService,
		CustomerService: app.customerService,
		Importer:        importJob,
	}
	if rdb != nil {
		deps.Redis = rdb
	}
	router := api.SetupRouter(ctx, deps, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	shutdownErr := handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)

	logger.Info("Waiting for running import to finish...")
	importJob.Wait()
	if shutdownErr != nil {
		closeDatabase(dbPool, logger)
		os.Exit(1)
	}
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	logger.Info("Application starting...", "port", cfg.Server.Port)

	return cfg, logger
}

func initializeDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializePublisher falls back to dropping events when the broker is disabled or unreachable.
func initializePublisher(cfg *config.Config, logger *slog.Logger) (event.Publisher, *amqp.Connection) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will not be published")
		return event.NoopPublisher{}, nil
	}

	rc := cfg.RabbitMQ
	conn, err := event.Dial(event.BrokerURL(rc.Username, rc.Password, rc.Host, rc.Port))
	if err != nil {
		logger.Warn("RabbitMQ unavailable, continuing without events", "error", err)
		return event.NoopPublisher{}, nil
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, rc.ExchangeName, logger)
	if err != nil {
		logger.Warn("Failed to set up RabbitMQ publisher, continuing without events", "error", err)
		conn.Close()
		return event.NoopPublisher{}, nil
	}
	return publisher, conn
}

// initializeRedis returns nil when idempotency replay is disabled or the store cannot be reached.
func initializeRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb, err := cache.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, idempotency replay disabled", "error", err)
		return nil
	}
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	return rdb
}

type services struct {
	customerRepo    *postgres.CustomerRepository
	loanRepo        *postgres.LoanRepository
	customerService customer.CustomerService
	loanService     loan.LoanService
}

func initializeServices(dbPool postgres.DBPool, publisher event.Publisher, logger *slog.Logger) services {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	return services{
		customerRepo:    customerRepo,
		loanRepo:        loanRepo,
		customerService: customer.NewCustomerService(customerRepo, publisher, logger),
		loanService:     loan.NewLoanService(loanRepo, customerRepo, publisher, logger),
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

// handleShutdown blocks until a signal or a server failure and then stops the scheduler and the server.
// It returns an error only when the server died before any shutdown was requested.
func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) error {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			stopScheduler(cronScheduler, logger)
			return err
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.")
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)
	stopScheduler(cronScheduler, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
	return nil
}

func stopScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

type importRunner interface {
	Run(ctx context.Context) (*batch.ImportSummary, error)
}

// startBatchJobs schedules the spreadsheet import. An empty schedule leaves the scheduler idle.
func startBatchJobs(cfg *config.Config, logger *slog.Logger, job importRunner) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Ingestion.Schedule
	if scheduleSpec == "" {
		logger.Info("Import schedule not configured, only manual imports are available")
		c.Start()
		return c
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "ImportAll")
		jobLogger.Info("Cron triggered: Running spreadsheet import.")

		summary, runErr := job.Run(context.Background())
		switch {
		case errors.Is(runErr, batch.ErrImportInProgress):
			jobLogger.Warn("Import skipped, another run is in progress")
		case runErr != nil:
			jobLogger.Error("Import finished with error", slog.Any("error", runErr))
		default:
			jobLogger.Info("Import finished successfully.", "customers", summary.Customers, "loans", summary.Loans, "debts", summary.Debts)
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule import job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled import job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}

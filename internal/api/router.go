package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"credit-engine/internal/api/handler"
	mw "credit-engine/internal/api/middleware"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	_ "credit-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// ImportTrigger starts a background spreadsheet import.
type ImportTrigger interface {
	Trigger(ctx context.Context) error
}

// Dependencies groups what the router needs. Redis is optional; without it
// POST endpoints are served without idempotency replay.
type Dependencies struct {
	LoanService     loan.LoanService
	CustomerService customer.CustomerService
	Importer        ImportTrigger
	Redis           redis.Cmdable
}

func SetupRouter(ctx context.Context, deps Dependencies, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)

	idem := setupIdempotency(deps.Redis, cfg, logger)
	setupCustomerRoutes(router, deps.CustomerService, idem, logger)
	setupLoanRoutes(router, deps.LoanService, idem, logger)
	setupAdminRoutes(router, deps.Importer, logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(timeout))
	router.Use(mw.NewRateLimiterMiddleware(ctx, cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

// setupIdempotency returns a pass-through middleware when no store is configured.
func setupIdempotency(rdb redis.Cmdable, cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if rdb == nil {
		logger.Info("Idempotency store not configured, Idempotency-Key headers are ignored")
		return func(next http.Handler) http.Handler { return next }
	}
	return mw.NewIdempotency(rdb, cfg.Redis.TTL, logger).Middleware
}

func setupCustomerRoutes(r chi.Router, svc customer.CustomerService, idem func(http.Handler) http.Handler, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)
	r.With(idem).Post("/register", h.Register)
}

func setupLoanRoutes(r chi.Router, svc loan.LoanService, idem func(http.Handler) http.Handler, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	r.Post("/check-eligibility", h.CheckEligibility)
	r.With(idem).Post("/create-loan", h.CreateLoan)
	r.Get("/view-loan/{loanID}", h.ViewLoan)
	r.Get("/view-loans/{customerID}", h.ViewLoans)
}

func setupAdminRoutes(r chi.Router, importer ImportTrigger, logger *slog.Logger) {
	if importer == nil {
		logger.Info("Import job not configured, /admin/import is disabled")
		return
	}
	h := handler.NewAdminHandler(importer, logger)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/import", h.TriggerImport)
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrimandi/agrimandi-backend/internal/cron"
	"github.com/agrimandi/agrimandi-backend/internal/fulfillment"
	"github.com/agrimandi/agrimandi-backend/internal/identifier"
	"github.com/agrimandi/agrimandi-backend/internal/ledger"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/repayment"
	"github.com/agrimandi/agrimandi-backend/internal/sellers"
	"github.com/agrimandi/agrimandi-backend/internal/settlement"
	"github.com/agrimandi/agrimandi-backend/internal/tiers"
	"github.com/agrimandi/agrimandi-backend/internal/vendors"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db"
	"github.com/agrimandi/agrimandi-backend/pkg/instance"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/migrate"
	"github.com/agrimandi/agrimandi-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "credit-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "credit-worker"

	logg = logger.New(logger.Options{
		ServiceName: "credit-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	service, err := buildWorker(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	go runOpsServer(ctx, cfg, logg, dbClient)

	logg.Info(ctx, "starting credit worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "credit worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "credit worker shutting down gracefully")
}

func buildWorker(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	gormDB := dbClient.DB()

	allocator, err := identifier.NewAllocator(identifier.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB), allocator)
	if err != nil {
		return nil, err
	}
	sender, err := notifications.NewLogSender(logg)
	if err != nil {
		return nil, err
	}
	notifier, err := notifications.NewService(notifications.NewRepository(gormDB), sender, logg)
	if err != nil {
		return nil, err
	}
	tierSvc, err := tiers.NewService(gormDB, tiers.NewRepository(gormDB), tiers.CommissionFromConfig(cfg.Commission))
	if err != nil {
		return nil, err
	}

	vendorRepo := vendors.NewRepository(gormDB)
	purchaseRepo := fulfillment.NewRepository(gormDB)

	fulfillmentSvc, err := fulfillment.NewService(gormDB, purchaseRepo, vendorRepo, ledgerSvc, notifier, allocator, logg)
	if err != nil {
		return nil, err
	}
	gateway, err := repayment.NewRetryingGateway(repayment.DisabledGateway{}, cfg.Gateway)
	if err != nil {
		return nil, err
	}
	repaymentSvc, err := repayment.NewService(gormDB, repayment.NewRepository(gormDB), vendorRepo, purchaseRepo, tierSvc, ledgerSvc, notifier, allocator, gateway, cfg.Credit, logg)
	if err != nil {
		return nil, err
	}
	settlementSvc, err := settlement.NewService(gormDB, settlement.NewRepository(gormDB), sellers.NewRepository(gormDB), tierSvc, ledgerSvc, notifier, allocator, logg)
	if err != nil {
		return nil, err
	}

	deliveryJob, err := cron.NewDeliverySweepJob(cron.DeliverySweepJobParams{
		Logger:      logg,
		Fulfillment: fulfillmentSvc,
		BatchSize:   cfg.Worker.DeliveryBatchSize,
	})
	if err != nil {
		return nil, err
	}
	settlementJob, err := cron.NewSettlementSweepJob(cron.SettlementSweepJobParams{
		Logger:     logg,
		Settlement: settlementSvc,
		BatchSize:  cfg.Worker.DeliveryBatchSize,
	})
	if err != nil {
		return nil, err
	}
	timeoutJob, err := cron.NewRepaymentTimeoutJob(cron.RepaymentTimeoutJobParams{
		Logger:     logg,
		Repayments: repaymentSvc,
		PendingTTL: cfg.Gateway.PendingTTL,
	})
	if err != nil {
		return nil, err
	}
	dispatchJob, err := cron.NewNotificationDispatchJob(cron.NotificationDispatchJobParams{
		Logger:    logg,
		Notifier:  notifier,
		BatchSize: cfg.Worker.NotificationBatchSize,
	})
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("credit-worker:"+cfg.App.Env), cfg.Worker.LockTTL)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(deliveryJob, settlementJob, timeoutJob, dispatchJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Worker.SweepInterval,
	})
}

func runOpsServer(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbClient.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "ops listener on :"+cfg.App.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "ops listener stopped unexpectedly", err)
	}
}

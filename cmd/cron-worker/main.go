package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/internal/cron"
	"github.com/angelmondragon/chatstore-backend/internal/inventory"
	"github.com/angelmondragon/chatstore-backend/internal/memberships"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/internal/ordernumber"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	product "github.com/angelmondragon/chatstore-backend/internal/products"
	"github.com/angelmondragon/chatstore-backend/internal/stores"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/migrate"
	"github.com/angelmondragon/chatstore-backend/pkg/redis"
	"github.com/angelmondragon/chatstore-backend/pkg/retry"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	notificationRepo := notifications.NewRepository(gormDB)
	inbox, err := notifications.NewService(notificationRepo)
	exitOnErr(logg, "failed to create notifications service", err)

	// reminders target store admins, so only the console channels are needed
	inApp, err := notifications.NewInAppChannel(notificationRepo)
	exitOnErr(logg, "failed to create in-app channel", err)
	realtime, err := notifications.NewRealtimeChannel(redisClient, cfg.Notifications.RealtimePrefix)
	exitOnErr(logg, "failed to create realtime channel", err)

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Logger:   logg,
		Metrics:  metrics.NewNotificationMetrics(prometheus.DefaultRegisterer),
		Channels: []notifications.Channel{inApp, realtime},
		Policy: retry.Policy{
			MaxAttempts: cfg.Notifications.MaxAttempts,
			BaseDelay:   cfg.Notifications.BaseDelay,
			MaxDelay:    cfg.Notifications.MaxDelay,
			Jitter:      cfg.Notifications.Jitter,
		},
		DeliveryTimeout: cfg.Notifications.DeliveryTimeout,
	})
	exitOnErr(logg, "failed to create notification dispatcher", err)

	audit, err := auditlog.NewService(auditlog.NewRepository(gormDB))
	exitOnErr(logg, "failed to create audit log", err)
	loc, err := cfg.Orders.Location()
	exitOnErr(logg, "invalid order number timezone", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Logger:     logg,
		Tx:         dbClient,
		Repo:       orders.NewRepository(gormDB),
		Stores:     stores.NewRepository(gormDB),
		Products:   product.NewRepository(gormDB),
		Authorizer: memberships.NewAuthorizer(memberships.NewRepository(gormDB)),
		Ledger:     inventory.NewLedger(),
		Numbers:    ordernumber.NewAllocator(loc),
		Audit:      audit,
		Notifier:   dispatcher,
	})
	exitOnErr(logg, "failed to create orders service", err)

	reminderJob, err := cron.NewPendingOrderReminderJob(cron.PendingOrderReminderJobParams{
		Logger: logg,
		Orders: orderService,
		Age:    cfg.Cron.PendingReminderAge,
		Window: cfg.Cron.Interval,
	})
	exitOnErr(logg, "failed to create pending order reminder job", err)

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:    logg,
		Inbox:     inbox,
		Retention: cfg.Cron.NotificationRetention,
	})
	exitOnErr(logg, "failed to create notification cleanup job", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	exitOnErr(logg, "failed to create cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reminderJob, cleanupJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	exitOnErr(logg, "failed to create cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    service.Interval().String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	orderService.Drain()

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}

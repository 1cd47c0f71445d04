package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/chatstore-backend/api/controllers"
	"github.com/angelmondragon/chatstore-backend/api/routes"
	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/internal/inventory"
	"github.com/angelmondragon/chatstore-backend/internal/memberships"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/internal/ordernumber"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/internal/paymentproof"
	product "github.com/angelmondragon/chatstore-backend/internal/products"
	"github.com/angelmondragon/chatstore-backend/internal/stores"
	"github.com/angelmondragon/chatstore-backend/pkg/bigquery"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/pubsub"
	"github.com/angelmondragon/chatstore-backend/pkg/redis"
	"github.com/angelmondragon/chatstore-backend/pkg/retry"
)

type app struct {
	logg        *logger.Logger
	orders      *orders.Service
	proofs      *paymentproof.Service
	inbox       notifications.Service
	broadcaster *notifications.Broadcaster
	redis       *redis.Client
	db          *db.Client
	pubsub      *pubsub.Client
	bigquery    *bigquery.Client
	registry    *prometheus.Registry
}

func buildApp(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (*app, error) {
	a := &app{logg: logg, db: dbClient, redis: redisClient, registry: registry}
	gormDB := dbClient.DB()

	notificationRepo := notifications.NewRepository(gormDB)
	inbox, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}
	a.inbox = inbox

	channels, err := a.buildChannels(ctx, cfg, notificationRepo)
	if err != nil {
		return nil, err
	}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Logger:   logg,
		Metrics:  metrics.NewNotificationMetrics(registry),
		Channels: channels,
		Policy: retry.Policy{
			MaxAttempts: cfg.Notifications.MaxAttempts,
			BaseDelay:   cfg.Notifications.BaseDelay,
			MaxDelay:    cfg.Notifications.MaxDelay,
			Jitter:      cfg.Notifications.Jitter,
		},
		BulkDelay:       cfg.Notifications.BulkDelay,
		DeliveryTimeout: cfg.Notifications.DeliveryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}

	audit, err := auditlog.NewService(auditlog.NewRepository(gormDB))
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	loc, err := cfg.Orders.Location()
	if err != nil {
		return nil, fmt.Errorf("order number timezone: %w", err)
	}

	storeRepo := stores.NewRepository(gormDB)
	authorizer := memberships.NewAuthorizer(memberships.NewRepository(gormDB))
	orderMetrics := metrics.NewOrderMetrics(registry)

	orderService, err := orders.NewService(orders.ServiceParams{
		Logger:     logg,
		Tx:         dbClient,
		Repo:       orders.NewRepository(gormDB),
		Stores:     storeRepo,
		Products:   product.NewRepository(gormDB),
		Authorizer: authorizer,
		Ledger:     inventory.NewLedger(),
		Numbers:    ordernumber.NewAllocator(loc),
		Audit:      audit,
		Notifier:   dispatcher,
		Metrics:    orderMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	a.orders = orderService

	analyzer, err := paymentproof.NewAnalyzer(paymentproof.AnalyzerParams{
		Logger:    logg,
		Extractor: paymentproof.NewRoutingExtractor(paymentproof.NewTesseractExtractor(cfg.PaymentProof.TesseractPath, cfg.PaymentProof.Language)),
		Timeout:   cfg.PaymentProof.ExtractTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("payment proof analyzer: %w", err)
	}
	proofs, err := paymentproof.NewService(paymentproof.ServiceParams{
		Logger:           logg,
		Orders:           orderService,
		Analyzer:         analyzer,
		Stores:           storeRepo,
		Notifier:         dispatcher,
		Metrics:          orderMetrics,
		AutoConfirm:      cfg.PaymentProof.AutoConfirm,
		MaxDocumentBytes: int64(cfg.PaymentProof.MaxDocumentMB) << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("payment proof service: %w", err)
	}
	a.proofs = proofs

	broadcaster, err := notifications.NewBroadcaster(logg, storeRepo, authorizer, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("broadcaster: %w", err)
	}
	a.broadcaster = broadcaster

	return a, nil
}

// buildChannels enables the delivery channels listed in config. GCP-backed
// channels are skipped with a warning when no project is configured.
func (a *app) buildChannels(ctx context.Context, cfg *config.Config, repo notifications.Repository) ([]notifications.Channel, error) {
	var channels []notifications.Channel
	notify := cfg.Notifications

	if notify.HasChannel(string(enums.NotificationChannelInApp)) {
		ch, err := notifications.NewInAppChannel(repo)
		if err != nil {
			return nil, fmt.Errorf("in-app channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if notify.HasChannel(string(enums.NotificationChannelRealtime)) {
		ch, err := notifications.NewRealtimeChannel(a.redis, notify.RealtimePrefix)
		if err != nil {
			return nil, fmt.Errorf("realtime channel: %w", err)
		}
		channels = append(channels, ch)
	}

	gcpReady := cfg.GCP.ProjectID != ""
	if notify.HasChannel(string(enums.NotificationChannelChatbot)) {
		if !gcpReady {
			a.logg.Warn(ctx, "chatbot channel disabled: gcp project not configured")
		} else {
			client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, a.logg)
			if err != nil {
				return nil, fmt.Errorf("pubsub client: %w", err)
			}
			a.pubsub = client
			ch, err := notifications.NewChatbotChannel(client.ChatbotPublisher())
			if err != nil {
				return nil, fmt.Errorf("chatbot channel: %w", err)
			}
			channels = append(channels, ch)
		}
	}
	if notify.HasChannel(string(enums.NotificationChannelAnalytics)) {
		if !gcpReady {
			a.logg.Warn(ctx, "analytics channel disabled: gcp project not configured")
		} else {
			client, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, a.logg)
			if err != nil {
				return nil, fmt.Errorf("bigquery client: %w", err)
			}
			a.bigquery = client
			ch, err := notifications.NewAnalyticsChannel(client.OrderEventsWriter())
			if err != nil {
				return nil, fmt.Errorf("analytics channel: %w", err)
			}
			channels = append(channels, ch)
		}
	}
	return channels, nil
}

func (a *app) dependencies() routes.Dependencies {
	readiness := map[string]controllers.Pinger{
		"postgres": a.db,
		"redis":    a.redis,
		"pubsub":   nil,
		"bigquery": nil,
	}
	if a.pubsub != nil {
		readiness["pubsub"] = a.pubsub
	}
	if a.bigquery != nil {
		readiness["bigquery"] = a.bigquery
	}
	return routes.Dependencies{
		Orders:      a.orders,
		Proofs:      a.proofs,
		Inbox:       a.inbox,
		Broadcaster: a.broadcaster,
		StoreGuard:  a.orders,
		Limiter:     a.redis,
		Readiness:   readiness,
		Metrics:     a.registry,
	}
}

// drain waits for notifications still in flight after the last request.
func (a *app) drain() {
	a.orders.Drain()
	a.proofs.Drain()
}

func (a *app) close() {
	ctx := context.Background()
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logg.Error(ctx, "error closing pubsub", err)
		}
	}
	if a.bigquery != nil {
		if err := a.bigquery.Close(); err != nil {
			a.logg.Error(ctx, "error closing bigquery", err)
		}
	}
}

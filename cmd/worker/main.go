package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/meganoshop/backend/internal/domains/catalog/adapters/memory"
	ordersevents "github.com/meganoshop/backend/internal/domains/orders/adapters/events"
	ordersmemory "github.com/meganoshop/backend/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/meganoshop/backend/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"
	paymentgateway "github.com/meganoshop/backend/internal/domains/payment/adapters/gateway"
	paymentapp "github.com/meganoshop/backend/internal/domains/payment/application"
	paymentactivities "github.com/meganoshop/backend/internal/durable/temporal/activities/payment"
	paymentworkflows "github.com/meganoshop/backend/internal/durable/temporal/workflows/payment"
	"github.com/meganoshop/backend/internal/platform/cache"
	"github.com/meganoshop/backend/internal/platform/events"
	platformobservability "github.com/meganoshop/backend/internal/platform/observability"
	platformpostgres "github.com/meganoshop/backend/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "shop-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	ordersRepo, cleanupRepo := buildOrdersRepository(ctx, logger)
	defer cleanupRepo()

	store := buildCache(ctx, logger)
	publisher, closePublisher := buildEventPublisher(ctx, logger)
	defer closePublisher()

	processor := paymentapp.NewProcessor(
		ordersRepo,
		paymentgateway.NewSimulated(durationEnv("PAYMENT_DELAY_SECONDS", 2*time.Second, logger)),
		paymentapp.WithCache(store),
		paymentapp.WithLogger(logger),
		paymentapp.WithEvents(publisher),
		paymentapp.WithFailureDelay(durationEnv("PAYMENT_FAILURE_DELAY_SECONDS", 10*time.Second, logger)),
	)
	activities := paymentactivities.NewActivities(processor)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, paymentworkflows.PaymentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(paymentworkflows.PaymentWorkflow, workflow.RegisterOptions{Name: paymentworkflows.PaymentWorkflowName})
	w.RegisterWorkflowWithOptions(paymentworkflows.PaymentFailureWorkflow, workflow.RegisterOptions{Name: paymentworkflows.PaymentFailureWorkflowName})
	w.RegisterActivityWithOptions(activities.Process, activity.RegisterOptions{Name: paymentworkflows.ProcessPaymentActivityName})
	w.RegisterActivityWithOptions(activities.MarkFailed, activity.RegisterOptions{Name: paymentworkflows.MarkFailedActivityName})

	logger.Info("payment worker listening", slog.String("taskQueue", paymentworkflows.PaymentTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrdersRepository(ctx context.Context, logger *slog.Logger) (ordersports.Repository, func()) {
	dsn := os.Getenv("POSTGRES_DSN")
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory orders repository")
		return ordersmemory.NewRepository(catalogmemory.NewRepository()), func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres (falling back to memory)", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(catalogmemory.NewRepository()), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection (falling back to memory)", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(catalogmemory.NewRepository()), func() {}
	}
	logger.Info("worker orders repository configured with postgres")
	return orderspostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func buildCache(ctx context.Context, logger *slog.Logger) cache.Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		logger.Warn("REDIS_ADDR not set, using worker-local in-memory cache")
		return cache.NewMemory()
	}
	redisCache, err := cache.NewRedis(ctx, addr)
	if err != nil {
		logger.Warn("failed to connect to redis, using worker-local in-memory cache", slog.String("error", err.Error()))
		return cache.NewMemory()
	}
	logger.Info("redis cache connected", slog.String("addr", addr))
	return redisCache
}

func buildEventPublisher(ctx context.Context, logger *slog.Logger) (ordersports.EventPublisher, func()) {
	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
		return ordersports.NoopEvents{}, func() {}
	}
	topic := envOrDefault("KAFKA_ORDERS_TOPIC", "shop.orders")
	producer := events.NewProducer(brokers, topic, 256, events.WithLogger(logger))
	producer.Start(ctx)
	logger.Info("kafka order events enabled", slog.String("topic", topic))
	return ordersevents.NewPublisher(producer, logger), producer.Close
}

func durationEnv(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		logger.Warn("invalid duration env, using default", slog.String("key", key), slog.String("value", raw))
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

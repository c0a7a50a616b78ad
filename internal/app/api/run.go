package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	shopserver "github.com/meganoshop/backend/server"

	basketmemory "github.com/meganoshop/backend/internal/domains/basket/adapters/memory"
	basketpostgres "github.com/meganoshop/backend/internal/domains/basket/adapters/persistence/postgres"
	basketapp "github.com/meganoshop/backend/internal/domains/basket/application"
	basketports "github.com/meganoshop/backend/internal/domains/basket/ports"

	catalogmemory "github.com/meganoshop/backend/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/meganoshop/backend/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/meganoshop/backend/internal/domains/catalog/application"
	catalogports "github.com/meganoshop/backend/internal/domains/catalog/ports"

	ordersevents "github.com/meganoshop/backend/internal/domains/orders/adapters/events"
	ordersmemory "github.com/meganoshop/backend/internal/domains/orders/adapters/memory"
	ordersobs "github.com/meganoshop/backend/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/meganoshop/backend/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/meganoshop/backend/internal/domains/orders/application"
	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"

	paymentgateway "github.com/meganoshop/backend/internal/domains/payment/adapters/gateway"
	paymentworkflows "github.com/meganoshop/backend/internal/domains/payment/adapters/workflows"
	paymentapp "github.com/meganoshop/backend/internal/domains/payment/application"
	paymentports "github.com/meganoshop/backend/internal/domains/payment/ports"

	usermemory "github.com/meganoshop/backend/internal/domains/users/adapters/memory"
	userobs "github.com/meganoshop/backend/internal/domains/users/adapters/observability"
	userpostgres "github.com/meganoshop/backend/internal/domains/users/adapters/persistence/postgres"
	userapp "github.com/meganoshop/backend/internal/domains/users/application"
	userports "github.com/meganoshop/backend/internal/domains/users/ports"

	"github.com/meganoshop/backend/internal/platform/cache"
	"github.com/meganoshop/backend/internal/platform/events"
	"github.com/meganoshop/backend/internal/platform/migrations"
	platformobservability "github.com/meganoshop/backend/internal/platform/observability"
	platformpostgres "github.com/meganoshop/backend/internal/platform/postgres"
)

// Run boots the shop HTTP API with observability, repositories, cache,
// events, and the payment dispatcher wired.
func Run(ctx context.Context) error {
	const serviceName = "shop-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, cleanupDB := connectPostgres(ctx, cfg, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store := buildCache(ctx, cfg, logger)

	catalogRepo, ordersRepo, basketRepo, guestStore, usersRepo, sessionStore := buildRepositories(db, cfg)

	catalogService := catalogapp.NewService(catalogRepo,
		catalogapp.WithCache(store),
		catalogapp.WithLogger(logger),
	)
	basketService := basketapp.NewService(basketRepo, catalogService,
		basketapp.WithCache(store),
		basketapp.WithLogger(logger),
	)
	guestService := basketapp.NewGuestService(guestStore, catalogService,
		basketapp.WithCache(store),
		basketapp.WithLogger(logger),
	)
	merger := basketapp.NewCartMerger(basketRepo, guestStore,
		basketapp.WithCache(store),
		basketapp.WithLogger(logger),
	)

	userService := userobs.New(
		userapp.NewService(usersRepo, sessionStore,
			userapp.WithLogger(logger),
			userapp.WithCartMerger(merger),
		),
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)

	publisher, closePublisher := buildEventPublisher(ctx, cfg, logger)
	defer closePublisher()

	ordersCore := ordersapp.NewService(ordersRepo, basketService, userService,
		ordersapp.WithCache(store),
		ordersapp.WithLogger(logger),
		ordersapp.WithEvents(publisher),
	)
	ordersService := ordersobs.New(ordersCore,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	processor := paymentapp.NewProcessor(ordersRepo, paymentgateway.NewSimulated(cfg.PaymentDelay),
		paymentapp.WithCache(store),
		paymentapp.WithLogger(logger),
		paymentapp.WithEvents(publisher),
		paymentapp.WithFailureDelay(cfg.PaymentFailureDelay),
	)
	var dispatcher paymentports.Dispatcher = paymentworkflows.NewInlineDispatcher(processor, logger)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal unavailable, dispatching payments inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		dispatcher = paymentworkflows.NewTemporalDispatcher(temporalClient)
		logger.Info("Temporal payment dispatch enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := shopserver.ApiHandleFunctions{
		BasketAPI:  shopserver.NewBasketAPI(basketService, guestService, ordersCore),
		OrderAPI:   shopserver.NewOrderAPI(ordersService, basketService),
		PaymentAPI: shopserver.NewPaymentAPI(dispatcher, ordersService),
		UserAPI:    shopserver.NewUserAPI(userService),
		CatalogAPI: shopserver.NewCatalogAPI(catalogService),
	}

	router := shopserver.NewRouter(handlers,
		otelgin.Middleware(serviceName),
		shopserver.SessionMiddleware(sessionStore),
	)
	addr := ":" + cfg.Port
	logger.Info("shop API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("shop API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

func buildRepositories(db *gorm.DB, cfg Config) (
	catalogports.Repository,
	ordersports.Repository,
	basketports.Repository,
	basketports.GuestCartStore,
	userports.Repository,
	userports.SessionStore,
) {
	if db != nil {
		return catalogpostgres.NewRepository(db),
			orderspostgres.NewRepository(db),
			basketpostgres.NewRepository(db),
			basketpostgres.NewGuestCartStore(db),
			userpostgres.NewRepository(db),
			userpostgres.NewSessionStore(db, cfg.SessionTTL)
	}
	catalogRepo := catalogmemory.NewRepository()
	return catalogRepo,
		ordersmemory.NewRepository(catalogRepo),
		basketmemory.NewRepository(),
		basketmemory.NewGuestCartStore(),
		usermemory.NewRepository(),
		usermemory.NewSessionStore(cfg.SessionTTL)
}

func buildCache(ctx context.Context, cfg Config, logger *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemory()
	}
	redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("failed to connect to redis, using in-memory cache", slog.String("error", err.Error()))
		return cache.NewMemory()
	}
	logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
	return redisCache
}

func buildEventPublisher(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
		return ordersports.NoopEvents{}, func() {}
	}
	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, 256, events.WithLogger(logger))
	producer.Start(ctx)
	logger.Info("kafka order events enabled", slog.String("topic", cfg.KafkaOrdersTopic))
	return ordersevents.NewPublisher(producer, logger), producer.Close
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

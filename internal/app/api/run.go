package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	invbunjang "github.com/Apurer/go-order-bridge/internal/domains/inventory/adapters/external/bunjang"
	invshopify "github.com/Apurer/go-order-bridge/internal/domains/inventory/adapters/external/shopify"
	invmemory "github.com/Apurer/go-order-bridge/internal/domains/inventory/adapters/memory"
	invpostgres "github.com/Apurer/go-order-bridge/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/Apurer/go-order-bridge/internal/domains/inventory/application"
	invports "github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
	ordersbunjang "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/external/bunjang"
	ordersshopify "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/external/shopify"
	ordersmemory "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/go-order-bridge/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-order-bridge/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	"github.com/Apurer/go-order-bridge/internal/platform/alerting"
	"github.com/Apurer/go-order-bridge/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-order-bridge/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-order-bridge/internal/platform/postgres"
	"github.com/Apurer/go-order-bridge/internal/webhooks"

	bunjangclient "github.com/Apurer/go-order-bridge/internal/clients/http/bunjang"
	shopifyclient "github.com/Apurer/go-order-bridge/internal/clients/http/shopify"
)

// Run boots the webhook-facing HTTP API with observability, repositories, and
// workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-bridge-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
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

	deps, cleanup, err := BuildServices(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanup()

	var orchestrator ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(deps.Orders, deps.Inventory)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, processing orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orchestrator = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	webhookHandler := webhooks.NewHandler(webhooks.NewAuthenticator(cfg.ShopifyWebhookSecret), orchestrator, logger)
	webhookHandler.Register(router)
	registerOps(router, deps.Links)

	addr := ":" + cfg.Port
	logger.Info("order bridge API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order bridge API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Services bundles the wired application services shared by the API, worker,
// and reconciler processes.
type Services struct {
	Orders    ordersports.Service
	Inventory invports.Service
	Links     ordersports.LinkStore
	DB        *gorm.DB

	Bunjang *bunjangclient.Client
	Shopify *shopifyclient.Client
}

// BuildServices constructs the HTTP clients, repositories, and application
// services from configuration. The returned cleanup closes the database.
func BuildServices(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Services, func(), error) {
	logger := instruments.Logger

	bjClient, err := bunjangclient.NewClient(bunjangclient.Config{
		BaseURL:     cfg.BunjangBaseURL,
		AccessToken: cfg.BunjangAccessToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bunjang client: %w", err)
	}
	shClient, err := shopifyclient.NewClient(shopifyclient.Config{
		ShopDomain:  cfg.ShopifyShopDomain,
		AccessToken: cfg.ShopifyAccessToken,
		LocationID:  cfg.ShopifyLocationID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("shopify client: %w", err)
	}

	db, cleanup := buildDatabase(ctx, cfg, logger)

	var linkStore ordersports.LinkStore
	var invRepo invports.ProductLinkRepository
	if db != nil {
		linkStore = orderspostgres.NewLinkStore(db)
		invRepo = invpostgres.NewRepository(db)
	} else {
		linkStore = ordersmemory.NewLinkStore()
		invRepo = invmemory.NewRepository()
	}

	notifier := alerting.NewNotifier(logger)

	coreOrders := ordersapp.NewService(
		linkStore,
		ordersbunjang.NewMarketplace(bjClient),
		ordersshopify.NewStorefront(shClient),
		ordersapp.NewMapper(),
		notifier,
		ordersapp.BalanceThresholds{Low: cfg.BalanceLowBelow, Critical: cfg.BalanceCriticalBelow},
		ordersapp.WithLogger(logger),
	)
	ordersService := ordersobs.New(
		coreOrders,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	inventoryService := invapp.NewService(
		invRepo,
		invshopify.NewInventory(shClient),
		invbunjang.NewCatalog(bjClient),
		notifier,
		invapp.Settings{
			LowStockThreshold: cfg.LowStockThreshold,
			ThrottleEvery:     cfg.ThrottleEvery,
			ThrottlePause:     cfg.ThrottlePause,
		},
		invapp.WithLogger(logger),
	)

	return &Services{
		Orders:    ordersService,
		Inventory: inventoryService,
		Links:     linkStore,
		DB:        db,
		Bunjang:   bjClient,
		Shopify:   shClient,
	}, cleanup, nil
}

func buildDatabase(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres repositories configured")
	return db, func() { _ = sqlDB.Close() }
}

// ConnectTemporalClient dials the Temporal cluster from configuration.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
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

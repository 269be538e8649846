package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Apurer/go-order-bridge/internal/app/api"
	reconbunjang "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/adapters/external/bunjang"
	reconshopify "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/adapters/external/shopify"
	reconlinks "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/adapters/links"
	reconpostgres "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/adapters/persistence/postgres"
	reconapp "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/application"
	reconports "github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
	platformobservability "github.com/Apurer/go-order-bridge/internal/platform/observability"
)

// The reconciler is a one-shot process meant for a scheduler: it pulls the
// recent marketplace status changes onto Shopify orders, then realigns
// published quantities against authoritative marketplace stock.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	const serviceName = "order-bridge-reconciler"

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services, cleanup, err := api.BuildServices(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build services", slog.String("error", err.Error()))
		return
	}
	defer cleanup()

	var runs reconports.RunStore
	if services.DB != nil {
		runs = reconpostgres.NewRunStore(services.DB)
	}
	reconciliation := reconapp.NewService(
		reconbunjang.NewOrders(services.Bunjang),
		reconlinks.NewLocator(services.Links, services.Shopify, logger),
		reconshopify.NewAnnotator(services.Shopify),
		reconshopify.NewFulfillmentStub(logger),
		runs,
		reconapp.WithLogger(logger),
		reconapp.WithPageSize(cfg.StatusPageSize),
	)

	start, end := reconapp.LookbackWindow(time.Now(), cfg.StatusWindowDays)
	result, err := reconciliation.SyncStatuses(ctx, start, end)
	if err != nil {
		logger.Error("status reconciliation failed", slog.String("error", err.Error()))
	} else {
		logger.Info("status reconciliation completed",
			slog.Int("synced", result.Synced), slog.Int("errors", result.Errors))
	}

	fullSync, err := services.Inventory.FullSync(ctx, cfg.FullSyncCap)
	if err != nil {
		logger.Error("inventory full sync failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("inventory full sync completed",
		slog.Int("total", fullSync.Total),
		slog.Int("synced", fullSync.Synced),
		slog.Int("failed", fullSync.Failed),
		slog.Int("skipped", fullSync.Skipped),
		slog.Int("lowStock", len(fullSync.LowStock)),
	)
}

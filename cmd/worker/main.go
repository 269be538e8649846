package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-order-bridge/internal/app/api"
	platformobservability "github.com/Apurer/go-order-bridge/internal/platform/observability"
	orderactivities "github.com/Apurer/go-order-bridge/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-order-bridge/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-bridge-worker"

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
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

	services, cleanup, err := api.BuildServices(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	activities := orderactivities.NewActivities(services.Orders, services.Inventory)

	w := worker.New(temporalClient, orderworkflows.OrderBridgeTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderSyncWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderSyncWorkflowName})
	w.RegisterWorkflowWithOptions(orderworkflows.InventoryRestoreWorkflow, workflow.RegisterOptions{Name: orderworkflows.InventoryRestoreWorkflowName})
	w.RegisterActivityWithOptions(activities.ProcessOrder, activity.RegisterOptions{Name: orderactivities.ProcessOrderActivityName})
	w.RegisterActivityWithOptions(activities.DecrementInventory, activity.RegisterOptions{Name: orderactivities.DecrementInventoryActivityName})
	w.RegisterActivityWithOptions(activities.RestoreInventory, activity.RegisterOptions{Name: orderactivities.RestoreInventoryActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderBridgeTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

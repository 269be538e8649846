package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	invports "github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-order-bridge/internal/platform/temporal/activities/orders"
)

// RunOrderSyncSequence executes the ordered activities for a placed order:
// marketplace order creation followed by the storefront quantity decrement.
// The decrement runs only for lines that actually produced orders; a fully
// failed creation leaves published quantities untouched.
func RunOrderSyncSequence(ctx workflow.Context, submission ordersports.OrderSubmission, lines []invports.OrderLine) (*ordersports.ProcessOrderResult, error) {
	logger := workflow.GetLogger(ctx)
	orderID := submission.Order.ID
	logger.Info("order sync sequence started", "orderId", orderID)

	processOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	inventoryOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var result ordersports.ProcessOrderResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, processOptions), orderactivities.ProcessOrderActivityName, submission).Get(ctx, &result)
	if err != nil {
		logger.Error("order sync sequence failed", "orderId", orderID, "error", err)
		return nil, err
	}
	logger.Info("order sync sequence processed", "orderId", orderID, "succeeded", result.Succeeded)

	if result.Succeeded && len(lines) > 0 {
		var batch invports.BatchResult
		if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, inventoryOptions), orderactivities.DecrementInventoryActivityName, lines).Get(ctx, &batch); err != nil {
			logger.Error("order sync sequence decrement failed", "orderId", orderID, "error", err)
			return &result, err
		}
		logger.Info("order sync sequence decremented", "orderId", orderID, "success", batch.Success, "failed", batch.Failed)
	}
	return &result, nil
}

// RunInventoryRestoreSequence restores published quantities for a cancelled
// order's linked lines.
func RunInventoryRestoreSequence(ctx workflow.Context, orderID int64, lines []invports.OrderLine) (*invports.BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("inventory restore sequence started", "orderId", orderID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}
	var batch invports.BatchResult
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.RestoreInventoryActivityName, lines).Get(ctx, &batch); err != nil {
		logger.Error("inventory restore sequence failed", "orderId", orderID, "error", err)
		return nil, err
	}
	logger.Info("inventory restore sequence completed", "orderId", orderID, "success", batch.Success, "failed", batch.Failed)
	return &batch, nil
}

package orders

import (
	"go.temporal.io/sdk/workflow"

	invports "github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	"github.com/Apurer/go-order-bridge/internal/platform/temporal/sequences"
)

const (
	// OrderSyncWorkflowName is the public identifier for registering the workflow.
	OrderSyncWorkflowName = "orders.workflows.Sync"
	// InventoryRestoreWorkflowName is the public identifier for the cancellation workflow.
	InventoryRestoreWorkflowName = "orders.workflows.InventoryRestore"
	// OrderBridgeTaskQueue is the queue consumed by the worker processing order workflows.
	OrderBridgeTaskQueue = "ORDER_BRIDGE"
)

// OrderSyncWorkflowInput captures the payload for mirroring one Shopify order.
type OrderSyncWorkflowInput struct {
	Submission ordersports.OrderSubmission
	TraceID    string
}

// InventoryRestoreWorkflowInput captures the payload for a cancellation restore.
type InventoryRestoreWorkflowInput struct {
	Submission ordersports.OrderSubmission
	TraceID    string
}

// OrderSyncWorkflow orchestrates marketplace order creation and the follow-up
// storefront quantity decrement for one webhook delivery.
func OrderSyncWorkflow(ctx workflow.Context, input OrderSyncWorkflowInput) (*ordersports.ProcessOrderResult, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Submission.Order.ID
	logger.Info("OrderSyncWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	result, err := sequences.RunOrderSyncSequence(ctx, input.Submission, linkedLines(input.Submission))
	if err != nil {
		logger.Error("OrderSyncWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderSyncWorkflow completed", withTraceID(input.TraceID, "orderId", orderID, "succeeded", result.Succeeded)...)
	return result, nil
}

// InventoryRestoreWorkflow restores published quantities after a cancellation.
func InventoryRestoreWorkflow(ctx workflow.Context, input InventoryRestoreWorkflowInput) (*invports.BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Submission.Order.ID
	logger.Info("InventoryRestoreWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	lines := linkedLines(input.Submission)
	if len(lines) == 0 {
		logger.Info("InventoryRestoreWorkflow completed; no linked lines", withTraceID(input.TraceID, "orderId", orderID)...)
		return &invports.BatchResult{}, nil
	}
	batch, err := sequences.RunInventoryRestoreSequence(ctx, orderID, lines)
	if err != nil {
		logger.Error("InventoryRestoreWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("InventoryRestoreWorkflow completed", withTraceID(input.TraceID, "orderId", orderID)...)
	return batch, nil
}

func linkedLines(submission ordersports.OrderSubmission) []invports.OrderLine {
	var lines []invports.OrderLine
	for _, item := range submission.Order.Items {
		productID, ok := item.LinkedProductID()
		if !ok {
			continue
		}
		lines = append(lines, invports.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}
	return lines
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

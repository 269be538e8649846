package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	invports "github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

const (
	// ProcessOrderActivityName mirrors a Shopify order onto the marketplace.
	ProcessOrderActivityName = "orders.activities.ProcessOrder"
	// DecrementInventoryActivityName lowers published quantities after a placed order.
	DecrementInventoryActivityName = "orders.activities.DecrementInventory"
	// RestoreInventoryActivityName raises published quantities after a cancellation.
	RestoreInventoryActivityName = "orders.activities.RestoreInventory"
)

// Activities groups activities that operate on the order bridge contexts.
type Activities struct {
	orders    ordersports.Service
	inventory invports.Service
}

// NewActivities wires the order and inventory services into the Temporal activities bundle.
func NewActivities(orders ordersports.Service, inventory invports.Service) *Activities {
	return &Activities{orders: orders, inventory: inventory}
}

// ProcessOrder creates marketplace orders for every linked line item.
func (a *Activities) ProcessOrder(ctx context.Context, submission ordersports.OrderSubmission) (*ordersports.ProcessOrderResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		logger.Error("order processing activity not initialized", "orderId", submission.Order.ID)
		return nil, errors.New("order processing activity not initialized")
	}
	logger.Info("ProcessOrder activity started", "orderId", submission.Order.ID, "eventId", submission.EventID)
	result, err := a.orders.ProcessOrder(ctx, submission.Order)
	if err != nil {
		logger.Error("ProcessOrder activity failed", "orderId", submission.Order.ID, "error", err)
		return nil, err
	}
	if result != nil {
		logger.Info("ProcessOrder activity completed",
			"orderId", submission.Order.ID,
			"succeeded", result.Succeeded,
			"created", len(result.CreatedOrderIDs),
		)
	}
	return result, nil
}

// DecrementInventory applies the order-placed quantity decrement for linked lines.
func (a *Activities) DecrementInventory(ctx context.Context, lines []invports.OrderLine) (*invports.BatchResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		logger.Error("inventory decrement activity not initialized")
		return nil, errors.New("inventory decrement activity not initialized")
	}
	if len(lines) == 0 {
		logger.Info("DecrementInventory activity skipped; no linked lines")
		return &invports.BatchResult{}, nil
	}
	logger.Info("DecrementInventory activity started", "lines", len(lines))
	result := a.inventory.ApplyOrderPlaced(ctx, lines)
	logger.Info("DecrementInventory activity completed", "success", result.Success, "failed", result.Failed)
	return result, nil
}

// RestoreInventory applies the order-cancelled quantity restore for linked lines.
func (a *Activities) RestoreInventory(ctx context.Context, lines []invports.OrderLine) (*invports.BatchResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		logger.Error("inventory restore activity not initialized")
		return nil, errors.New("inventory restore activity not initialized")
	}
	if len(lines) == 0 {
		logger.Info("RestoreInventory activity skipped; no linked lines")
		return &invports.BatchResult{}, nil
	}
	logger.Info("RestoreInventory activity started", "lines", len(lines))
	result := a.inventory.ApplyOrderCancelled(ctx, lines)
	logger.Info("RestoreInventory activity completed", "success", result.Success, "failed", result.Failed)
	return result, nil
}

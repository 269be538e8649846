package ports

import (
	"context"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
)

// ProcessOrderResult reports the outcome of a cross-platform order sync.
// Succeeded is true iff at least one line item produced a marketplace order.
type ProcessOrderResult struct {
	Succeeded       bool
	CreatedOrderIDs []string
	Message         string
}

// Service defines the orders use cases exposed to adapters (inbound port).
type Service interface {
	ProcessOrder(ctx context.Context, order domain.ExternalOrder) (*ProcessOrderResult, error)
}

// OrderSubmission is the payload handed to the asynchronous dispatcher.
// EventID is the webhook delivery id and doubles as the dedup key.
type OrderSubmission struct {
	EventID string
	Order   domain.ExternalOrder
}

// WorkflowOrchestrator dispatches order work off the webhook request path.
type WorkflowOrchestrator interface {
	// SubmitOrderSync enqueues marketplace order creation plus the
	// follow-up inventory decrement.
	SubmitOrderSync(ctx context.Context, submission OrderSubmission) error
	// SubmitInventoryRestore enqueues the symmetric restore for a
	// cancelled order.
	SubmitInventoryRestore(ctx context.Context, submission OrderSubmission) error
}

// PayloadMapper builds the marketplace order payload from a line item and
// the live product detail. A nil result signals a mapping failure; the item
// is tagged and skipped.
type PayloadMapper interface {
	Map(item domain.LineItem, detail ProductDetail) *OrderPayload
}

// Notifier surfaces operator alerts. Delivery transport is out of scope;
// implementations may log, page, or post to chat.
type Notifier interface {
	Warn(ctx context.Context, message string)
	Critical(ctx context.Context, message string)
}

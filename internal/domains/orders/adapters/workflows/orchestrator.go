package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	invports "github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/go-order-bridge/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
// Submissions are fire-and-forget: the webhook responder must not wait for
// marketplace calls, so workflow results are never awaited here.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderBridgeTaskQueue}
}

// SubmitOrderSync starts the workflow that mirrors an order onto the marketplace.
// A redelivered webhook maps onto the same workflow ID and is absorbed by
// Temporal's already-started rejection.
func (o *TemporalOrderWorkflows) SubmitOrderSync(ctx context.Context, submission ports.OrderSubmission) error {
	if o == nil || o.client == nil {
		return errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:        buildWorkflowID("order-sync", submission),
		TaskQueue: o.taskQueue,
	}
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderSyncWorkflow,
		orderworkflows.OrderSyncWorkflowInput{Submission: submission, TraceID: traceComponent},
	)
	return ignoreAlreadyStarted(err)
}

// SubmitInventoryRestore starts the workflow that restores quantities for a
// cancelled order.
func (o *TemporalOrderWorkflows) SubmitInventoryRestore(ctx context.Context, submission ports.OrderSubmission) error {
	if o == nil || o.client == nil {
		return errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:        buildWorkflowID("inventory-restore", submission),
		TaskQueue: o.taskQueue,
	}
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.InventoryRestoreWorkflow,
		orderworkflows.InventoryRestoreWorkflowInput{Submission: submission, TraceID: traceComponent},
	)
	return ignoreAlreadyStarted(err)
}

// InlineOrderWorkflows executes the services directly without Temporal, useful
// for tests or dev fallbacks. The webhook path blocks on marketplace calls in
// this mode.
type InlineOrderWorkflows struct {
	orders    ports.Service
	inventory invports.Service
}

// NewInlineOrderWorkflows wraps the services for synchronous execution.
func NewInlineOrderWorkflows(orders ports.Service, inventory invports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{orders: orders, inventory: inventory}
}

// SubmitOrderSync processes the order and decrements quantities in-process.
func (o *InlineOrderWorkflows) SubmitOrderSync(ctx context.Context, submission ports.OrderSubmission) error {
	if o == nil || o.orders == nil {
		return errors.New("inline order workflows not configured")
	}
	result, err := o.orders.ProcessOrder(ctx, submission.Order)
	if err != nil {
		return err
	}
	if o.inventory != nil && result != nil && result.Succeeded {
		if lines := orderLines(submission); len(lines) > 0 {
			o.inventory.ApplyOrderPlaced(ctx, lines)
		}
	}
	return nil
}

// SubmitInventoryRestore restores quantities in-process.
func (o *InlineOrderWorkflows) SubmitInventoryRestore(ctx context.Context, submission ports.OrderSubmission) error {
	if o == nil || o.inventory == nil {
		return errors.New("inline order workflows not configured")
	}
	if lines := orderLines(submission); len(lines) > 0 {
		o.inventory.ApplyOrderCancelled(ctx, lines)
	}
	return nil
}

func orderLines(submission ports.OrderSubmission) []invports.OrderLine {
	var lines []invports.OrderLine
	for _, item := range submission.Order.LinkedItems() {
		productID, ok := item.LinkedProductID()
		if !ok {
			continue
		}
		lines = append(lines, invports.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}
	return lines
}

func buildWorkflowID(kind string, submission ports.OrderSubmission) string {
	if eventID := strings.TrimSpace(submission.EventID); eventID != "" {
		return fmt.Sprintf("%s-%s", kind, hashEventID(eventID))
	}
	idComponent := submission.Order.ID
	if idComponent == 0 {
		idComponent = time.Now().UnixNano()
	}
	return fmt.Sprintf("%s-%d", kind, idComponent)
}

func hashEventID(eventID string) string {
	sum := sha256.Sum256([]byte(eventID))
	// First 16 hex chars keep workflow IDs readable while remaining deterministic.
	return hex.EncodeToString(sum[:8])
}

func ignoreAlreadyStarted(err error) error {
	if err == nil {
		return nil
	}
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

func workflowTraceComponent(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

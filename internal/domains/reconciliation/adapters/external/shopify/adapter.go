package shopify

import (
	"context"
	"errors"
	"log/slog"

	shopifyclient "github.com/Apurer/go-order-bridge/internal/clients/http/shopify"
	ordersdomain "github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

// Annotator adapts the Shopify admin client to the reconciliation port.
type Annotator struct {
	client *shopifyclient.Client
}

// NewAnnotator wires the Shopify client into the reconciliation domain.
func NewAnnotator(client *shopifyclient.Client) *Annotator {
	return &Annotator{client: client}
}

// AddOrderTags appends tags onto the order.
func (a *Annotator) AddOrderTags(ctx context.Context, orderID int64, tags []string) error {
	if a == nil || a.client == nil {
		return errors.New("shopify annotator not configured")
	}
	return a.client.AddOrderTags(ctx, orderID, tags)
}

// SetOrderMetafields writes namespaced metafields onto the order.
func (a *Annotator) SetOrderMetafields(ctx context.Context, orderID int64, fields []ordersdomain.Metafield) error {
	if a == nil || a.client == nil {
		return errors.New("shopify annotator not configured")
	}
	converted := make([]shopifyclient.Metafield, 0, len(fields))
	for _, field := range fields {
		converted = append(converted, shopifyclient.Metafield{
			Namespace: field.Namespace,
			Key:       field.Key,
			Value:     field.Value,
			Type:      field.Type,
		})
	}
	return a.client.SetOrderMetafields(ctx, orderID, converted)
}

var _ ports.OrderAnnotator = (*Annotator)(nil)

// FulfillmentStub satisfies the fulfillment port while fulfillment
// mechanics live outside this core. It records the intent and moves on.
type FulfillmentStub struct {
	logger *slog.Logger
}

// NewFulfillmentStub builds the logging stub.
func NewFulfillmentStub(logger *slog.Logger) *FulfillmentStub {
	if logger == nil {
		logger = slog.Default()
	}
	return &FulfillmentStub{logger: logger}
}

// UpdateFulfillment logs the requested transition without side effects.
func (f *FulfillmentStub) UpdateFulfillment(_ context.Context, externalOrderID int64, status string) error {
	f.logger.Info("fulfillment update requested",
		slog.Int64("order.id", externalOrderID),
		slog.String("status", status))
	return nil
}

var _ ports.FulfillmentUpdater = (*FulfillmentStub)(nil)

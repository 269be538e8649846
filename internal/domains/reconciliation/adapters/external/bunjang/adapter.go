package bunjang

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	bunjangclient "github.com/Apurer/go-order-bridge/internal/clients/http/bunjang"
	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

// Orders adapts the Bunjang HTTP client to the reconciliation port.
type Orders struct {
	client *bunjangclient.Client
}

// NewOrders wires the Bunjang client into the reconciliation domain.
func NewOrders(client *bunjangclient.Client) *Orders {
	return &Orders{client: client}
}

// ListOrders returns one page of orders whose status changed in the window.
func (o *Orders) ListOrders(ctx context.Context, start, end time.Time, page, size int) (*ports.OrdersPage, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("bunjang orders adapter not configured")
	}
	listing, err := o.client.ListOrders(ctx, start, end, page, size)
	if err != nil {
		return nil, err
	}
	orders := make([]ports.MarketplaceOrder, 0, len(listing.Orders))
	for _, order := range listing.Orders {
		items := make([]ports.MarketplaceOrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, ports.MarketplaceOrderItem{
				ProductID: item.ProductID,
				Status:    item.Status,
				Price:     decimal.NewFromInt(item.Price),
			})
		}
		orders = append(orders, ports.MarketplaceOrder{
			ID:        order.ID,
			Status:    order.Status,
			UpdatedAt: order.UpdatedAt,
			Items:     items,
		})
	}
	return &ports.OrdersPage{Orders: orders, HasNext: listing.HasNext}, nil
}

var _ ports.MarketplaceOrders = (*Orders)(nil)

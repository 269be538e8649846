package bunjang

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	bunjangclient "github.com/Apurer/go-order-bridge/internal/clients/http/bunjang"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

// Marketplace adapts the Bunjang HTTP client to the orders outbound port.
type Marketplace struct {
	client *bunjangclient.Client
}

// NewMarketplace wires the Bunjang client into the orders domain.
func NewMarketplace(client *bunjangclient.Client) *Marketplace {
	return &Marketplace{client: client}
}

// GetProduct fetches the live product detail.
func (m *Marketplace) GetProduct(ctx context.Context, productID string) (*ports.ProductDetail, error) {
	if m == nil || m.client == nil {
		return nil, errors.New("bunjang marketplace adapter not configured")
	}
	product, err := m.client.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, bunjangclient.ErrNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &ports.ProductDetail{
		ProductID:   product.PID,
		Name:        product.Name,
		Price:       decimal.NewFromInt(product.Price),
		ShippingFee: decimal.NewFromInt(product.ShippingFee),
		Quantity:    product.Quantity,
		OnSale:      product.SaleStatus == "SELLING",
	}, nil
}

// CreateOrder submits the payload, translating API rejections into the
// domain error shape. Bunjang prices are integral KRW.
func (m *Marketplace) CreateOrder(ctx context.Context, payload ports.OrderPayload) (string, error) {
	if m == nil || m.client == nil {
		return "", errors.New("bunjang marketplace adapter not configured")
	}
	id, err := m.client.CreateOrder(ctx, bunjangclient.CreateOrderRequest{
		ProductID:     payload.ProductID,
		Quantity:      payload.Quantity,
		Price:         payload.Price.IntPart(),
		DeliveryPrice: payload.DeliveryPrice.IntPart(),
	})
	if err != nil {
		var apiErr *bunjangclient.APIError
		if errors.As(err, &apiErr) {
			return "", &ports.OrderRejectedError{Code: apiErr.Code, Reason: apiErr.Reason}
		}
		return "", err
	}
	return id, nil
}

// Balance returns the current point balance.
func (m *Marketplace) Balance(ctx context.Context) (decimal.Decimal, error) {
	if m == nil || m.client == nil {
		return decimal.Zero, errors.New("bunjang marketplace adapter not configured")
	}
	point, err := m.client.Balance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(point), nil
}

var _ ports.Marketplace = (*Marketplace)(nil)

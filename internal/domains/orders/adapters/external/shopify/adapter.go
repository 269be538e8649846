package shopify

import (
	"context"
	"errors"

	shopifyclient "github.com/Apurer/go-order-bridge/internal/clients/http/shopify"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

// Storefront adapts the Shopify admin client to the orders outbound port.
type Storefront struct {
	client *shopifyclient.Client
}

// NewStorefront wires the Shopify client into the orders domain.
func NewStorefront(client *shopifyclient.Client) *Storefront {
	return &Storefront{client: client}
}

// AddOrderTags appends tags onto the order.
func (s *Storefront) AddOrderTags(ctx context.Context, orderID int64, tags []string) error {
	if s == nil || s.client == nil {
		return errors.New("shopify storefront adapter not configured")
	}
	return s.client.AddOrderTags(ctx, orderID, tags)
}

// SetOrderMetafields writes namespaced metafields onto the order.
func (s *Storefront) SetOrderMetafields(ctx context.Context, orderID int64, fields []domain.Metafield) error {
	if s == nil || s.client == nil {
		return errors.New("shopify storefront adapter not configured")
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
	return s.client.SetOrderMetafields(ctx, orderID, converted)
}

var _ ports.Storefront = (*Storefront)(nil)

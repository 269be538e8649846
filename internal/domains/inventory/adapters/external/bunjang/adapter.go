package bunjang

import (
	"context"
	"errors"

	bunjangclient "github.com/Apurer/go-order-bridge/internal/clients/http/bunjang"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

// Catalog adapts the Bunjang HTTP client to the inventory outbound port.
type Catalog struct {
	client *bunjangclient.Client
}

// NewCatalog wires the Bunjang client into the inventory domain.
func NewCatalog(client *bunjangclient.Client) *Catalog {
	return &Catalog{client: client}
}

// ProductQuantity returns the authoritative stock level for a product.
func (c *Catalog) ProductQuantity(ctx context.Context, productID string) (int, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("bunjang catalog adapter not configured")
	}
	product, err := c.client.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.Quantity, nil
}

var _ ports.MarketplaceCatalog = (*Catalog)(nil)

package shopify

import (
	"context"
	"errors"

	shopifyclient "github.com/Apurer/go-order-bridge/internal/clients/http/shopify"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

// Inventory adapts the Shopify admin client to the inventory outbound port.
type Inventory struct {
	client *shopifyclient.Client
}

// NewInventory wires the Shopify client into the inventory domain.
func NewInventory(client *shopifyclient.Client) *Inventory {
	return &Inventory{client: client}
}

// VariantQuantity returns the published quantity for a variant.
func (i *Inventory) VariantQuantity(ctx context.Context, variantID int64) (int, error) {
	if i == nil || i.client == nil {
		return 0, errors.New("shopify inventory adapter not configured")
	}
	return i.client.VariantQuantity(ctx, variantID)
}

// SetVariantQuantity pushes a new published quantity for a variant.
func (i *Inventory) SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error {
	if i == nil || i.client == nil {
		return errors.New("shopify inventory adapter not configured")
	}
	return i.client.SetVariantQuantity(ctx, variantID, quantity)
}

var _ ports.StorefrontInventory = (*Inventory)(nil)

package links

import (
	"context"
	"errors"
	"log/slog"

	shopifyclient "github.com/Apurer/go-order-bridge/internal/clients/http/shopify"
	ordersdomain "github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

// Locator resolves marketplace order ids to external orders. The link
// store is consulted first; orders created before the store existed are
// found through the legacy tag search.
type Locator struct {
	links  ordersports.LinkStore
	client *shopifyclient.Client
	logger *slog.Logger
}

// NewLocator wires the link store and the Shopify search fallback.
func NewLocator(links ordersports.LinkStore, client *shopifyclient.Client, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{links: links, client: client, logger: logger}
}

// LocateExternalOrder returns the external order id, or 0 when no
// association exists on either path.
func (l *Locator) LocateExternalOrder(ctx context.Context, marketplaceOrderID string) (int64, error) {
	if l == nil || l.links == nil {
		return 0, errors.New("order locator not configured")
	}
	link, err := l.links.FindByMarketplaceOrderID(ctx, marketplaceOrderID)
	if err != nil {
		return 0, err
	}
	if link != nil {
		return link.ExternalOrderID, nil
	}
	if l.client == nil {
		return 0, nil
	}
	id, err := l.client.FindOrderIDByTag(ctx, ordersdomain.MarketplaceOrderTag(marketplaceOrderID))
	if err != nil {
		return 0, err
	}
	if id != 0 {
		l.logger.Info("order located via legacy tag search",
			slog.String("marketplace.order.id", marketplaceOrderID),
			slog.Int64("order.id", id))
	}
	return id, nil
}

var _ ports.OrderLocator = (*Locator)(nil)

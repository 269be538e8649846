package ports

import (
	"context"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
)

// Storefront is the outbound port used to annotate Shopify orders with
// processing outcomes. Annotations are append-only.
type Storefront interface {
	AddOrderTags(ctx context.Context, orderID int64, tags []string) error
	SetOrderMetafields(ctx context.Context, orderID int64, fields []domain.Metafield) error
}

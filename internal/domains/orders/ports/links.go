package ports

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateLink indicates the (order, line item) pair was already
// reserved, i.e. a previous delivery of the same job processed this item.
var ErrDuplicateLink = errors.New("order link already exists")

// OrderLink is the explicit association between a Shopify order line item
// and the Bunjang order created for it. A row is reserved before the
// marketplace call so redelivered jobs cannot double-purchase; the
// marketplace order id is filled in once creation succeeds.
type OrderLink struct {
	ExternalOrderID    int64
	LineItemID         int64
	ProductID          string
	MarketplaceOrderID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LinkStore persists order links under a uniqueness constraint on
// (ExternalOrderID, LineItemID).
type LinkStore interface {
	// Reserve inserts the link, returning ErrDuplicateLink when the pair
	// already exists.
	Reserve(ctx context.Context, link OrderLink) error
	// Complete records the marketplace order id on a reserved link.
	Complete(ctx context.Context, externalOrderID, lineItemID int64, marketplaceOrderID string) error
	// FindByMarketplaceOrderID returns the link for a Bunjang order id, or
	// nil when unknown.
	FindByMarketplaceOrderID(ctx context.Context, marketplaceOrderID string) (*OrderLink, error)
	// ListByExternalOrder returns every link recorded for an order.
	ListByExternalOrder(ctx context.Context, externalOrderID int64) ([]OrderLink, error)
}

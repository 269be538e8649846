package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	ordersdomain "github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
)

// Marketplace order statuses the poller understands.
const (
	StatusShipReady         = "SHIP_READY"
	StatusInTransit         = "IN_TRANSIT"
	StatusDelivered         = "DELIVERED"
	StatusPurchaseConfirmed = "PURCHASE_CONFIRMED"
	StatusCancelRequested   = "CANCEL_REQUESTED"
	StatusRefunded          = "REFUNDED"
	StatusReturnRequested   = "RETURN_REQUESTED"
	StatusReturned          = "RETURNED"
)

// MarketplaceOrderItem is one position of a Bunjang order.
type MarketplaceOrderItem struct {
	ProductID string
	Status    string
	Price     decimal.Decimal
}

// MarketplaceOrder is a Bunjang order as returned by the status listing.
type MarketplaceOrder struct {
	ID        string
	Status    string
	UpdatedAt time.Time
	Items     []MarketplaceOrderItem
}

// OrdersPage is one page of status-filtered marketplace orders.
type OrdersPage struct {
	Orders  []MarketplaceOrder
	HasNext bool
}

// MarketplaceOrders lists Bunjang orders whose status changed inside the
// window. Pages are zero-based.
type MarketplaceOrders interface {
	ListOrders(ctx context.Context, start, end time.Time, page, size int) (*OrdersPage, error)
}

// OrderLocator resolves a marketplace order id to the external order it was
// created for. Returns 0 when no association exists, which is a legitimate
// miss (the order may predate this system).
type OrderLocator interface {
	LocateExternalOrder(ctx context.Context, marketplaceOrderID string) (int64, error)
}

// OrderAnnotator writes status outcomes back onto the external order.
type OrderAnnotator interface {
	AddOrderTags(ctx context.Context, orderID int64, tags []string) error
	SetOrderMetafields(ctx context.Context, orderID int64, fields []ordersdomain.Metafield) error
}

// FulfillmentUpdater propagates shipping progress onto the external order.
// Fulfillment mechanics live outside this core.
type FulfillmentUpdater interface {
	UpdateFulfillment(ctx context.Context, externalOrderID int64, status string) error
}

// SyncRun is the persisted audit record of one reconciliation pass.
type SyncRun struct {
	ID             string
	WindowStart    time.Time
	WindowEnd      time.Time
	Synced         int
	Errors         int
	FailedOrderIDs []string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// RunStore persists reconciliation run records.
type RunStore interface {
	SaveRun(ctx context.Context, run SyncRun) error
}

// SyncResult aggregates one reconciliation pass.
type SyncResult struct {
	Synced int
	Errors int
}

// Service defines the status reconciliation use case.
type Service interface {
	SyncStatuses(ctx context.Context, start, end time.Time) (*SyncResult, error)
}

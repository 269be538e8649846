package ports

import "context"

// QuantityUnknown is the sentinel returned by CheckAndSync when the
// authoritative fetch fails. It is never a valid quantity to push.
const QuantityUnknown = -1

// QuantityTarget pairs a product with its desired published quantity.
type QuantityTarget struct {
	ProductID string
	Quantity  int
}

// OrderLine is a linked line item from an order lifecycle event.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// BatchDetail records the outcome for one entry of a batch sync.
type BatchDetail struct {
	ProductID string
	Synced    bool
	Error     string
}

// BatchResult aggregates a batch sync run.
type BatchResult struct {
	Success int
	Failed  int
	Details []BatchDetail
}

// FullSyncResult aggregates a bulk reconciliation pass.
type FullSyncResult struct {
	Total    int
	Synced   int
	Failed   int
	Skipped  int
	LowStock []QuantityTarget
}

// Service defines the inventory consistency use cases.
type Service interface {
	// SyncOne aligns the published quantity with target. Returns false
	// without error when the product has no link.
	SyncOne(ctx context.Context, productID string, target int) (bool, error)
	// SyncBatch applies SyncOne per pair; one failure never aborts the
	// batch.
	SyncBatch(ctx context.Context, targets []QuantityTarget) *BatchResult
	// CheckAndSync fetches the authoritative quantity from the
	// marketplace, syncs it, and returns it. On fetch failure it returns
	// QuantityUnknown together with the error.
	CheckAndSync(ctx context.Context, productID string) (int, error)
	// LowStockScan lists SYNCED links at or below the threshold.
	LowStockScan(ctx context.Context, threshold int) ([]QuantityTarget, error)
	// FullSync runs CheckAndSync over up to cap SYNCED links.
	FullSync(ctx context.Context, cap int) (*FullSyncResult, error)
	// ApplyOrderPlaced decrements published quantities for ordered lines,
	// floored at zero.
	ApplyOrderPlaced(ctx context.Context, lines []OrderLine) *BatchResult
	// ApplyOrderCancelled restores published quantities for cancelled
	// lines.
	ApplyOrderCancelled(ctx context.Context, lines []OrderLine) *BatchResult
}

// StorefrontInventory mutates published quantities on Shopify variants.
type StorefrontInventory interface {
	VariantQuantity(ctx context.Context, variantID int64) (int, error)
	SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error
}

// MarketplaceCatalog reads authoritative stock levels from Bunjang.
type MarketplaceCatalog interface {
	ProductQuantity(ctx context.Context, productID string) (int, error)
}

// Notifier surfaces inventory alerts to operators.
type Notifier interface {
	Warn(ctx context.Context, message string)
	Critical(ctx context.Context, message string)
}

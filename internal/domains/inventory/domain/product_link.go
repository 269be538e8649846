package domain

import "time"

// SyncStatus tracks the health of a product link.
type SyncStatus string

const (
	StatusPending SyncStatus = "PENDING"
	StatusSynced  SyncStatus = "SYNCED"
	StatusError   SyncStatus = "ERROR"
)

// ProductLink correlates a Bunjang product with the Shopify catalog entry
// that resells it. The cached quantity is the last value pushed to Shopify;
// it must never go negative.
type ProductLink struct {
	ProductID        string
	ShopifyProductID int64
	ShopifyVariantID int64
	CachedQuantity   int
	Status           SyncStatus
	LastSyncedAt     time.Time
	LastCheckedAt    time.Time
}

// LowStock reports whether the link should appear in a low-stock scan.
// Links with unknown (negative) quantities are excluded.
func (p ProductLink) LowStock(threshold int) bool {
	return p.Status == StatusSynced && p.CachedQuantity >= 0 && p.CachedQuantity <= threshold
}

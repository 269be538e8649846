package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-order-bridge/internal/domains/inventory/domain"
)

// ErrStaleQuantity signals a compare-and-swap update lost to a concurrent
// writer; the caller should re-read and retry.
var ErrStaleQuantity = errors.New("cached quantity changed concurrently")

// ProductLinkRepository persists product links. Quantity mutations go
// through a conditional update so concurrent decrements and restores cannot
// silently lose writes.
type ProductLinkRepository interface {
	// GetByProductID returns the link or nil when the product is unknown.
	GetByProductID(ctx context.Context, productID string) (*domain.ProductLink, error)
	// UpdateQuantityCAS sets the cached quantity iff it still equals
	// expected, stamping the sync time. Returns ErrStaleQuantity on a lost
	// race.
	UpdateQuantityCAS(ctx context.Context, productID string, expected, next int, at time.Time) error
	// ListSynced returns up to limit links with SYNCED status.
	ListSynced(ctx context.Context, limit int) ([]domain.ProductLink, error)
	// ListLowStock returns SYNCED links with 0 <= quantity <= threshold.
	ListLowStock(ctx context.Context, threshold int) ([]domain.ProductLink, error)
}

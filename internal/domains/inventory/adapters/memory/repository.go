package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-order-bridge/internal/domains/inventory/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

var _ ports.ProductLinkRepository = (*Repository)(nil)

// Repository provides an in-memory product link store for development and
// tests.
type Repository struct {
	mu    sync.RWMutex
	links map[string]domain.ProductLink
}

// NewRepository constructs an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{links: map[string]domain.ProductLink{}}
}

// Seed inserts or replaces a link. Intended for tests and local wiring.
func (r *Repository) Seed(link domain.ProductLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.ProductID] = link
}

// GetByProductID returns the link or nil when the product is unknown.
func (r *Repository) GetByProductID(_ context.Context, productID string) (*domain.ProductLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[productID]
	if !ok {
		return nil, nil
	}
	copy := link
	return &copy, nil
}

// UpdateQuantityCAS sets the cached quantity iff it still equals expected.
func (r *Repository) UpdateQuantityCAS(_ context.Context, productID string, expected, next int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[productID]
	if !ok {
		return fmt.Errorf("product link %s not found", productID)
	}
	if link.CachedQuantity != expected {
		return ports.ErrStaleQuantity
	}
	link.CachedQuantity = next
	link.LastSyncedAt = at
	r.links[productID] = link
	return nil
}

// ListSynced returns up to limit links with SYNCED status, ordered by id.
func (r *Repository) ListSynced(_ context.Context, limit int) ([]domain.ProductLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []domain.ProductLink
	for _, link := range r.links {
		if link.Status == domain.StatusSynced {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ProductID < links[j].ProductID })
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// ListLowStock returns SYNCED links at or below the threshold.
func (r *Repository) ListLowStock(_ context.Context, threshold int) ([]domain.ProductLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []domain.ProductLink
	for _, link := range r.links {
		if link.LowStock(threshold) {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].CachedQuantity < links[j].CachedQuantity })
	return links, nil
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

var _ ports.LinkStore = (*LinkStore)(nil)

// LinkStore provides an in-memory implementation for development and tests.
type LinkStore struct {
	mu    sync.RWMutex
	links map[string]ports.OrderLink
	now   func() time.Time
}

// NewLinkStore constructs an empty in-memory link store.
func NewLinkStore() *LinkStore {
	return &LinkStore{
		links: map[string]ports.OrderLink{},
		now:   time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *LinkStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func linkKey(externalOrderID, lineItemID int64) string {
	return fmt.Sprintf("%d/%d", externalOrderID, lineItemID)
}

// Reserve inserts the link, returning ErrDuplicateLink when the
// (order, line item) pair was already reserved.
func (s *LinkStore) Reserve(_ context.Context, link ports.OrderLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey(link.ExternalOrderID, link.LineItemID)
	if _, ok := s.links[key]; ok {
		return ports.ErrDuplicateLink
	}

	now := s.now()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	s.links[key] = link
	return nil
}

// Complete records the marketplace order id on a reserved link.
func (s *LinkStore) Complete(_ context.Context, externalOrderID, lineItemID int64, marketplaceOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey(externalOrderID, lineItemID)
	link, ok := s.links[key]
	if !ok {
		return fmt.Errorf("order link %s not reserved", key)
	}
	link.MarketplaceOrderID = marketplaceOrderID
	link.UpdatedAt = s.now()
	s.links[key] = link
	return nil
}

// FindByMarketplaceOrderID returns the link for a marketplace order id, or nil.
func (s *LinkStore) FindByMarketplaceOrderID(_ context.Context, marketplaceOrderID string) (*ports.OrderLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if link.MarketplaceOrderID == marketplaceOrderID && marketplaceOrderID != "" {
			copy := link
			return &copy, nil
		}
	}
	return nil, nil
}

// ListByExternalOrder returns every link recorded for an order.
func (s *LinkStore) ListByExternalOrder(_ context.Context, externalOrderID int64) ([]ports.OrderLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []ports.OrderLink
	for _, link := range s.links {
		if link.ExternalOrderID == externalOrderID {
			links = append(links, link)
		}
	}
	return links, nil
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

const casAttempts = 3

// Settings tune the bulk reconciliation pass.
type Settings struct {
	LowStockThreshold int
	ThrottleEvery     int
	ThrottlePause     time.Duration
}

// DefaultSettings returns the stock low-stock threshold and throttle.
func DefaultSettings() Settings {
	return Settings{
		LowStockThreshold: 5,
		ThrottleEvery:     10,
		ThrottlePause:     time.Second,
	}
}

// Service keeps cached and published quantities aligned across platforms.
type Service struct {
	repo        ports.ProductLinkRepository
	storefront  ports.StorefrontInventory
	marketplace ports.MarketplaceCatalog
	notifier    ports.Notifier
	settings    Settings
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(time.Duration)
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper overrides the throttle pause for deterministic testing.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewService wires the inventory service with its dependencies.
func NewService(
	repo ports.ProductLinkRepository,
	storefront ports.StorefrontInventory,
	marketplace ports.MarketplaceCatalog,
	notifier ports.Notifier,
	settings Settings,
	opts ...Option,
) *Service {
	s := &Service{
		repo:        repo,
		storefront:  storefront,
		marketplace: marketplace,
		notifier:    notifier,
		settings:    settings,
		logger:      slog.Default(),
		now:         time.Now,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SyncOne aligns the published variant quantity with target. Absent links
// are a warning, not an error. Pushes happen only when the live quantity
// differs, which makes repeated calls with the same target a no-op.
func (s *Service) SyncOne(ctx context.Context, productID string, target int) (bool, error) {
	link, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("load product link: %w", err)
	}
	if link == nil {
		s.logger.Warn("no product link, skipping sync", slog.String("product.id", productID))
		return false, nil
	}
	target = flooredAtZero(target)

	current, err := s.storefront.VariantQuantity(ctx, link.ShopifyVariantID)
	if err != nil {
		return false, fmt.Errorf("fetch variant quantity: %w", err)
	}
	if current == target {
		return true, nil
	}

	if err := s.storefront.SetVariantQuantity(ctx, link.ShopifyVariantID, target); err != nil {
		return false, fmt.Errorf("push variant quantity: %w", err)
	}
	if err := s.persistQuantity(ctx, productID, link.CachedQuantity, target); err != nil {
		return false, err
	}
	s.logger.Info("published quantity updated",
		slog.String("product.id", productID),
		slog.Int("from", current),
		slog.Int("to", target))
	return true, nil
}

// persistQuantity writes an absolute target into the cached column through
// a bounded compare-and-swap loop. Absolute targets come from the
// authoritative marketplace count, so converging on a value another writer
// already recorded is success, not a lost update. Relative deltas must go
// through adjustQuantity instead.
func (s *Service) persistQuantity(ctx context.Context, productID string, expected, next int) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		err := s.repo.UpdateQuantityCAS(ctx, productID, expected, next, s.now())
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrStaleQuantity) {
			return fmt.Errorf("persist cached quantity: %w", err)
		}
		link, readErr := s.repo.GetByProductID(ctx, productID)
		if readErr != nil {
			return fmt.Errorf("re-read product link: %w", readErr)
		}
		if link == nil {
			return fmt.Errorf("product link %s disappeared during update", productID)
		}
		if link.CachedQuantity == next {
			return nil
		}
		expected = link.CachedQuantity
	}
	return fmt.Errorf("persist cached quantity for %s: %w", productID, ports.ErrStaleQuantity)
}

// SyncBatch applies SyncOne per target, isolating each failure.
func (s *Service) SyncBatch(ctx context.Context, targets []ports.QuantityTarget) *ports.BatchResult {
	result := &ports.BatchResult{Details: make([]ports.BatchDetail, 0, len(targets))}
	for _, target := range targets {
		synced, err := s.SyncOne(ctx, target.ProductID, target.Quantity)
		detail := ports.BatchDetail{ProductID: target.ProductID, Synced: synced && err == nil}
		if err != nil {
			detail.Error = err.Error()
			result.Failed++
		} else {
			result.Success++
		}
		result.Details = append(result.Details, detail)
	}
	return result
}

// CheckAndSync fetches the authoritative marketplace quantity and aligns
// the published one. On fetch failure it returns QuantityUnknown, never 0,
// so callers can tell "unknown" from "confirmed zero stock".
func (s *Service) CheckAndSync(ctx context.Context, productID string) (int, error) {
	quantity, err := s.marketplace.ProductQuantity(ctx, productID)
	if err != nil {
		s.logger.Warn("authoritative quantity fetch failed",
			slog.String("product.id", productID),
			slog.String("error", err.Error()))
		return ports.QuantityUnknown, fmt.Errorf("fetch marketplace quantity: %w", err)
	}
	if _, err := s.SyncOne(ctx, productID, quantity); err != nil {
		return quantity, err
	}
	return quantity, nil
}

// LowStockScan lists SYNCED products at or below the threshold.
func (s *Service) LowStockScan(ctx context.Context, threshold int) ([]ports.QuantityTarget, error) {
	links, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	items := make([]ports.QuantityTarget, 0, len(links))
	for _, link := range links {
		items = append(items, ports.QuantityTarget{ProductID: link.ProductID, Quantity: link.CachedQuantity})
	}
	return items, nil
}

// FullSync runs CheckAndSync over up to cap SYNCED links, throttling to
// respect the upstream rate limit. Unknown quantities count as skipped and
// are excluded from the low-stock list.
func (s *Service) FullSync(ctx context.Context, cap int) (*ports.FullSyncResult, error) {
	links, err := s.repo.ListSynced(ctx, cap)
	if err != nil {
		return nil, fmt.Errorf("list synced links: %w", err)
	}
	result := &ports.FullSyncResult{Total: len(links)}
	for _, link := range links {
		quantity, err := s.CheckAndSync(ctx, link.ProductID)
		switch {
		case quantity == ports.QuantityUnknown:
			result.Skipped++
			continue
		case err != nil:
			result.Failed++
			continue
		}
		result.Synced++
		if quantity <= s.settings.LowStockThreshold {
			result.LowStock = append(result.LowStock, ports.QuantityTarget{ProductID: link.ProductID, Quantity: quantity})
		}
		if s.settings.ThrottleEvery > 0 && result.Synced%s.settings.ThrottleEvery == 0 {
			s.sleep(s.settings.ThrottlePause)
		}
	}
	if len(result.LowStock) > 0 && s.notifier != nil {
		s.notifier.Warn(ctx, fmt.Sprintf("%d product(s) at or below stock threshold %d", len(result.LowStock), s.settings.LowStockThreshold))
	}
	s.logger.Info("inventory full sync finished",
		slog.Int("total", result.Total),
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("low_stock", len(result.LowStock)))
	return result, nil
}

// ApplyOrderPlaced decrements published quantities for the ordered lines,
// floored at zero.
func (s *Service) ApplyOrderPlaced(ctx context.Context, lines []ports.OrderLine) *ports.BatchResult {
	return s.applyDelta(ctx, lines, -1)
}

// ApplyOrderCancelled restores published quantities for cancelled lines.
func (s *Service) ApplyOrderCancelled(ctx context.Context, lines []ports.OrderLine) *ports.BatchResult {
	return s.applyDelta(ctx, lines, 1)
}

func (s *Service) applyDelta(ctx context.Context, lines []ports.OrderLine, sign int) *ports.BatchResult {
	result := &ports.BatchResult{Details: make([]ports.BatchDetail, 0, len(lines))}
	for _, line := range lines {
		synced, err := s.adjustQuantity(ctx, line.ProductID, sign*line.Quantity)
		detail := ports.BatchDetail{ProductID: line.ProductID, Synced: synced && err == nil}
		if err != nil {
			detail.Error = err.Error()
			result.Failed++
		} else {
			result.Success++
		}
		result.Details = append(result.Details, detail)
	}
	return result
}

// adjustQuantity applies a relative delta to a product's quantity. The
// cached column is the serialization point: the conditional update must win
// before anything is pushed, and on a lost race the delta is recomputed
// from the value the concurrent writer left, so interleaved decrements and
// restores all land.
func (s *Service) adjustQuantity(ctx context.Context, productID string, delta int) (bool, error) {
	link, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("load product link: %w", err)
	}
	if link == nil {
		s.logger.Warn("no product link, skipping quantity adjustment", slog.String("product.id", productID))
		return false, nil
	}

	expected := link.CachedQuantity
	// The first base prefers the authoritative marketplace count; the cache
	// stands in when the marketplace is unreachable.
	base := expected
	if quantity, err := s.marketplace.ProductQuantity(ctx, productID); err == nil {
		base = quantity
	}
	next := flooredAtZero(base + delta)

	for attempt := 0; attempt < casAttempts; attempt++ {
		err := s.repo.UpdateQuantityCAS(ctx, productID, expected, next, s.now())
		if err == nil {
			if pushErr := s.storefront.SetVariantQuantity(ctx, link.ShopifyVariantID, next); pushErr != nil {
				return false, fmt.Errorf("push variant quantity: %w", pushErr)
			}
			s.logger.Info("quantity adjusted",
				slog.String("product.id", productID),
				slog.Int("delta", delta),
				slog.Int("quantity", next))
			return true, nil
		}
		if !errors.Is(err, ports.ErrStaleQuantity) {
			return false, fmt.Errorf("persist cached quantity: %w", err)
		}
		fresh, readErr := s.repo.GetByProductID(ctx, productID)
		if readErr != nil {
			return false, fmt.Errorf("re-read product link: %w", readErr)
		}
		if fresh == nil {
			return false, fmt.Errorf("product link %s disappeared during update", productID)
		}
		expected = fresh.CachedQuantity
		next = flooredAtZero(expected + delta)
	}
	return false, fmt.Errorf("adjust quantity for %s: %w", productID, ports.ErrStaleQuantity)
}

func flooredAtZero(quantity int) int {
	if quantity < 0 {
		return 0
	}
	return quantity
}

var _ ports.Service = (*Service)(nil)

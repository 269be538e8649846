package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ordersdomain "github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

// MaxWindow is the widest status window Bunjang accepts.
const MaxWindow = 15 * 24 * time.Hour

// DefaultPageSize matches the Bunjang order listing page cap.
const DefaultPageSize = 100

var (
	// ErrWindowTooWide rejects ranges beyond the marketplace API limit.
	ErrWindowTooWide = errors.New("status window exceeds 15 days")
	// ErrWindowInverted rejects ranges that end before they start.
	ErrWindowInverted = errors.New("status window end precedes start")
)

// LookbackWindow returns the [start, end] range covering the last days*24h
// ending at now, clamped to MaxWindow. It works in UTC durations, never
// calendar days, so a DST transition inside the range cannot widen it past
// the marketplace limit.
func LookbackWindow(now time.Time, days int) (time.Time, time.Time) {
	span := time.Duration(days) * 24 * time.Hour
	if span <= 0 || span > MaxWindow {
		span = MaxWindow
	}
	end := now.UTC()
	return end.Add(-span), end
}

// Service pulls marketplace status changes over a bounded window and
// propagates them onto the matching external orders.
type Service struct {
	marketplace ports.MarketplaceOrders
	locator     ports.OrderLocator
	annotator   ports.OrderAnnotator
	fulfillment ports.FulfillmentUpdater
	runs        ports.RunStore
	pageSize    int
	logger      *slog.Logger
	now         func() time.Time
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

// WithPageSize overrides the listing page size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
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

// NewService wires the reconciliation service with its dependencies.
// runs may be nil when audit persistence is unavailable.
func NewService(
	marketplace ports.MarketplaceOrders,
	locator ports.OrderLocator,
	annotator ports.OrderAnnotator,
	fulfillment ports.FulfillmentUpdater,
	runs ports.RunStore,
	opts ...Option,
) *Service {
	s := &Service{
		marketplace: marketplace,
		locator:     locator,
		annotator:   annotator,
		fulfillment: fulfillment,
		runs:        runs,
		pageSize:    DefaultPageSize,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SyncStatuses walks every marketplace order whose status changed inside
// [start, end]. A failure on one order is counted and skipped; a failure to
// fetch a page fails the whole run.
func (s *Service) SyncStatuses(ctx context.Context, start, end time.Time) (*ports.SyncResult, error) {
	if end.Before(start) {
		return nil, ErrWindowInverted
	}
	if end.Sub(start) > MaxWindow {
		return nil, ErrWindowTooWide
	}

	startedAt := s.now()
	result := &ports.SyncResult{}
	var failedIDs []string

	for page := 0; ; page++ {
		listing, err := s.marketplace.ListOrders(ctx, start, end, page, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list marketplace orders (page %d): %w", page, err)
		}
		for _, order := range listing.Orders {
			handled, err := s.syncOrder(ctx, order)
			if err != nil {
				s.logger.Error("order status sync failed",
					slog.String("marketplace.order.id", order.ID),
					slog.String("error", err.Error()))
				result.Errors++
				failedIDs = append(failedIDs, order.ID)
				continue
			}
			if handled {
				result.Synced++
			}
		}
		if !listing.HasNext {
			break
		}
	}

	s.saveRun(ctx, start, end, startedAt, result, failedIDs)
	return result, nil
}

// syncOrder returns handled=false for legitimate misses (no matching
// external order), which count as neither synced nor errored.
func (s *Service) syncOrder(ctx context.Context, order ports.MarketplaceOrder) (bool, error) {
	externalOrderID, err := s.locator.LocateExternalOrder(ctx, order.ID)
	if err != nil {
		return false, fmt.Errorf("locate external order: %w", err)
	}
	if externalOrderID == 0 {
		s.logger.Info("no external order for marketplace order, skipping",
			slog.String("marketplace.order.id", order.ID))
		return false, nil
	}

	for _, item := range order.Items {
		if err := s.applyItemStatus(ctx, externalOrderID, order.ID, item); err != nil {
			return false, err
		}
	}

	// Audit stamp happens even when no status branch applied.
	stamp := []ordersdomain.Metafield{
		{Namespace: ordersdomain.MetafieldNamespace, Key: "last_synced_at", Value: s.now().UTC().Format(time.RFC3339), Type: "date_time"},
		{Namespace: ordersdomain.MetafieldNamespace, Key: "last_status", Value: order.Status, Type: "single_line_text_field"},
	}
	if err := s.annotator.SetOrderMetafields(ctx, externalOrderID, stamp); err != nil {
		return false, fmt.Errorf("stamp sync metafields: %w", err)
	}
	return true, nil
}

func (s *Service) applyItemStatus(ctx context.Context, externalOrderID int64, marketplaceOrderID string, item ports.MarketplaceOrderItem) error {
	switch item.Status {
	case ports.StatusShipReady, ports.StatusInTransit, ports.StatusDelivered:
		if err := s.fulfillment.UpdateFulfillment(ctx, externalOrderID, item.Status); err != nil {
			return fmt.Errorf("update fulfillment: %w", err)
		}
	case ports.StatusPurchaseConfirmed:
		fields := []ordersdomain.Metafield{
			{Namespace: ordersdomain.MetafieldNamespace, Key: "purchase_confirmed", Value: "true", Type: "boolean"},
			{Namespace: ordersdomain.MetafieldNamespace, Key: "purchase_confirmed_at", Value: s.now().UTC().Format(time.RFC3339), Type: "date_time"},
		}
		if err := s.annotator.SetOrderMetafields(ctx, externalOrderID, fields); err != nil {
			return fmt.Errorf("record purchase confirmation: %w", err)
		}
	case ports.StatusCancelRequested, ports.StatusRefunded, ports.StatusReturnRequested, ports.StatusReturned:
		tag := fmt.Sprintf("Bunjang-%s", item.Status)
		if err := s.annotator.AddOrderTags(ctx, externalOrderID, []string{tag}); err != nil {
			return fmt.Errorf("tag order status: %w", err)
		}
	default:
		s.logger.Info("unhandled marketplace item status",
			slog.String("marketplace.order.id", marketplaceOrderID),
			slog.String("status", item.Status))
	}
	return nil
}

func (s *Service) saveRun(ctx context.Context, start, end, startedAt time.Time, result *ports.SyncResult, failedIDs []string) {
	if s.runs == nil {
		return
	}
	run := ports.SyncRun{
		ID:             uuid.NewString(),
		WindowStart:    start,
		WindowEnd:      end,
		Synced:         result.Synced,
		Errors:         result.Errors,
		FailedOrderIDs: failedIDs,
		StartedAt:      startedAt,
		FinishedAt:     s.now(),
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		s.logger.Error("failed to persist sync run", slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)

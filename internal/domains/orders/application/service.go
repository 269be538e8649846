package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

// BalanceThresholds configure the post-purchase balance check.
type BalanceThresholds struct {
	Low      decimal.Decimal
	Critical decimal.Decimal
}

// DefaultBalanceThresholds returns the stock 1,000,000 / 500,000 limits.
func DefaultBalanceThresholds() BalanceThresholds {
	return BalanceThresholds{
		Low:      decimal.NewFromInt(1_000_000),
		Critical: decimal.NewFromInt(500_000),
	}
}

// Service orchestrates cross-platform order creation with per-item failure
// isolation.
type Service struct {
	links       ports.LinkStore
	marketplace ports.Marketplace
	storefront  ports.Storefront
	mapper      ports.PayloadMapper
	notifier    ports.Notifier
	thresholds  BalanceThresholds
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

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(
	links ports.LinkStore,
	marketplace ports.Marketplace,
	storefront ports.Storefront,
	mapper ports.PayloadMapper,
	notifier ports.Notifier,
	thresholds BalanceThresholds,
	opts ...Option,
) *Service {
	s := &Service{
		links:       links,
		marketplace: marketplace,
		storefront:  storefront,
		mapper:      mapper,
		notifier:    notifier,
		thresholds:  thresholds,
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

// ProcessOrder converts an external order into zero or more marketplace
// orders. Validation failures abort the call; every other failure is scoped
// to its line item and recorded as a tag on the order.
func (s *Service) ProcessOrder(ctx context.Context, order domain.ExternalOrder) (*ports.ProcessOrderResult, error) {
	if err := order.Validate(); err != nil {
		return nil, mapError(err)
	}

	var (
		created []string
		linked  int
	)
	for _, item := range order.Items {
		productID, ok := item.LinkedProductID()
		if !ok {
			continue
		}
		linked++
		marketplaceOrderID, err := s.processItem(ctx, order, item, productID)
		if err != nil {
			s.logger.Error("line item processing failed",
				slog.Int64("order.id", order.ID),
				slog.String("product.id", productID),
				slog.String("error", err.Error()))
			s.tag(ctx, order.ID, domain.ItemTag(productID, domain.ReasonException))
			continue
		}
		if marketplaceOrderID != "" {
			created = append(created, marketplaceOrderID)
		}
	}

	result := &ports.ProcessOrderResult{
		Succeeded:       len(created) > 0,
		CreatedOrderIDs: created,
		Message:         fmt.Sprintf("created %d marketplace order(s) for %d linked item(s)", len(created), linked),
	}
	return result, nil
}

// processItem runs the per-item pipeline. It returns the marketplace order
// id on success, an empty id when the item was skipped or rejected (already
// tagged), and an error only for unexpected failures.
func (s *Service) processItem(ctx context.Context, order domain.ExternalOrder, item domain.LineItem, productID string) (string, error) {
	reserveErr := s.links.Reserve(ctx, ports.OrderLink{
		ExternalOrderID: order.ID,
		LineItemID:      item.ID,
		ProductID:       productID,
		CreatedAt:       s.now(),
	})
	if errors.Is(reserveErr, ports.ErrDuplicateLink) {
		s.logger.Info("line item already processed, skipping",
			slog.Int64("order.id", order.ID),
			slog.Int64("item.id", item.ID),
			slog.String("product.id", productID))
		return "", nil
	}
	if reserveErr != nil {
		return "", fmt.Errorf("reserve order link: %w", reserveErr)
	}

	detail, err := s.marketplace.GetProduct(ctx, productID)
	if err != nil || detail == nil {
		if err != nil && !errors.Is(err, ports.ErrProductNotFound) {
			s.logger.Warn("product detail fetch failed",
				slog.String("product.id", productID),
				slog.String("error", err.Error()))
		}
		s.tag(ctx, order.ID, domain.ItemTag(productID, domain.ReasonNotFound))
		return "", nil
	}

	payload := s.mapper.Map(item, *detail)
	if payload == nil {
		s.tag(ctx, order.ID, domain.ItemTag(productID, domain.ReasonMappingFailed))
		return "", nil
	}
	// Fixed business rule: delivery is always submitted free. The actual
	// shipping fee is kept in metafields for out-of-band billing.
	actualFee := payload.DeliveryPrice
	payload.DeliveryPrice = decimal.Zero

	marketplaceOrderID, err := s.marketplace.CreateOrder(ctx, *payload)
	if err != nil {
		var rejected *ports.OrderRejectedError
		if errors.As(err, &rejected) {
			s.handleRejection(ctx, order.ID, productID, rejected)
			return "", nil
		}
		return "", fmt.Errorf("create marketplace order: %w", err)
	}

	if err := s.links.Complete(ctx, order.ID, item.ID, marketplaceOrderID); err != nil {
		s.logger.Error("failed to finalize order link",
			slog.Int64("order.id", order.ID),
			slog.String("marketplace.order.id", marketplaceOrderID),
			slog.String("error", err.Error()))
	}
	s.recordSuccess(ctx, order, productID, marketplaceOrderID, payload.Price, actualFee)
	s.checkBalance(ctx, order.ID)
	return marketplaceOrderID, nil
}

func (s *Service) recordSuccess(ctx context.Context, order domain.ExternalOrder, productID, marketplaceOrderID string, price, actualFee decimal.Decimal) {
	tags := []string{
		domain.TagOrderPlaced,
		domain.OrderTag(order.ID),
		domain.MarketplaceOrderTag(marketplaceOrderID),
	}
	if err := s.storefront.AddOrderTags(ctx, order.ID, tags); err != nil {
		s.logger.Error("failed to tag order",
			slog.Int64("order.id", order.ID),
			slog.String("error", err.Error()))
	}
	fields := []domain.Metafield{
		metafield("order_id", marketplaceOrderID, "single_line_text_field"),
		metafield("ordered_product_id", productID, "single_line_text_field"),
		metafield("item_price", price.String(), "number_decimal"),
		metafield("delivery_fee_submitted", decimal.Zero.String(), "number_decimal"),
		metafield("delivery_fee_actual", actualFee.String(), "number_decimal"),
	}
	if err := s.storefront.SetOrderMetafields(ctx, order.ID, fields); err != nil {
		s.logger.Error("failed to write order metafields",
			slog.Int64("order.id", order.ID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) handleRejection(ctx context.Context, orderID int64, productID string, rejected *ports.OrderRejectedError) {
	tag := domain.FailureTag(productID, rejected.Code)
	s.tag(ctx, orderID, tag)
	if rejected.Code == domain.CodeInsufficientPoints {
		msg := fmt.Sprintf("marketplace balance exhausted while purchasing product %s for order %d", productID, orderID)
		s.logger.Error("marketplace order rejected: insufficient balance",
			slog.Int64("order.id", orderID),
			slog.String("product.id", productID))
		if s.notifier != nil {
			s.notifier.Critical(ctx, msg)
		}
		return
	}
	s.logger.Warn("marketplace order rejected",
		slog.Int64("order.id", orderID),
		slog.String("product.id", productID),
		slog.String("code", rejected.Code))
}

// checkBalance tags the order when the purchasing balance dips below the
// configured thresholds. Failures here never fail the item.
func (s *Service) checkBalance(ctx context.Context, orderID int64) {
	balance, err := s.marketplace.Balance(ctx)
	if err != nil {
		s.logger.Warn("balance check failed", slog.String("error", err.Error()))
		return
	}
	switch {
	case balance.LessThan(s.thresholds.Critical):
		s.tag(ctx, orderID, domain.TagBalanceCritical)
		if s.notifier != nil {
			s.notifier.Critical(ctx, fmt.Sprintf("marketplace balance critically low: %s", balance.String()))
		}
	case balance.LessThan(s.thresholds.Low):
		s.tag(ctx, orderID, domain.TagBalanceLow)
		if s.notifier != nil {
			s.notifier.Warn(ctx, fmt.Sprintf("marketplace balance low: %s", balance.String()))
		}
	}
}

func (s *Service) tag(ctx context.Context, orderID int64, tags ...string) {
	trimmed := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return
	}
	if err := s.storefront.AddOrderTags(ctx, orderID, trimmed); err != nil {
		s.logger.Error("failed to tag order",
			slog.Int64("order.id", orderID),
			slog.String("error", err.Error()))
	}
}

func metafield(key, value, fieldType string) domain.Metafield {
	return domain.Metafield{
		Namespace: domain.MetafieldNamespace,
		Key:       key,
		Value:     value,
		Type:      fieldType,
	}
}

var _ ports.Service = (*Service)(nil)

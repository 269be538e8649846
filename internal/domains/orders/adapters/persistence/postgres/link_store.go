package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

var _ ports.LinkStore = (*LinkStore)(nil)

// LinkStore persists order links in PostgreSQL. The uniqueness constraint
// on (external_order_id, line_item_id) is the idempotency barrier against
// redelivered jobs.
type LinkStore struct {
	db *gorm.DB
}

// NewLinkStore wires a PostgreSQL-backed link store.
func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db}
}

type orderLinkRecord struct {
	ExternalOrderID    int64     `gorm:"primaryKey;column:external_order_id;autoIncrement:false"`
	LineItemID         int64     `gorm:"primaryKey;column:line_item_id;autoIncrement:false"`
	ProductID          string    `gorm:"column:product_id;size:64;index"`
	MarketplaceOrderID string    `gorm:"column:marketplace_order_id;size:64;index"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (orderLinkRecord) TableName() string { return "order_links" }

// Reserve inserts the link, mapping a duplicate key onto ErrDuplicateLink.
func (s *LinkStore) Reserve(ctx context.Context, link ports.OrderLink) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := orderLinkRecord{
		ExternalOrderID:    link.ExternalOrderID,
		LineItemID:         link.LineItemID,
		ProductID:          link.ProductID,
		MarketplaceOrderID: link.MarketplaceOrderID,
		CreatedAt:          link.CreatedAt,
		UpdatedAt:          link.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrDuplicateLink
		}
		return err
	}
	return nil
}

// Complete records the marketplace order id on a reserved link.
func (s *LinkStore) Complete(ctx context.Context, externalOrderID, lineItemID int64, marketplaceOrderID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&orderLinkRecord{}).
		Where("external_order_id = ? AND line_item_id = ?", externalOrderID, lineItemID).
		Updates(map[string]any{
			"marketplace_order_id": marketplaceOrderID,
			"updated_at":           gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("order link not reserved")
	}
	return nil
}

// FindByMarketplaceOrderID returns the link for a Bunjang order id, or nil.
func (s *LinkStore) FindByMarketplaceOrderID(ctx context.Context, marketplaceOrderID string) (*ports.OrderLink, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record orderLinkRecord
	err := s.db.WithContext(ctx).First(&record, "marketplace_order_id = ?", marketplaceOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.toPort(), nil
}

// ListByExternalOrder returns every link recorded for an order.
func (s *LinkStore) ListByExternalOrder(ctx context.Context, externalOrderID int64) ([]ports.OrderLink, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderLinkRecord
	if err := s.db.WithContext(ctx).Order("line_item_id").Find(&records, "external_order_id = ?", externalOrderID).Error; err != nil {
		return nil, err
	}
	links := make([]ports.OrderLink, 0, len(records))
	for i := range records {
		links = append(links, *records[i].toPort())
	}
	return links, nil
}

func (s *LinkStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres link store not configured")
	}
	return nil
}

func (r *orderLinkRecord) toPort() *ports.OrderLink {
	return &ports.OrderLink{
		ExternalOrderID:    r.ExternalOrderID,
		LineItemID:         r.LineItemID,
		ProductID:          r.ProductID,
		MarketplaceOrderID: r.MarketplaceOrderID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

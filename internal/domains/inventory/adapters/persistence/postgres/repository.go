package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-order-bridge/internal/domains/inventory/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

var _ ports.ProductLinkRepository = (*Repository)(nil)

// Repository persists product links in PostgreSQL. Quantity writes use a
// conditional UPDATE keyed on the previously read quantity so concurrent
// decrements cannot overwrite each other.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed product link repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productLinkRecord struct {
	ProductID        string     `gorm:"primaryKey;column:product_id;size:64"`
	ShopifyProductID int64      `gorm:"column:shopify_product_id;index"`
	ShopifyVariantID int64      `gorm:"column:shopify_variant_id"`
	CachedQuantity   int        `gorm:"column:cached_quantity"`
	Status           string     `gorm:"column:status;type:varchar(32);index"`
	LastSyncedAt     time.Time  `gorm:"column:last_synced_at"`
	LastCheckedAt    time.Time  `gorm:"column:last_checked_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (productLinkRecord) TableName() string { return "product_links" }

// GetByProductID returns the link or nil when the product is unknown.
func (r *Repository) GetByProductID(ctx context.Context, productID string) (*domain.ProductLink, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productLinkRecord
	if err := r.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainLink(&record), nil
}

// UpdateQuantityCAS sets the cached quantity iff it still equals expected.
func (r *Repository) UpdateQuantityCAS(ctx context.Context, productID string, expected, next int, at time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&productLinkRecord{}).
		Where("product_id = ? AND cached_quantity = ?", productID, expected).
		Updates(map[string]any{
			"cached_quantity": next,
			"last_synced_at":  at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&productLinkRecord{}).
			Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errors.New("product link not found")
		}
		return ports.ErrStaleQuantity
	}
	return nil
}

// ListSynced returns up to limit links with SYNCED status.
func (r *Repository) ListSynced(ctx context.Context, limit int) ([]domain.ProductLink, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Where("status = ?", string(domain.StatusSynced)).Order("product_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []productLinkRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainLinks(records), nil
}

// ListLowStock returns SYNCED links with 0 <= quantity <= threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]domain.ProductLink, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productLinkRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND cached_quantity >= 0 AND cached_quantity <= ?", string(domain.StatusSynced), threshold).
		Order("cached_quantity").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainLinks(records), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product link repository not configured")
	}
	return nil
}

func toDomainLink(rec *productLinkRecord) *domain.ProductLink {
	if rec == nil {
		return nil
	}
	return &domain.ProductLink{
		ProductID:        rec.ProductID,
		ShopifyProductID: rec.ShopifyProductID,
		ShopifyVariantID: rec.ShopifyVariantID,
		CachedQuantity:   rec.CachedQuantity,
		Status:           domain.SyncStatus(rec.Status),
		LastSyncedAt:     rec.LastSyncedAt,
		LastCheckedAt:    rec.LastCheckedAt,
	}
}

func toDomainLinks(records []productLinkRecord) []domain.ProductLink {
	links := make([]domain.ProductLink, 0, len(records))
	for i := range records {
		links = append(links, *toDomainLink(&records[i]))
	}
	return links
}

package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderLinkRecord{},
		&productLinkRecord{},
		&syncRunRecord{},
	)
}

// Order link schema mirrors the orders Postgres adapter.
type orderLinkRecord struct {
	ExternalOrderID    int64     `gorm:"primaryKey;column:external_order_id;autoIncrement:false"`
	LineItemID         int64     `gorm:"primaryKey;column:line_item_id;autoIncrement:false"`
	ProductID          string    `gorm:"column:product_id;size:64;index"`
	MarketplaceOrderID string    `gorm:"column:marketplace_order_id;size:64;index"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (orderLinkRecord) TableName() string { return "order_links" }

// Product link schema mirrors the inventory Postgres adapter.
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

// Sync run schema mirrors the reconciliation Postgres adapter.
type syncRunRecord struct {
	ID             string         `gorm:"primaryKey;column:id;size:64"`
	WindowStart    time.Time      `gorm:"column:window_start;index"`
	WindowEnd      time.Time      `gorm:"column:window_end"`
	Synced         int            `gorm:"column:synced"`
	Errors         int            `gorm:"column:errors"`
	FailedOrderIDs pq.StringArray `gorm:"column:failed_order_ids;type:text[]"`
	StartedAt      time.Time      `gorm:"column:started_at;index"`
	FinishedAt     time.Time      `gorm:"column:finished_at"`
}

func (syncRunRecord) TableName() string { return "sync_runs" }

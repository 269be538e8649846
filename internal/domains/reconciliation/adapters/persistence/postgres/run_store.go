package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

var _ ports.RunStore = (*RunStore)(nil)

// RunStore persists reconciliation run audit records in PostgreSQL.
type RunStore struct {
	db *gorm.DB
}

// NewRunStore wires a PostgreSQL-backed run store.
func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

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

// SaveRun inserts the run record.
func (s *RunStore) SaveRun(ctx context.Context, run ports.SyncRun) error {
	if s == nil || s.db == nil {
		return errors.New("postgres run store not configured")
	}
	record := syncRunRecord{
		ID:             run.ID,
		WindowStart:    run.WindowStart,
		WindowEnd:      run.WindowEnd,
		Synced:         run.Synced,
		Errors:         run.Errors,
		FailedOrderIDs: pq.StringArray(run.FailedOrderIDs),
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

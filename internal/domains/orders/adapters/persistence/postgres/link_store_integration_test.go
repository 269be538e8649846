//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	"github.com/Apurer/go-order-bridge/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orderbridge_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestLinkStore_ReserveAndComplete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewLinkStore(db)
	ctx := context.Background()

	link := ports.OrderLink{
		ExternalOrderID: 4567,
		LineItemID:      1,
		ProductID:       "12345",
	}
	require.NoError(t, store.Reserve(ctx, link))

	// Redelivery of the same line item hits the unique constraint.
	err := store.Reserve(ctx, link)
	assert.ErrorIs(t, err, ports.ErrDuplicateLink)

	require.NoError(t, store.Complete(ctx, 4567, 1, "bj-order-1"))

	found, err := store.FindByMarketplaceOrderID(ctx, "bj-order-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(4567), found.ExternalOrderID)
	assert.Equal(t, int64(1), found.LineItemID)
	assert.Equal(t, "12345", found.ProductID)
	assert.Equal(t, "bj-order-1", found.MarketplaceOrderID)
}

func TestLinkStore_CompleteRequiresReservation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewLinkStore(db)
	err := store.Complete(context.Background(), 999, 1, "bj-order-9")
	assert.Error(t, err)
}

func TestLinkStore_SameOrderDifferentItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewLinkStore(db)
	ctx := context.Background()

	// Two line items on one order are distinct reservations.
	require.NoError(t, store.Reserve(ctx, ports.OrderLink{ExternalOrderID: 4567, LineItemID: 1, ProductID: "111"}))
	require.NoError(t, store.Reserve(ctx, ports.OrderLink{ExternalOrderID: 4567, LineItemID: 2, ProductID: "222"}))
	require.NoError(t, store.Complete(ctx, 4567, 2, "bj-order-2"))

	links, err := store.ListByExternalOrder(ctx, 4567)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Empty(t, links[0].MarketplaceOrderID)
	assert.Equal(t, "bj-order-2", links[1].MarketplaceOrderID)
}

func TestLinkStore_FindUnknownMarketplaceOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	store := NewLinkStore(db)
	found, err := store.FindByMarketplaceOrderID(context.Background(), "bj-order-missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

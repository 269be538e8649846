package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	invmemory "github.com/Apurer/go-order-bridge/internal/domains/inventory/adapters/memory"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/inventory/ports"
)

type fakeStorefront struct {
	quantities map[int64]int
	pushes     []int
	getErr     error
	setErr     error
}

func newFakeStorefront() *fakeStorefront {
	return &fakeStorefront{quantities: map[int64]int{}}
}

func (f *fakeStorefront) VariantQuantity(_ context.Context, variantID int64) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.quantities[variantID], nil
}

func (f *fakeStorefront) SetVariantQuantity(_ context.Context, variantID int64, quantity int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.quantities[variantID] = quantity
	f.pushes = append(f.pushes, quantity)
	return nil
}

type fakeCatalog struct {
	quantities map[string]int
	errs       map[string]error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{quantities: map[string]int{}, errs: map[string]error{}}
}

func (f *fakeCatalog) ProductQuantity(_ context.Context, productID string) (int, error) {
	if err, ok := f.errs[productID]; ok {
		return 0, err
	}
	quantity, ok := f.quantities[productID]
	if !ok {
		return 0, errors.New("unknown product")
	}
	return quantity, nil
}

type countingNotifier struct {
	warnings  []string
	criticals []string
}

func (n *countingNotifier) Warn(_ context.Context, message string)     { n.warnings = append(n.warnings, message) }
func (n *countingNotifier) Critical(_ context.Context, message string) { n.criticals = append(n.criticals, message) }

func syncedLink(productID string, variantID int64, quantity int) domain.ProductLink {
	return domain.ProductLink{
		ProductID:        productID,
		ShopifyProductID: variantID * 10,
		ShopifyVariantID: variantID,
		CachedQuantity:   quantity,
		Status:           domain.StatusSynced,
	}
}

func newInventoryService(repo *invmemory.Repository, storefront *fakeStorefront, catalog *fakeCatalog, notifier *countingNotifier) *Service {
	return NewService(repo, storefront, catalog, notifier, DefaultSettings(), WithSleeper(func(time.Duration) {}))
}

func TestSyncOne_PushesAndPersists(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 5))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 5
	svc := newInventoryService(repo, storefront, newFakeCatalog(), &countingNotifier{})

	ok, err := svc.SyncOne(context.Background(), "100", 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, storefront.quantities[1])

	link, err := repo.GetByProductID(context.Background(), "100")
	require.NoError(t, err)
	require.Equal(t, 2, link.CachedQuantity)
}

func TestSyncOne_NoOpWhenAligned(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 3))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 3
	svc := newInventoryService(repo, storefront, newFakeCatalog(), &countingNotifier{})

	ok, err := svc.SyncOne(context.Background(), "100", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, storefront.pushes)
}

func TestSyncOne_UnknownProductSkips(t *testing.T) {
	svc := newInventoryService(invmemory.NewRepository(), newFakeStorefront(), newFakeCatalog(), &countingNotifier{})

	ok, err := svc.SyncOne(context.Background(), "missing", 4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSyncOne_NegativeTargetFloorsAtZero(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 2))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 2
	svc := newInventoryService(repo, storefront, newFakeCatalog(), &countingNotifier{})

	ok, err := svc.SyncOne(context.Background(), "100", -7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, storefront.quantities[1])
}

func TestCheckAndSync_FetchFailureReturnsUnknown(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 2))
	catalog := newFakeCatalog()
	catalog.errs["100"] = errors.New("upstream timeout")
	svc := newInventoryService(repo, newFakeStorefront(), catalog, &countingNotifier{})

	quantity, err := svc.CheckAndSync(context.Background(), "100")
	require.Error(t, err)
	// Unknown must never read as a confirmed zero.
	require.Equal(t, ports.QuantityUnknown, quantity)
}

func TestCheckAndSync_ZeroIsConfirmed(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 2))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 2
	catalog := newFakeCatalog()
	catalog.quantities["100"] = 0
	svc := newInventoryService(repo, storefront, catalog, &countingNotifier{})

	quantity, err := svc.CheckAndSync(context.Background(), "100")
	require.NoError(t, err)
	require.Equal(t, 0, quantity)
	require.Equal(t, 0, storefront.quantities[1])
}

func TestFullSync_SkipsUnknownAndReportsLowStock(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("a", 1, 9))
	repo.Seed(syncedLink("b", 2, 9))
	repo.Seed(syncedLink("c", 3, 9))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 9
	storefront.quantities[2] = 9
	storefront.quantities[3] = 9
	catalog := newFakeCatalog()
	catalog.quantities["a"] = 12
	catalog.errs["b"] = errors.New("fetch failed")
	catalog.quantities["c"] = 2
	notifier := &countingNotifier{}
	svc := newInventoryService(repo, storefront, catalog, notifier)

	result, err := svc.FullSync(context.Background(), 1000)
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 2, result.Synced)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 0, result.Failed)
	// Only the confirmed low quantity appears; the unknown one is excluded.
	require.Len(t, result.LowStock, 1)
	require.Equal(t, "c", result.LowStock[0].ProductID)
	require.Len(t, notifier.warnings, 1)
}

func TestFullSync_RespectsCap(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("a", 1, 1))
	repo.Seed(syncedLink("b", 2, 1))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 1
	storefront.quantities[2] = 1
	catalog := newFakeCatalog()
	catalog.quantities["a"] = 1
	catalog.quantities["b"] = 1
	svc := newInventoryService(repo, storefront, catalog, &countingNotifier{})

	result, err := svc.FullSync(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
}

func TestApplyOrderPlaced_DecrementsFlooredAtZero(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 1))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 1
	catalog := newFakeCatalog()
	catalog.quantities["100"] = 1
	svc := newInventoryService(repo, storefront, catalog, &countingNotifier{})

	result := svc.ApplyOrderPlaced(context.Background(), []ports.OrderLine{{ProductID: "100", Quantity: 3}})
	require.Equal(t, 1, result.Success)
	require.Equal(t, 0, storefront.quantities[1])
}

func TestApplyOrderCancelled_RestoresQuantity(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 0))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 0
	catalog := newFakeCatalog()
	catalog.quantities["100"] = 0
	svc := newInventoryService(repo, storefront, catalog, &countingNotifier{})

	result := svc.ApplyOrderCancelled(context.Background(), []ports.OrderLine{{ProductID: "100", Quantity: 2}})
	require.Equal(t, 1, result.Success)
	require.Equal(t, 2, storefront.quantities[1])
}

func TestApplyDelta_FallsBackToCacheWhenMarketplaceDown(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 4))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 4
	catalog := newFakeCatalog()
	catalog.errs["100"] = errors.New("marketplace down")
	svc := newInventoryService(repo, storefront, catalog, &countingNotifier{})

	result := svc.ApplyOrderPlaced(context.Background(), []ports.OrderLine{{ProductID: "100", Quantity: 1}})
	require.Equal(t, 1, result.Success)
	require.Equal(t, 3, storefront.quantities[1])
}

// interposingCatalog runs a callback the first time a product's quantity is
// fetched, to interleave a concurrent writer mid-call.
type interposingCatalog struct {
	inner    *fakeCatalog
	onFetch  func()
	fetched  bool
	targetID string
}

func (c *interposingCatalog) ProductQuantity(ctx context.Context, productID string) (int, error) {
	if productID == c.targetID && !c.fetched {
		c.fetched = true
		c.onFetch()
	}
	return c.inner.ProductQuantity(ctx, productID)
}

func TestApplyOrderPlaced_ConcurrentDecrementKeepsBothDeltas(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("100", 1, 5))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 5
	catalog := newFakeCatalog()
	catalog.quantities["100"] = 5
	notifier := &countingNotifier{}

	var svc *Service
	interposed := &interposingCatalog{inner: catalog, targetID: "100"}
	svc = NewService(repo, storefront, interposed, notifier, DefaultSettings(), WithSleeper(func(time.Duration) {}))
	// A second order for the same product lands between the first call's
	// read and its conditional update.
	interposed.onFetch = func() {
		nested := svc.ApplyOrderPlaced(context.Background(), []ports.OrderLine{{ProductID: "100", Quantity: 1}})
		require.Equal(t, 1, nested.Success)
	}

	result := svc.ApplyOrderPlaced(context.Background(), []ports.OrderLine{{ProductID: "100", Quantity: 1}})
	require.Equal(t, 1, result.Success)

	// Both decrements must land: 5 - 1 - 1 = 3.
	link, err := repo.GetByProductID(context.Background(), "100")
	require.NoError(t, err)
	require.Equal(t, 3, link.CachedQuantity)
	require.Equal(t, 3, storefront.quantities[1])
}

func TestSyncBatch_IsolatesFailures(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("good", 1, 5))
	repo.Seed(syncedLink("bad", 2, 5))
	storefront := newFakeStorefront()
	storefront.quantities[1] = 5
	storefront.quantities[2] = 5
	// The second push fails; the batch keeps going.
	pushed := 0
	failing := &scriptedStorefront{inner: storefront, failAfter: &pushed}
	svc := NewService(repo, failing, newFakeCatalog(), &countingNotifier{}, DefaultSettings())

	result := svc.SyncBatch(context.Background(), []ports.QuantityTarget{
		{ProductID: "good", Quantity: 1},
		{ProductID: "bad", Quantity: 2},
	})
	require.Equal(t, 1, result.Success)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Details, 2)
	require.True(t, result.Details[0].Synced)
	require.False(t, result.Details[1].Synced)
	require.NotEmpty(t, result.Details[1].Error)
}

// scriptedStorefront fails every push after the first one.
type scriptedStorefront struct {
	inner     *fakeStorefront
	failAfter *int
}

func (s *scriptedStorefront) VariantQuantity(ctx context.Context, variantID int64) (int, error) {
	return s.inner.VariantQuantity(ctx, variantID)
}

func (s *scriptedStorefront) SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error {
	if *s.failAfter > 0 {
		return errors.New("push rejected")
	}
	*s.failAfter++
	return s.inner.SetVariantQuantity(ctx, variantID, quantity)
}

func TestLowStockScan(t *testing.T) {
	repo := invmemory.NewRepository()
	repo.Seed(syncedLink("low", 1, 2))
	repo.Seed(syncedLink("ok", 2, 50))
	pending := syncedLink("pending", 3, 1)
	pending.Status = domain.StatusPending
	repo.Seed(pending)
	svc := newInventoryService(repo, newFakeStorefront(), newFakeCatalog(), &countingNotifier{})

	items, err := svc.LowStockScan(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "low", items[0].ProductID)
}

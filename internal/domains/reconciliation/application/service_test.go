package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ordersdomain "github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/reconciliation/ports"
)

type fakeMarketplaceOrders struct {
	pages    []ports.OrdersPage
	pageErr  error
	listings int
}

func (f *fakeMarketplaceOrders) ListOrders(_ context.Context, _, _ time.Time, page, _ int) (*ports.OrdersPage, error) {
	f.listings++
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if page >= len(f.pages) {
		return &ports.OrdersPage{}, nil
	}
	return &f.pages[page], nil
}

type mapLocator struct {
	byID map[string]int64
	err  error
}

func (l *mapLocator) LocateExternalOrder(_ context.Context, marketplaceOrderID string) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	return l.byID[marketplaceOrderID], nil
}

type recordingAnnotator struct {
	tags       map[int64][]string
	metafields map[int64][]ordersdomain.Metafield
}

func newRecordingAnnotator() *recordingAnnotator {
	return &recordingAnnotator{
		tags:       map[int64][]string{},
		metafields: map[int64][]ordersdomain.Metafield{},
	}
}

func (a *recordingAnnotator) AddOrderTags(_ context.Context, orderID int64, tags []string) error {
	a.tags[orderID] = append(a.tags[orderID], tags...)
	return nil
}

func (a *recordingAnnotator) SetOrderMetafields(_ context.Context, orderID int64, fields []ordersdomain.Metafield) error {
	a.metafields[orderID] = append(a.metafields[orderID], fields...)
	return nil
}

type recordingFulfillment struct {
	updates map[int64][]string
	err     error
}

func newRecordingFulfillment() *recordingFulfillment {
	return &recordingFulfillment{updates: map[int64][]string{}}
}

func (f *recordingFulfillment) UpdateFulfillment(_ context.Context, externalOrderID int64, status string) error {
	if f.err != nil {
		return f.err
	}
	f.updates[externalOrderID] = append(f.updates[externalOrderID], status)
	return nil
}

type capturingRunStore struct {
	runs []ports.SyncRun
}

func (s *capturingRunStore) SaveRun(_ context.Context, run ports.SyncRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func marketplaceOrder(id, status string, itemStatuses ...string) ports.MarketplaceOrder {
	items := make([]ports.MarketplaceOrderItem, 0, len(itemStatuses))
	for _, st := range itemStatuses {
		items = append(items, ports.MarketplaceOrderItem{ProductID: "p-" + id, Status: st})
	}
	return ports.MarketplaceOrder{ID: id, Status: status, Items: items}
}

func window() (time.Time, time.Time) {
	end := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -10), end
}

func TestSyncStatuses_WindowValidationBeforeNetwork(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{}
	svc := NewService(marketplace, &mapLocator{}, newRecordingAnnotator(), newRecordingFulfillment(), nil)

	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	_, err := svc.SyncStatuses(context.Background(), end.Add(time.Hour), end)
	require.ErrorIs(t, err, ErrWindowInverted)

	_, err = svc.SyncStatuses(context.Background(), end.AddDate(0, 0, -16), end)
	require.ErrorIs(t, err, ErrWindowTooWide)

	// Neither invalid window touched the marketplace.
	require.Zero(t, marketplace.listings)
}

func TestSyncStatuses_WalksAllPages(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{pages: []ports.OrdersPage{
		{Orders: []ports.MarketplaceOrder{marketplaceOrder("o1", ports.StatusDelivered, ports.StatusDelivered)}, HasNext: true},
		{Orders: []ports.MarketplaceOrder{marketplaceOrder("o2", ports.StatusInTransit, ports.StatusInTransit)}},
	}}
	locator := &mapLocator{byID: map[string]int64{"o1": 101, "o2": 102}}
	annotator := newRecordingAnnotator()
	fulfillment := newRecordingFulfillment()
	runs := &capturingRunStore{}
	svc := NewService(marketplace, locator, annotator, fulfillment, runs)

	start, end := window()
	result, err := svc.SyncStatuses(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 2, result.Synced)
	require.Equal(t, 0, result.Errors)
	require.Equal(t, []string{ports.StatusDelivered}, fulfillment.updates[101])
	require.Equal(t, []string{ports.StatusInTransit}, fulfillment.updates[102])

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	require.NotEmpty(t, run.ID)
	require.Equal(t, 2, run.Synced)
	require.Empty(t, run.FailedOrderIDs)
}

func TestSyncStatuses_PageFailureFailsRun(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{pageErr: errors.New("upstream 503")}
	svc := NewService(marketplace, &mapLocator{}, newRecordingAnnotator(), newRecordingFulfillment(), nil)

	start, end := window()
	_, err := svc.SyncStatuses(context.Background(), start, end)
	require.Error(t, err)
}

func TestSyncStatuses_PerOrderFailureIsCounted(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{pages: []ports.OrdersPage{
		{Orders: []ports.MarketplaceOrder{
			marketplaceOrder("bad", ports.StatusDelivered, ports.StatusDelivered),
			marketplaceOrder("good", ports.StatusDelivered, ports.StatusDelivered),
		}},
	}}
	locator := &mapLocator{byID: map[string]int64{"good": 200, "bad": 201}}
	annotator := newRecordingAnnotator()
	fulfillment := newRecordingFulfillment()
	runs := &capturingRunStore{}
	svc := NewService(marketplace, &scopedFailLocator{inner: locator, failID: "bad"}, annotator, fulfillment, runs)

	start, end := window()
	result, err := svc.SyncStatuses(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 1, result.Synced)
	require.Equal(t, 1, result.Errors)
	require.Len(t, runs.runs, 1)
	require.Equal(t, []string{"bad"}, runs.runs[0].FailedOrderIDs)
}

// scopedFailLocator fails exactly one marketplace order id.
type scopedFailLocator struct {
	inner  *mapLocator
	failID string
}

func (l *scopedFailLocator) LocateExternalOrder(ctx context.Context, marketplaceOrderID string) (int64, error) {
	if marketplaceOrderID == l.failID {
		return 0, errors.New("locator unavailable")
	}
	return l.inner.LocateExternalOrder(ctx, marketplaceOrderID)
}

func TestSyncStatuses_UnmatchedOrderIsNeitherSyncedNorErrored(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{pages: []ports.OrdersPage{
		{Orders: []ports.MarketplaceOrder{marketplaceOrder("orphan", ports.StatusDelivered, ports.StatusDelivered)}},
	}}
	svc := NewService(marketplace, &mapLocator{byID: map[string]int64{}}, newRecordingAnnotator(), newRecordingFulfillment(), nil)

	start, end := window()
	result, err := svc.SyncStatuses(context.Background(), start, end)
	require.NoError(t, err)
	require.Zero(t, result.Synced)
	require.Zero(t, result.Errors)
}

func TestSyncOrder_StatusActions(t *testing.T) {
	now := time.Date(2024, 3, 20, 8, 30, 0, 0, time.UTC)
	marketplace := &fakeMarketplaceOrders{pages: []ports.OrdersPage{
		{Orders: []ports.MarketplaceOrder{
			marketplaceOrder("confirmed", ports.StatusPurchaseConfirmed, ports.StatusPurchaseConfirmed),
			marketplaceOrder("refunded", ports.StatusRefunded, ports.StatusRefunded),
			marketplaceOrder("odd", "SOMETHING_ELSE", "SOMETHING_ELSE"),
		}},
	}}
	locator := &mapLocator{byID: map[string]int64{"confirmed": 301, "refunded": 302, "odd": 303}}
	annotator := newRecordingAnnotator()
	fulfillment := newRecordingFulfillment()
	svc := NewService(marketplace, locator, annotator, fulfillment, nil, WithClock(func() time.Time { return now }))

	start, end := window()
	result, err := svc.SyncStatuses(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 3, result.Synced)

	confirmed := annotator.metafields[301]
	byKey := map[string]ordersdomain.Metafield{}
	for _, f := range confirmed {
		byKey[f.Key] = f
	}
	require.Equal(t, "true", byKey["purchase_confirmed"].Value)
	require.Equal(t, now.Format(time.RFC3339), byKey["purchase_confirmed_at"].Value)

	require.Contains(t, annotator.tags[302], "Bunjang-REFUNDED")

	// Unknown statuses still get the audit stamp.
	oddStamp := map[string]string{}
	for _, f := range annotator.metafields[303] {
		oddStamp[f.Key] = f.Value
	}
	require.Equal(t, "SOMETHING_ELSE", oddStamp["last_status"])
	require.Equal(t, now.Format(time.RFC3339), oddStamp["last_synced_at"])
	require.Empty(t, fulfillment.updates[303])
}

func TestLookbackWindow_NeverExceedsMaxWindow(t *testing.T) {
	// A wall-clock now in any zone must yield a duration-exact window;
	// calendar arithmetic across a DST fall-back would come out an hour
	// wide of the marketplace limit.
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.FixedZone("KST", 9*60*60))

	start, end := LookbackWindow(now, 15)
	require.Equal(t, MaxWindow, end.Sub(start))
	require.Equal(t, time.UTC, end.Location())

	start, end = LookbackWindow(now, 7)
	require.Equal(t, 7*24*time.Hour, end.Sub(start))

	// Out-of-range day counts clamp to the limit instead of producing a
	// window the marketplace rejects.
	start, end = LookbackWindow(now, 30)
	require.Equal(t, MaxWindow, end.Sub(start))
	start, end = LookbackWindow(now, 0)
	require.Equal(t, MaxWindow, end.Sub(start))
}

func TestLookbackWindow_PassesServiceValidation(t *testing.T) {
	marketplace := &fakeMarketplaceOrders{}
	svc := NewService(marketplace, &mapLocator{}, newRecordingAnnotator(), newRecordingFulfillment(), &capturingRunStore{})

	start, end := LookbackWindow(time.Now(), 15)
	_, err := svc.SyncStatuses(context.Background(), start, end)
	require.NoError(t, err)
}

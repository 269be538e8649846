package bunjang

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL, AccessToken: "token-1"})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{AccessToken: "t"})
	require.Error(t, err)
	_, err = NewClient(Config{BaseURL: "https://api.example"})
	require.Error(t, err)
}

func TestGetProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/products/12345", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"pid": "12345", "name": "jacket", "price": 30000, "shippingFee": 3000,
			"quantity": 2, "saleStatus": "SELLING",
		}})
	})

	product, err := client.GetProduct(context.Background(), "12345")
	require.NoError(t, err)
	require.Equal(t, "12345", product.PID)
	require.Equal(t, int64(30000), product.Price)
	require.Equal(t, int64(3000), product.ShippingFee)
	require.Equal(t, "SELLING", product.SaleStatus)
}

func TestGetProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.GetProduct(context.Background(), "404404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetProduct_EmptyEnvelopeIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	})
	_, err := client.GetProduct(context.Background(), "12345")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/orders", r.URL.Path)
		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "12345", req.ProductID)
		require.Equal(t, int64(0), req.DeliveryPrice)
		w.Write([]byte(`{"data":{"id":"order-777"}}`))
	})

	id, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "12345", Quantity: 1, Price: 30000, DeliveryPrice: 0,
	})
	require.NoError(t, err)
	require.Equal(t, "order-777", id)
}

func TestCreateOrder_StructuredRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errorCode":"POINT_SHORTAGE","reason":"insufficient point"}`))
	})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{ProductID: "1", Quantity: 1, Price: 1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "POINT_SHORTAGE", apiErr.Code)
}

func TestCreateOrder_UnstructuredFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("gateway timeout"))
	})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{ProductID: "1", Quantity: 1, Price: 1})
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/balance", r.URL.Path)
		w.Write([]byte(`{"data":{"point":1500000}}`))
	})

	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1_500_000), balance)
}

func TestListOrders(t *testing.T) {
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/orders", r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, start.Format(time.RFC3339), query.Get("statusUpdateStartDate"))
		require.Equal(t, end.Format(time.RFC3339), query.Get("statusUpdateEndDate"))
		require.Equal(t, "0", query.Get("page"))
		require.Equal(t, "100", query.Get("size"))
		w.Write([]byte(`{
			"data":[{"id":"o-1","status":"DELIVERED","items":[{"pid":"12345","status":"DELIVERED","price":30000}]}],
			"page":{"hasNext":true}
		}`))
	})

	page, err := client.ListOrders(context.Background(), start, end, 0, 100)
	require.NoError(t, err)
	require.True(t, page.HasNext)
	require.Len(t, page.Orders, 1)
	require.Equal(t, "o-1", page.Orders[0].ID)
	require.Equal(t, "DELIVERED", page.Orders[0].Items[0].Status)
}

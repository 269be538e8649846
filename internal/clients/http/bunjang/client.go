package bunjang

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxResponseSize bounds response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024

// ErrNotFound reports a missing marketplace resource.
var ErrNotFound = errors.New("bunjang: resource not found")

// APIError is a structured rejection from the Bunjang API.
type APIError struct {
	Code   string `json:"errorCode"`
	Reason string `json:"reason"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bunjang api error %s: %s", e.Code, e.Reason)
}

// Config carries the credentials and endpoint for the Bunjang API.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client is a thin JSON client for the Bunjang open API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("bunjang base URL is required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("bunjang access token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Product is a live Bunjang listing.
type Product struct {
	PID         string `json:"pid"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	ShippingFee int64  `json:"shippingFee"`
	Quantity    int    `json:"quantity"`
	SaleStatus  string `json:"saleStatus"`
}

// GetProduct fetches the live detail for a product. Returns ErrNotFound
// when the listing no longer exists.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var envelope struct {
		Data Product `json:"data"`
	}
	path := "/api/v1/products/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.PID == "" {
		return nil, ErrNotFound
	}
	return &envelope.Data, nil
}

// CreateOrderRequest is the order-creation payload.
type CreateOrderRequest struct {
	ProductID     string `json:"pid"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
	DeliveryPrice int64  `json:"deliveryPrice"`
}

// CreateOrder submits an order and returns the new order id. Domain
// rejections surface as *APIError.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error) {
	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v2/orders", nil, req, &envelope); err != nil {
		return "", err
	}
	if envelope.Data.ID == "" {
		return "", errors.New("bunjang: order created without an id")
	}
	return envelope.Data.ID, nil
}

// Balance returns the current point balance.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	var envelope struct {
		Data struct {
			Point int64 `json:"point"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/balance", nil, nil, &envelope); err != nil {
		return 0, err
	}
	return envelope.Data.Point, nil
}

// OrderItem is one position of a listed order.
type OrderItem struct {
	ProductID string `json:"pid"`
	Status    string `json:"status"`
	Price     int64  `json:"price"`
}

// Order is a Bunjang order returned by the status listing.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Items     []OrderItem `json:"items"`
}

// OrdersPage is one page of the status listing.
type OrdersPage struct {
	Orders  []Order
	HasNext bool
}

// ListOrders returns orders whose status changed inside [start, end].
// The window must respect the API's 15-day cap; the server rejects wider
// ranges.
func (c *Client) ListOrders(ctx context.Context, start, end time.Time, page, size int) (*OrdersPage, error) {
	query := url.Values{}
	query.Set("statusUpdateStartDate", start.UTC().Format(time.RFC3339))
	query.Set("statusUpdateEndDate", end.UTC().Format(time.RFC3339))
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var envelope struct {
		Data []Order `json:"data"`
		Page struct {
			HasNext bool `json:"hasNext"`
		} `json:"page"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders", query, nil, &envelope); err != nil {
		return nil, err
	}
	return &OrdersPage{Orders: envelope.Data, HasNext: envelope.Page.HasNext}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bunjang: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("bunjang: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bunjang: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("bunjang: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		var apiErr APIError
		if unmarshalErr := json.Unmarshal(data, &apiErr); unmarshalErr == nil && apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("bunjang: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("bunjang: decode response: %w", err)
	}
	return nil
}

package shopify

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

const (
	apiVersion      = "2024-01"
	maxResponseSize = 10 * 1024 * 1024
)

// ErrNotFound reports a missing Shopify resource.
var ErrNotFound = errors.New("shopify: resource not found")

// Config carries credentials for the Shopify admin API.
type Config struct {
	ShopDomain  string
	AccessToken string
	LocationID  int64
	Timeout     time.Duration
}

// Client is a thin JSON client for the Shopify admin REST API.
type Client struct {
	baseURL    string
	token      string
	locationID int64
	httpClient *http.Client
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	domain := strings.TrimSpace(cfg.ShopDomain)
	if domain == "" {
		return nil, errors.New("shopify shop domain is required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("shopify access token is required")
	}
	base := domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/") + "/admin/api/" + apiVersion,
		token:      cfg.AccessToken,
		locationID: cfg.LocationID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Metafield mirrors the admin API metafield shape.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// AddOrderTags appends tags to an order, preserving existing ones. Shopify
// stores tags as one comma-separated string, so this is a read-merge-write.
func (c *Client) AddOrderTags(ctx context.Context, orderID int64, tags []string) error {
	var current struct {
		Order struct {
			ID   int64  `json:"id"`
			Tags string `json:"tags"`
		} `json:"order"`
	}
	path := fmt.Sprintf("/orders/%d.json", orderID)
	query := url.Values{}
	query.Set("fields", "id,tags")
	if err := c.do(ctx, http.MethodGet, path, query, nil, &current); err != nil {
		return err
	}

	merged := mergeTags(current.Order.Tags, tags)
	payload := map[string]any{
		"order": map[string]any{
			"id":   orderID,
			"tags": merged,
		},
	}
	return c.do(ctx, http.MethodPut, path, nil, payload, nil)
}

// SetOrderMetafields writes metafields onto an order, one call per field.
func (c *Client) SetOrderMetafields(ctx context.Context, orderID int64, fields []Metafield) error {
	path := fmt.Sprintf("/orders/%d/metafields.json", orderID)
	for _, field := range fields {
		payload := map[string]any{"metafield": field}
		if err := c.do(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
			return fmt.Errorf("set metafield %s.%s: %w", field.Namespace, field.Key, err)
		}
	}
	return nil
}

// FindOrderIDByTag returns the id of the first order carrying the tag, or
// 0 when none matches. Tag search is the legacy join mechanism for orders
// that predate the link store.
func (c *Client) FindOrderIDByTag(ctx context.Context, tag string) (int64, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("fields", "id")
	query.Set("tag", tag)

	var listing struct {
		Orders []struct {
			ID int64 `json:"id"`
		} `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders.json", query, nil, &listing); err != nil {
		return 0, err
	}
	if len(listing.Orders) == 0 {
		return 0, nil
	}
	return listing.Orders[0].ID, nil
}

// VariantQuantity returns the published inventory quantity of a variant.
func (c *Client) VariantQuantity(ctx context.Context, variantID int64) (int, error) {
	var envelope struct {
		Variant struct {
			InventoryQuantity int `json:"inventory_quantity"`
		} `json:"variant"`
	}
	path := fmt.Sprintf("/variants/%d.json", variantID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return 0, err
	}
	return envelope.Variant.InventoryQuantity, nil
}

// SetVariantQuantity pushes a new available quantity for a variant at the
// configured location.
func (c *Client) SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error {
	var envelope struct {
		Variant struct {
			InventoryItemID int64 `json:"inventory_item_id"`
		} `json:"variant"`
	}
	path := fmt.Sprintf("/variants/%d.json", variantID)
	query := url.Values{}
	query.Set("fields", "inventory_item_id")
	if err := c.do(ctx, http.MethodGet, path, query, nil, &envelope); err != nil {
		return err
	}
	payload := map[string]any{
		"location_id":       c.locationID,
		"inventory_item_id": envelope.Variant.InventoryItemID,
		"available":         quantity,
	}
	return c.do(ctx, http.MethodPost, "/inventory_levels/set.json", nil, payload, nil)
}

func mergeTags(existing string, added []string) string {
	seen := map[string]bool{}
	var merged []string
	for _, tag := range strings.Split(existing, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" && !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	for _, tag := range added {
		tag = strings.TrimSpace(tag)
		if tag != "" && !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return strings.Join(merged, ", ")
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
			return fmt.Errorf("shopify: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("shopify: %s %s: unexpected status %d: %s", method, path, resp.StatusCode, strconv.Quote(truncate(data, 256)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("shopify: decode response: %w", err)
	}
	return nil
}

func truncate(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}

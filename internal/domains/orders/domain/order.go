package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LinkedSKUPrefix marks a line item as backed by a Bunjang product. The
// digits after the prefix are the Bunjang product id.
const LinkedSKUPrefix = "BJ-"

// Tags written back onto the Shopify order. The exact strings are a wire
// contract with orders tagged by earlier deployments and must not change.
const (
	TagOrderPlaced         = "BunjangOrderPlaced"
	TagOrderPrefix         = "BunjangOrder-"
	TagMarketplaceIDPrefix = "BunjangOrderID-"
	TagBalanceLow          = "BunjangBalanceLow"
	TagBalanceCritical     = "BunjangBalanceCritical"
)

// MetafieldNamespace scopes every metafield this system writes.
const MetafieldNamespace = "bunjang"

var (
	ErrMissingOrderID  = errors.New("external order id is required")
	ErrMissingOrderGID = errors.New("external order global id is required")
	ErrNoLineItems     = errors.New("external order has no line items")
)

// Metafield is a namespaced key/value annotation on a Shopify order.
type Metafield struct {
	Namespace string
	Key       string
	Value     string
	Type      string
}

// LineItem is a single position on a Shopify order.
type LineItem struct {
	ID        int64
	SKU       string
	Quantity  int
	ProductID int64
	VariantID int64
	Title     string
}

// LinkedProductID extracts the Bunjang product id embedded in the SKU.
// The second return is false when the item is not linked.
func (li LineItem) LinkedProductID() (string, bool) {
	rest, ok := strings.CutPrefix(li.SKU, LinkedSKUPrefix)
	if !ok || rest == "" {
		return "", false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return rest, true
}

// ExternalOrder is an order placed on Shopify. Identity is immutable;
// the bridge only appends tags and metafields.
type ExternalOrder struct {
	ID    int64
	GID   string
	Items []LineItem
}

// Validate enforces the preconditions for order processing.
func (o ExternalOrder) Validate() error {
	if o.ID <= 0 {
		return ErrMissingOrderID
	}
	if strings.TrimSpace(o.GID) == "" {
		return ErrMissingOrderGID
	}
	if len(o.Items) == 0 {
		return ErrNoLineItems
	}
	return nil
}

// LinkedItems returns the items whose SKU follows the linkage convention.
func (o ExternalOrder) LinkedItems() []LineItem {
	linked := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := item.LinkedProductID(); ok {
			linked = append(linked, item)
		}
	}
	return linked
}

// OrderTag builds the order-identifier tag for an external order.
func OrderTag(externalOrderID int64) string {
	return TagOrderPrefix + strconv.FormatInt(externalOrderID, 10)
}

// MarketplaceOrderTag builds the tag that carries the Bunjang order id.
// The status poller uses it as a fallback join key for orders that predate
// the link store.
func MarketplaceOrderTag(marketplaceOrderID string) string {
	return TagMarketplaceIDPrefix + marketplaceOrderID
}

// ItemTag builds a per-product outcome tag, e.g. "PID-12345-NotFound".
func ItemTag(productID string, reason FailureReason) string {
	return fmt.Sprintf("PID-%s-%s", productID, reason)
}

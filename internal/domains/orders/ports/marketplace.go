package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound signals the marketplace no longer lists the product.
var ErrProductNotFound = errors.New("marketplace product not found")

// ProductDetail is the live state of a Bunjang listing. It is fetched per
// order because price and availability drift after catalog import.
type ProductDetail struct {
	ProductID   string
	Name        string
	Price       decimal.Decimal
	ShippingFee decimal.Decimal
	Quantity    int
	OnSale      bool
}

// OrderPayload is the order-creation request submitted to Bunjang.
type OrderPayload struct {
	ProductID     string
	Quantity      int
	Price         decimal.Decimal
	DeliveryPrice decimal.Decimal
}

// OrderRejectedError is a domain-level rejection from the marketplace,
// carrying the platform's error code.
type OrderRejectedError struct {
	Code   string
	Reason string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("marketplace rejected order (%s): %s", e.Code, e.Reason)
}

// Marketplace is the outbound port to Bunjang used during order creation.
type Marketplace interface {
	// GetProduct returns the live product detail or ErrProductNotFound.
	GetProduct(ctx context.Context, productID string) (*ProductDetail, error)
	// CreateOrder submits the payload and returns the new marketplace order
	// id. Domain rejections are reported as *OrderRejectedError.
	CreateOrder(ctx context.Context, payload OrderPayload) (string, error)
	// Balance returns the current purchasing balance in currency units.
	Balance(ctx context.Context) (decimal.Decimal, error)
}

package application

import (
	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
)

// Mapper builds marketplace order payloads from line items and live product
// detail. It refuses structurally unsound combinations by returning nil.
type Mapper struct{}

// NewMapper constructs the default payload mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map returns the order payload for the item, or nil when the combination
// cannot form a valid order. The delivery price is carried from the detail
// here; the service overrides it with zero before submission.
func (m *Mapper) Map(item domain.LineItem, detail ports.ProductDetail) *ports.OrderPayload {
	productID, ok := item.LinkedProductID()
	if !ok || productID != detail.ProductID {
		return nil
	}
	if item.Quantity <= 0 || detail.Price.IsNegative() || detail.Price.IsZero() {
		return nil
	}
	return &ports.OrderPayload{
		ProductID:     detail.ProductID,
		Quantity:      item.Quantity,
		Price:         detail.Price,
		DeliveryPrice: detail.ShippingFee,
	}
}

var _ ports.PayloadMapper = (*Mapper)(nil)

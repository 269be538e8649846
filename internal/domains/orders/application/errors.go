package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
)

// ErrInvalidOrder signals the order violated a precondition. Unlike item
// failures it aborts the whole call.
var ErrInvalidOrder = errors.New("invalid external order")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMissingOrderID) ||
		errors.Is(err, domain.ErrMissingOrderGID) ||
		errors.Is(err, domain.ErrNoLineItems) {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	return err
}

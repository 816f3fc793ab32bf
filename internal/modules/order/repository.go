package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists the order in one transaction: it locks the variations
	// named by the items, prices and checks them with Reserve, writes back the
	// remaining stock and inserts the order with its items.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrder retrieves an order with its items.
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)

	// ListOrders returns orders newest first, items included.
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus moves an order from one status to another. It fails with
	// ErrInvalidTransition if the stored status is no longer from. Moving to
	// canceled returns the item quantities to stock in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	SetPaid(ctx context.Context, id uuid.UUID, paid bool) error
}

package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/validation"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// ParseStatus rejects unknown status values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validTransitions[st]; !ok {
		return "", &validation.RangeError{Fields: []string{"status"}, Msg: fmt.Sprintf("unknown order status %q", s)}
	}
	return st, nil
}

// Order is a customer's purchase. Items are fixed at checkout.
type Order struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Paid      bool      `json:"paid"`
	Status    Status    `json:"status"`
	Items     []*Item   `json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total sums the item subtotals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Item is one purchased variation. Price is copied from the variation when the
// order is placed and is never recomputed.
type Item struct {
	ID                     uuid.UUID       `json:"id"`
	OrderID                uuid.UUID       `json:"order_id"`
	VariationID            uuid.UUID       `json:"variation_id"`
	ProductName            string          `json:"product_name,omitempty"`
	TextDescriptionOfCount string          `json:"text_description_of_count,omitempty"`
	Price                  decimal.Decimal `json:"price"`
	Quantity               int             `json:"quantity"`
}

func (i *Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Stock is the locked state of a variation read during checkout.
type Stock struct {
	Price     decimal.Decimal
	Stock     int
	Available bool
}

// Filter narrows ListOrders. Zero values do not filter.
type Filter struct {
	UserID *uuid.UUID
	Status Status
	Paid   *bool
}

// Contact is the recipient block of an order. Empty name and email fields are
// filled from the ordering user's profile.
type Contact struct {
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// Line asks for quantity units of one variation.
type Line struct {
	VariationID uuid.UUID `json:"variation_id"`
	Quantity    int       `json:"quantity" validate:"gte=1"`
}

// CheckoutRequest is the payload for placing an order.
type CheckoutRequest struct {
	Contact
	Items []Line `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// PaidRequest marks an order as paid or unpaid.
type PaidRequest struct {
	Paid bool `json:"paid"`
}

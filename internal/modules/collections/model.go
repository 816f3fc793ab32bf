package collections

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/validation"
)

const maxSessionKeyLen = 40

// Owner identifies who a cart or wishlist belongs to: a registered user or an
// anonymous browser session, never both.
type Owner struct {
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	SessionKey string     `json:"session_key,omitempty"`
}

// UserOwner and SessionOwner build the two owner forms.
func UserOwner(id uuid.UUID) Owner  { return Owner{UserID: &id} }
func SessionOwner(key string) Owner { return Owner{SessionKey: key} }

// IsUser reports whether the owner is a registered user.
func (o Owner) IsUser() bool { return o.UserID != nil }

// Validate requires exactly one of user or session_key.
func (o Owner) Validate() error {
	if err := validation.ExactlyOne(
		validation.Field{Name: "user", Set: o.UserID != nil},
		validation.Field{Name: "session_key", Set: o.SessionKey != ""},
	); err != nil {
		return err
	}
	if len(o.SessionKey) > maxSessionKeyLen {
		return &validation.RangeError{Fields: []string{"session_key"}, Msg: "session_key must be at most 40 characters"}
	}
	return nil
}

// Cart holds the variations a customer intends to buy.
type Cart struct {
	ID uuid.UUID `json:"id"`
	Owner
	Items     []*CartItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CartItem is one variation line. Price and the product fields are read from the
// variation at load time and are not stored on the item.
type CartItem struct {
	ID                     uuid.UUID       `json:"id"`
	CartID                 uuid.UUID       `json:"cart_id"`
	VariationID            uuid.UUID       `json:"variation_id"`
	ProductID              uuid.UUID       `json:"product_id"`
	ProductName            string          `json:"product_name"`
	TextDescriptionOfCount string          `json:"text_description_of_count"`
	Price                  decimal.Decimal `json:"price"`
	Quantity               int             `json:"quantity"`
	AddedAt                time.Time       `json:"added_at"`
}

// Subtotal is price times quantity.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSummary holds the admin list aggregates.
type CartSummary struct {
	ItemsCount    int             `json:"items_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

func (c *Cart) Summary() CartSummary {
	s := CartSummary{ItemsCount: len(c.Items), TotalPrice: decimal.Zero}
	for _, it := range c.Items {
		s.TotalQuantity += it.Quantity
		s.TotalPrice = s.TotalPrice.Add(it.Subtotal())
	}
	return s
}

// Item returns the line with the given id.
func (c *Cart) Item(id uuid.UUID) (*CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Wishlist holds products a customer has saved for later.
type Wishlist struct {
	ID uuid.UUID `json:"id"`
	Owner
	Items     []*WishlistItem `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type WishlistItem struct {
	ID          uuid.UUID `json:"id"`
	WishlistID  uuid.UUID `json:"wishlist_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	AddedAt     time.Time `json:"added_at"`
}

// Item returns the line with the given id.
func (w *Wishlist) Item(id uuid.UUID) (*WishlistItem, bool) {
	for _, it := range w.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// AddItemRequest adds a variation to the cart. Quantity defaults to 1.
type AddItemRequest struct {
	VariationID uuid.UUID `json:"variation_id"`
	Quantity    int       `json:"quantity" validate:"omitempty,gte=1"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

type WishlistRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

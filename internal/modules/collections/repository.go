package collections

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines cart and wishlist storage. Find* return database.ErrNotFound
// when the owner has no collection yet.
type Repository interface {
	// Atomic runs fn against a repository bound to a single transaction.
	Atomic(ctx context.Context, fn func(Repository) error) error

	FindCart(ctx context.Context, owner Owner) (*Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	CreateCart(ctx context.Context, c *Cart) error
	SetCartOwner(ctx context.Context, id uuid.UUID, owner Owner) error
	DeleteCart(ctx context.Context, id uuid.UUID) error
	// AddCartItem inserts the variation or increments the existing line's quantity.
	AddCartItem(ctx context.Context, cartID, variationID uuid.UUID, quantity int) error
	SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error

	FindWishlist(ctx context.Context, owner Owner) (*Wishlist, error)
	GetWishlist(ctx context.Context, id uuid.UUID) (*Wishlist, error)
	CreateWishlist(ctx context.Context, w *Wishlist) error
	SetWishlistOwner(ctx context.Context, id uuid.UUID, owner Owner) error
	DeleteWishlist(ctx context.Context, id uuid.UUID) error
	// AddWishlistItem is a no-op when the product is already saved.
	AddWishlistItem(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveWishlistItem(ctx context.Context, wishlistID, itemID uuid.UUID) error
}

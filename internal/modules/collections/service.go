package collections

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

// Service defines cart and wishlist business logic. Owner-scoped calls create
// the collection on first use.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (*Cart, error)
	AddToCart(ctx context.Context, owner Owner, req AddItemRequest) (*Cart, error)
	UpdateCartItem(ctx context.Context, owner Owner, itemID string, req QuantityRequest) (*Cart, error)
	RemoveCartItem(ctx context.Context, owner Owner, itemID string) (*Cart, error)
	ClearCart(ctx context.Context, owner Owner) (*Cart, error)
	// SetCartOwner reassigns a cart by id (staff edit).
	SetCartOwner(ctx context.Context, cartID string, owner Owner) (*Cart, error)

	GetWishlist(ctx context.Context, owner Owner) (*Wishlist, error)
	AddToWishlist(ctx context.Context, owner Owner, req WishlistRequest) (*Wishlist, error)
	RemoveWishlistItem(ctx context.Context, owner Owner, itemID string) (*Wishlist, error)
	SetWishlistOwner(ctx context.Context, wishlistID string, owner Owner) (*Wishlist, error)

	// MergeSessionIntoUser moves the session's cart and wishlist to the user. When
	// the user already has one, the session items are folded into it.
	MergeSessionIntoUser(ctx context.Context, sessionKey string, userID uuid.UUID) error
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func parseID(kind, id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, id, web.ErrBadRequest)
	}
	return uid, nil
}

// ── carts ────────────────────────────────────────────────────────────────────

func cartFor(ctx context.Context, repo Repository, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	c, err := repo.FindCart(ctx, owner)
	if !errors.Is(err, database.ErrNotFound) {
		return c, err
	}
	c = &Cart{ID: uuid.New(), Owner: owner, Items: []*CartItem{}}
	if err := repo.CreateCart(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetCart(ctx context.Context, owner Owner) (*Cart, error) {
	return cartFor(ctx, s.repo, owner)
}

func (s *service) AddToCart(ctx context.Context, owner Owner, req AddItemRequest) (*Cart, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.VariationID == uuid.Nil {
		return nil, &validation.RangeError{Fields: []string{"variation_id"}, Msg: "variation_id is required"}
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	var cart *Cart
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		c, err := cartFor(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := repo.AddCartItem(ctx, c.ID, req.VariationID, req.Quantity); err != nil {
			return err
		}
		cart, err = repo.GetCart(ctx, c.ID)
		return err
	})
	return cart, err
}

func (s *service) UpdateCartItem(ctx context.Context, owner Owner, itemID string, req QuantityRequest) (*Cart, error) {
	id, err := parseID("cart item", itemID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.editCart(ctx, owner, func(repo Repository, c *Cart) error {
		return repo.SetCartItemQuantity(ctx, c.ID, id, req.Quantity)
	})
}

func (s *service) RemoveCartItem(ctx context.Context, owner Owner, itemID string) (*Cart, error) {
	id, err := parseID("cart item", itemID)
	if err != nil {
		return nil, err
	}
	return s.editCart(ctx, owner, func(repo Repository, c *Cart) error {
		return repo.RemoveCartItem(ctx, c.ID, id)
	})
}

func (s *service) ClearCart(ctx context.Context, owner Owner) (*Cart, error) {
	return s.editCart(ctx, owner, func(repo Repository, c *Cart) error {
		return repo.ClearCart(ctx, c.ID)
	})
}

// editCart applies fn to the owner's cart and returns the reloaded cart.
func (s *service) editCart(ctx context.Context, owner Owner, fn func(Repository, *Cart) error) (*Cart, error) {
	var cart *Cart
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		c, err := cartFor(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := fn(repo, c); err != nil {
			return err
		}
		cart, err = repo.GetCart(ctx, c.ID)
		return err
	})
	return cart, err
}

func (s *service) SetCartOwner(ctx context.Context, cartID string, owner Owner) (*Cart, error) {
	id, err := parseID("cart", cartID)
	if err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.SetCartOwner(ctx, id, owner); err != nil {
		return nil, err
	}
	return s.repo.GetCart(ctx, id)
}

// ── wishlists ────────────────────────────────────────────────────────────────

func wishlistFor(ctx context.Context, repo Repository, owner Owner) (*Wishlist, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	w, err := repo.FindWishlist(ctx, owner)
	if !errors.Is(err, database.ErrNotFound) {
		return w, err
	}
	w = &Wishlist{ID: uuid.New(), Owner: owner, Items: []*WishlistItem{}}
	if err := repo.CreateWishlist(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) GetWishlist(ctx context.Context, owner Owner) (*Wishlist, error) {
	return wishlistFor(ctx, s.repo, owner)
}

func (s *service) AddToWishlist(ctx context.Context, owner Owner, req WishlistRequest) (*Wishlist, error) {
	if req.ProductID == uuid.Nil {
		return nil, &validation.RangeError{Fields: []string{"product_id"}, Msg: "product_id is required"}
	}
	return s.editWishlist(ctx, owner, func(repo Repository, w *Wishlist) error {
		return repo.AddWishlistItem(ctx, w.ID, req.ProductID)
	})
}

func (s *service) RemoveWishlistItem(ctx context.Context, owner Owner, itemID string) (*Wishlist, error) {
	id, err := parseID("wishlist item", itemID)
	if err != nil {
		return nil, err
	}
	return s.editWishlist(ctx, owner, func(repo Repository, w *Wishlist) error {
		return repo.RemoveWishlistItem(ctx, w.ID, id)
	})
}

func (s *service) editWishlist(ctx context.Context, owner Owner, fn func(Repository, *Wishlist) error) (*Wishlist, error) {
	var wishlist *Wishlist
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		w, err := wishlistFor(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := fn(repo, w); err != nil {
			return err
		}
		wishlist, err = repo.GetWishlist(ctx, w.ID)
		return err
	})
	return wishlist, err
}

func (s *service) SetWishlistOwner(ctx context.Context, wishlistID string, owner Owner) (*Wishlist, error) {
	id, err := parseID("wishlist", wishlistID)
	if err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.SetWishlistOwner(ctx, id, owner); err != nil {
		return nil, err
	}
	return s.repo.GetWishlist(ctx, id)
}

// ── merge ────────────────────────────────────────────────────────────────────

func (s *service) MergeSessionIntoUser(ctx context.Context, sessionKey string, userID uuid.UUID) error {
	if sessionKey == "" {
		return nil
	}
	return s.repo.Atomic(ctx, func(repo Repository) error {
		if err := mergeCarts(ctx, repo, sessionKey, userID); err != nil {
			return fmt.Errorf("merge cart: %w", err)
		}
		if err := mergeWishlists(ctx, repo, sessionKey, userID); err != nil {
			return fmt.Errorf("merge wishlist: %w", err)
		}
		return nil
	})
}

func mergeCarts(ctx context.Context, repo Repository, sessionKey string, userID uuid.UUID) error {
	anon, err := repo.FindCart(ctx, SessionOwner(sessionKey))
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	mine, err := repo.FindCart(ctx, UserOwner(userID))
	if errors.Is(err, database.ErrNotFound) {
		return repo.SetCartOwner(ctx, anon.ID, UserOwner(userID))
	}
	if err != nil {
		return err
	}
	for _, it := range anon.Items {
		if err := repo.AddCartItem(ctx, mine.ID, it.VariationID, it.Quantity); err != nil {
			return err
		}
	}
	return repo.DeleteCart(ctx, anon.ID)
}

func mergeWishlists(ctx context.Context, repo Repository, sessionKey string, userID uuid.UUID) error {
	anon, err := repo.FindWishlist(ctx, SessionOwner(sessionKey))
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	mine, err := repo.FindWishlist(ctx, UserOwner(userID))
	if errors.Is(err, database.ErrNotFound) {
		return repo.SetWishlistOwner(ctx, anon.ID, UserOwner(userID))
	}
	if err != nil {
		return err
	}
	for _, it := range anon.Items {
		if err := repo.AddWishlistItem(ctx, mine.ID, it.ProductID); err != nil {
			return err
		}
	}
	return repo.DeleteWishlist(ctx, anon.ID)
}

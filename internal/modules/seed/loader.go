package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/catalog"
	"github.com/teashop/backend/internal/modules/collections"
	"github.com/teashop/backend/internal/modules/order"
	"github.com/teashop/backend/internal/modules/reference"
	"github.com/teashop/backend/internal/modules/user"
	"github.com/teashop/backend/internal/modules/validation"
)

// Loader persists a Dataset through the module repositories.
type Loader struct {
	References  reference.Repository
	Users       user.Repository
	Catalog     catalog.Repository
	Collections collections.Repository
	Orders      order.Repository

	// Clear empties the domain tables; nil disables clearing.
	Clear func(ctx context.Context) error
}

// NewLoader wires a Loader to PostgreSQL.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{
		References:  reference.NewPostgresRepository(db),
		Users:       user.NewPostgresRepository(db),
		Catalog:     catalog.NewPostgresRepository(db),
		Collections: collections.NewPostgresRepository(db),
		Orders:      order.NewPostgresRepository(db),
		Clear:       func(ctx context.Context) error { return truncate(ctx, db) },
	}
}

// truncate removes catalog, collection and order data plus previously seeded
// accounts. Other users are kept.
func truncate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE order_items, orders, cart_items, carts, wishlist_items, wishlists,
		         variations, attribute_aromas, attribute_additives,
		         coffee_attributes, tea_attributes, accessory_attributes, products,
		         tea_categories, accessory_types, aromas, additives, manufacturers, countries`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM users WHERE email LIKE $1`, "%@"+EmailDomain); err != nil {
		return fmt.Errorf("delete seeded users: %w", err)
	}
	return nil
}

// Load writes ds in dependency order. Reference names that already exist are
// reused instead of duplicated.
func (l *Loader) Load(ctx context.Context, ds *Dataset, clear bool) error {
	if clear && l.Clear != nil {
		if err := l.Clear(ctx); err != nil {
			return err
		}
		log.Println("seed: existing data cleared")
	}

	remap, err := l.loadReferences(ctx, ds.References)
	if err != nil {
		return err
	}
	if err := l.loadUsers(ctx, ds.Users); err != nil {
		return err
	}
	if err := l.loadProducts(ctx, ds.Products, remap); err != nil {
		return err
	}
	if err := l.loadCollections(ctx, ds.Carts, ds.Wishlists); err != nil {
		return err
	}
	if err := l.loadOrders(ctx, ds.Orders); err != nil {
		return err
	}
	log.Printf("seed: %d references, %d users, %d products, %d carts, %d wishlists, %d orders",
		len(ds.References), len(ds.Users), len(ds.Products), len(ds.Carts), len(ds.Wishlists), len(ds.Orders))
	return nil
}

func (l *Loader) loadReferences(ctx context.Context, items []*reference.Item) (map[uuid.UUID]uuid.UUID, error) {
	existing := map[reference.Kind]map[string]uuid.UUID{}
	remap := map[uuid.UUID]uuid.UUID{}
	for _, it := range items {
		if _, ok := existing[it.Kind]; !ok {
			stored, err := l.References.List(ctx, it.Kind)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", it.Kind, err)
			}
			byName := make(map[string]uuid.UUID, len(stored))
			for _, s := range stored {
				byName[s.Name] = s.ID
			}
			existing[it.Kind] = byName
		}
		if id, ok := existing[it.Kind][it.Name]; ok {
			remap[it.ID] = id
			it.ID = id
			continue
		}
		if err := l.References.Create(ctx, it); err != nil {
			return nil, fmt.Errorf("create %s %q: %w", it.Kind.Entity(), it.Name, err)
		}
		existing[it.Kind][it.Name] = it.ID
	}
	return remap, nil
}

func (l *Loader) loadUsers(ctx context.Context, users []*user.User) error {
	if len(users) == 0 {
		return nil
	}
	hash, err := user.HashPassword(DefaultPassword)
	if err != nil {
		return err
	}
	for _, u := range users {
		u.PasswordHash = hash
		err := l.Users.CreateUser(ctx, u)
		var ue *validation.UniquenessError
		if errors.As(err, &ue) {
			return fmt.Errorf("user %s already exists, rerun with -clear: %w", u.Email, err)
		}
		if err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}
	return nil
}

func swap(remap map[uuid.UUID]uuid.UUID, id uuid.UUID) uuid.UUID {
	if to, ok := remap[id]; ok {
		return to
	}
	return id
}

func swapAll(remap map[uuid.UUID]uuid.UUID, ids []uuid.UUID) {
	for i, id := range ids {
		ids[i] = swap(remap, id)
	}
}

// rebind points a product's references at the stored reference rows.
func rebind(p *catalog.Product, remap map[uuid.UUID]uuid.UUID) {
	p.ManufacturerID = swap(remap, p.ManufacturerID)
	p.CountryID = swap(remap, p.CountryID)
	switch a := p.Attributes.(type) {
	case *catalog.CoffeeAttributes:
		swapAll(remap, a.AromaIDs)
		swapAll(remap, a.AdditiveIDs)
	case *catalog.TeaAttributes:
		a.CategoryID = swap(remap, a.CategoryID)
		swapAll(remap, a.AromaIDs)
		swapAll(remap, a.AdditiveIDs)
	case *catalog.AccessoryAttributes:
		a.AccessoryTypeID = swap(remap, a.AccessoryTypeID)
	}
}

func (l *Loader) loadProducts(ctx context.Context, products []*catalog.Product, remap map[uuid.UUID]uuid.UUID) error {
	for _, p := range products {
		rebind(p, remap)
		if err := l.Catalog.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
		for _, v := range p.Variations {
			if err := l.Catalog.CreateVariation(ctx, v); err != nil {
				return fmt.Errorf("create variation %q of %q: %w", v.TextDescriptionOfCount, p.Name, err)
			}
		}
	}
	return nil
}

func (l *Loader) loadCollections(ctx context.Context, carts []*collections.Cart, wishlists []*collections.Wishlist) error {
	for _, c := range carts {
		if err := l.Collections.CreateCart(ctx, c); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		for _, it := range c.Items {
			if err := l.Collections.AddCartItem(ctx, c.ID, it.VariationID, it.Quantity); err != nil {
				return fmt.Errorf("add cart item: %w", err)
			}
		}
	}
	for _, w := range wishlists {
		if err := l.Collections.CreateWishlist(ctx, w); err != nil {
			return fmt.Errorf("create wishlist: %w", err)
		}
		for _, it := range w.Items {
			if err := l.Collections.AddWishlistItem(ctx, w.ID, it.ProductID); err != nil {
				return fmt.Errorf("add wishlist item: %w", err)
			}
		}
	}
	return nil
}

// statusPath lists the transitions that lead from created to target.
func statusPath(target order.Status) []order.Status {
	switch target {
	case order.StatusProcessing:
		return []order.Status{order.StatusProcessing}
	case order.StatusShipped:
		return []order.Status{order.StatusProcessing, order.StatusShipped}
	case order.StatusDelivered:
		return []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered}
	case order.StatusCanceled:
		return []order.Status{order.StatusCanceled}
	}
	return nil
}

// loadOrders checks every order out as created and then walks it through the
// status workflow, so stock moves exactly as it would for a real order.
func (l *Loader) loadOrders(ctx context.Context, orders []*order.Order) error {
	for _, o := range orders {
		target, paid := o.Status, o.Paid
		o.Status, o.Paid = order.StatusCreated, false
		if err := l.Orders.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order for %s: %w", o.Email, err)
		}
		from := order.StatusCreated
		for _, to := range statusPath(target) {
			if err := l.Orders.UpdateStatus(ctx, o.ID, from, to); err != nil {
				return fmt.Errorf("order %s %s -> %s: %w", o.ID, from, to, err)
			}
			from = to
		}
		o.Status = from
		if paid {
			if err := l.Orders.SetPaid(ctx, o.ID, true); err != nil {
				return fmt.Errorf("mark order %s paid: %w", o.ID, err)
			}
			o.Paid = true
		}
	}
	return nil
}

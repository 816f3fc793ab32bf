package collections

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teashop/backend/internal/modules/auth"
	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
)

// memRepo keeps carts and wishlists in maps and enforces the same owner and
// item constraints as the schema.
type memRepo struct {
	carts      map[uuid.UUID]*Cart
	wishlists  map[uuid.UUID]*Wishlist
	prices     map[uuid.UUID]decimal.Decimal
	products   map[uuid.UUID]bool
	atomicRuns int
}

func newMemRepo() *memRepo {
	return &memRepo{
		carts:     map[uuid.UUID]*Cart{},
		wishlists: map[uuid.UUID]*Wishlist{},
		prices:    map[uuid.UUID]decimal.Decimal{},
		products:  map[uuid.UUID]bool{},
	}
}

func sameOwner(a, b Owner) bool {
	if a.UserID != nil || b.UserID != nil {
		return a.UserID != nil && b.UserID != nil && *a.UserID == *b.UserID
	}
	return a.SessionKey == b.SessionKey
}

func (m *memRepo) Atomic(_ context.Context, fn func(Repository) error) error {
	m.atomicRuns++
	return fn(m)
}

func (m *memRepo) FindCart(_ context.Context, owner Owner) (*Cart, error) {
	for _, c := range m.carts {
		if sameOwner(c.Owner, owner) {
			return c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memRepo) GetCart(_ context.Context, id uuid.UUID) (*Cart, error) {
	if c, ok := m.carts[id]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

func (m *memRepo) CreateCart(ctx context.Context, c *Cart) error {
	if err := c.Owner.Validate(); err != nil {
		return err
	}
	if _, err := m.FindCart(ctx, c.Owner); err == nil {
		return &validation.UniquenessError{Entity: "cart"}
	}
	m.carts[c.ID] = c
	return nil
}

func (m *memRepo) SetCartOwner(ctx context.Context, id uuid.UUID, owner Owner) error {
	c, err := m.GetCart(ctx, id)
	if err != nil {
		return err
	}
	if other, err := m.FindCart(ctx, owner); err == nil && other.ID != id {
		return &validation.UniquenessError{Entity: "cart"}
	}
	c.Owner = owner
	return nil
}

func (m *memRepo) DeleteCart(_ context.Context, id uuid.UUID) error {
	delete(m.carts, id)
	return nil
}

func (m *memRepo) AddCartItem(ctx context.Context, cartID, variationID uuid.UUID, quantity int) error {
	price, ok := m.prices[variationID]
	if !ok {
		return database.ErrNotFound
	}
	c, err := m.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	for _, it := range c.Items {
		if it.VariationID == variationID {
			it.Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, &CartItem{
		ID: uuid.New(), CartID: cartID, VariationID: variationID,
		Price: price, Quantity: quantity, AddedAt: time.Now(),
	})
	return nil
}

func (m *memRepo) SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	c, err := m.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	it, ok := c.Item(itemID)
	if !ok {
		return database.ErrNotFound
	}
	it.Quantity = quantity
	return nil
}

func (m *memRepo) RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	c, err := m.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	for i, it := range c.Items {
		if it.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	c, err := m.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	c.Items = []*CartItem{}
	return nil
}

func (m *memRepo) FindWishlist(_ context.Context, owner Owner) (*Wishlist, error) {
	for _, w := range m.wishlists {
		if sameOwner(w.Owner, owner) {
			return w, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memRepo) GetWishlist(_ context.Context, id uuid.UUID) (*Wishlist, error) {
	if w, ok := m.wishlists[id]; ok {
		return w, nil
	}
	return nil, database.ErrNotFound
}

func (m *memRepo) CreateWishlist(ctx context.Context, w *Wishlist) error {
	if _, err := m.FindWishlist(ctx, w.Owner); err == nil {
		return &validation.UniquenessError{Entity: "wishlist"}
	}
	m.wishlists[w.ID] = w
	return nil
}

func (m *memRepo) SetWishlistOwner(ctx context.Context, id uuid.UUID, owner Owner) error {
	w, err := m.GetWishlist(ctx, id)
	if err != nil {
		return err
	}
	w.Owner = owner
	return nil
}

func (m *memRepo) DeleteWishlist(_ context.Context, id uuid.UUID) error {
	delete(m.wishlists, id)
	return nil
}

func (m *memRepo) AddWishlistItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	if !m.products[productID] {
		return database.ErrNotFound
	}
	w, err := m.GetWishlist(ctx, wishlistID)
	if err != nil {
		return err
	}
	for _, it := range w.Items {
		if it.ProductID == productID {
			return nil
		}
	}
	w.Items = append(w.Items, &WishlistItem{ID: uuid.New(), WishlistID: wishlistID, ProductID: productID})
	return nil
}

func (m *memRepo) RemoveWishlistItem(ctx context.Context, wishlistID, itemID uuid.UUID) error {
	w, err := m.GetWishlist(ctx, wishlistID)
	if err != nil {
		return err
	}
	for i, it := range w.Items {
		if it.ID == itemID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memRepo) variation(price string) uuid.UUID {
	id := uuid.New()
	m.prices[id] = decimal.RequireFromString(price)
	return id
}

func (m *memRepo) product() uuid.UUID {
	id := uuid.New()
	m.products[id] = true
	return id
}

func TestOwner_Validate(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		owner Owner
		both  *bool
	}{
		{"user only", UserOwner(id), nil},
		{"session only", SessionOwner("abc"), nil},
		{"neither", Owner{}, boolp(false)},
		{"both", Owner{UserID: &id, SessionKey: "abc"}, boolp(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.owner.Validate()
			if tt.both == nil {
				assert.NoError(t, err)
				return
			}
			var oe *validation.OwnershipError
			require.True(t, errors.As(err, &oe))
			assert.Equal(t, *tt.both, oe.Both)
		})
	}

	err := SessionOwner(strings.Repeat("k", 41)).Validate()
	var re *validation.RangeError
	assert.True(t, errors.As(err, &re))
}

func boolp(b bool) *bool { return &b }

func TestService_CartLifecycle(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	owner := SessionOwner("sess-1")

	c, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	again, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)

	tea := repo.variation("350.00")
	c, err = svc.AddToCart(ctx, owner, AddItemRequest{VariationID: tea})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)

	// same variation increments the existing line
	c, err = svc.AddToCart(ctx, owner, AddItemRequest{VariationID: tea, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)

	coffee := repo.variation("500.50")
	c, err = svc.AddToCart(ctx, owner, AddItemRequest{VariationID: coffee, Quantity: 2})
	require.NoError(t, err)
	sum := c.Summary()
	assert.Equal(t, 2, sum.ItemsCount)
	assert.Equal(t, 5, sum.TotalQuantity)
	assert.True(t, decimal.RequireFromString("2051.00").Equal(sum.TotalPrice), sum.TotalPrice.String())

	item := c.Items[0].ID
	_, err = svc.UpdateCartItem(ctx, owner, item.String(), QuantityRequest{Quantity: 0})
	var re *validation.RangeError
	require.True(t, errors.As(err, &re))

	c, err = svc.UpdateCartItem(ctx, owner, item.String(), QuantityRequest{Quantity: 4})
	require.NoError(t, err)
	it, _ := c.Item(item)
	assert.Equal(t, 4, it.Quantity)

	c, err = svc.RemoveCartItem(ctx, owner, item.String())
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	_, err = svc.RemoveCartItem(ctx, owner, item.String())
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = svc.AddToCart(ctx, owner, AddItemRequest{VariationID: uuid.New()})
	assert.ErrorIs(t, err, database.ErrNotFound)

	c, err = svc.ClearCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.Summary().TotalPrice.IsZero())
}

func TestService_CartRequiresOwner(t *testing.T) {
	svc := NewService(newMemRepo())
	_, err := svc.GetCart(context.Background(), Owner{})
	var oe *validation.OwnershipError
	assert.True(t, errors.As(err, &oe))
}

func TestService_SetCartOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.GetCart(ctx, SessionOwner("sess-1"))
	require.NoError(t, err)

	userID := uuid.New()
	_, err = svc.SetCartOwner(ctx, c.ID.String(), Owner{UserID: &userID, SessionKey: "sess-1"})
	var oe *validation.OwnershipError
	require.True(t, errors.As(err, &oe))

	moved, err := svc.SetCartOwner(ctx, c.ID.String(), UserOwner(userID))
	require.NoError(t, err)
	assert.Equal(t, userID, *moved.UserID)
	assert.Empty(t, moved.SessionKey)
}

func TestService_Wishlist(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	owner := UserOwner(uuid.New())
	pu := repo.product()

	w, err := svc.AddToWishlist(ctx, owner, WishlistRequest{ProductID: pu})
	require.NoError(t, err)
	require.Len(t, w.Items, 1)

	w, err = svc.AddToWishlist(ctx, owner, WishlistRequest{ProductID: pu})
	require.NoError(t, err)
	assert.Len(t, w.Items, 1)

	_, err = svc.AddToWishlist(ctx, owner, WishlistRequest{})
	var re *validation.RangeError
	assert.True(t, errors.As(err, &re))

	w, err = svc.RemoveWishlistItem(ctx, owner, w.Items[0].ID.String())
	require.NoError(t, err)
	assert.Empty(t, w.Items)
}

func TestService_MergeSessionIntoUser(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	userID := uuid.New()
	shared := repo.variation("100")
	onlyAnon := repo.variation("200")
	pu := repo.product()

	_, err := svc.AddToCart(ctx, UserOwner(userID), AddItemRequest{VariationID: shared, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, SessionOwner("anon"), AddItemRequest{VariationID: shared, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, SessionOwner("anon"), AddItemRequest{VariationID: onlyAnon, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToWishlist(ctx, SessionOwner("anon"), WishlistRequest{ProductID: pu})
	require.NoError(t, err)

	require.NoError(t, svc.MergeSessionIntoUser(ctx, "anon", userID))

	_, err = repo.FindCart(ctx, SessionOwner("anon"))
	assert.ErrorIs(t, err, database.ErrNotFound)
	c, err := repo.FindCart(ctx, UserOwner(userID))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Summary().ItemsCount)
	assert.Equal(t, 4, c.Summary().TotalQuantity)
	for _, cart := range repo.carts {
		require.NoError(t, cart.Owner.Validate())
	}

	// the user had no wishlist, so the session one is adopted in place
	w, err := repo.FindWishlist(ctx, UserOwner(userID))
	require.NoError(t, err)
	assert.Empty(t, w.SessionKey)
	assert.Len(t, w.Items, 1)

	assert.NoError(t, svc.MergeSessionIntoUser(ctx, "", userID))
	assert.NoError(t, svc.MergeSessionIntoUser(ctx, "unknown", userID))
}

func TestHandler_CartBySessionAndToken(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	tokens := auth.NewTokens("test-secret")
	router := chi.NewRouter()
	router.Use(auth.Authenticate(tokens))
	NewHandler(svc).RegisterRoutes(router, auth.RequireStaff)

	v := repo.variation("250")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"variation_id":"`+v.String()+`","quantity":2}`))
	req.Header.Set(auth.SessionHeader, "browser-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Items         []CartItem `json:"items"`
		TotalQuantity int        `json:"total_quantity"`
		TotalPrice    string     `json:"total_price"`
		SessionKey    string     `json:"session_key"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.TotalQuantity)
	assert.Equal(t, "500", body.TotalPrice)
	assert.Equal(t, "browser-1", body.SessionKey)

	// no token and no session key
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// merge requires a logged-in user
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/collections/merge", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userID := uuid.New()
	token, err := tokens.Issue(userID, false)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/collections/merge", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.SessionHeader, "browser-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c, err := repo.FindCart(context.Background(), UserOwner(userID))
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	// owner reassignment is staff only
	req = httptest.NewRequest(http.MethodPut, "/api/v1/cart/"+c.ID.String()+"/owner",
		strings.NewReader(`{"session_key":"other"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_SessionKeyIdentifiesOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	tokens := auth.NewTokens("test-secret")
	router := chi.NewRouter()
	router.Use(auth.Authenticate(tokens))
	NewHandler(svc).RegisterRoutes(router, auth.RequireStaff)

	v := repo.variation("120")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"variation_id":"`+v.String()+`"}`))
	req.Header.Set(auth.SessionHeader, "shared-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cart := func(req *http.Request) (int, Cart) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var c Cart
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&c))
		return rec.Code, c
	}

	// the same key sent as a cookie reaches the same cart
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "shared-key"})
	code, c := cart(req)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, c.Items, 1)
	assert.Equal(t, v, c.Items[0].VariationID)

	// a bearer token wins over the session key
	token, err := tokens.Issue(uuid.New(), false)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.SessionHeader, "shared-key")
	code, c = cart(req)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, c.Items)
	assert.True(t, c.Owner.IsUser())
}

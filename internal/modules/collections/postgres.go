package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/teashop/backend/internal/platform/database"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type postgresRepo struct {
	db *sql.DB
	q  dbtx
}

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db, q: db} }

func (r *postgresRepo) Atomic(ctx context.Context, fn func(Repository) error) error {
	if _, inTx := r.q.(*sql.Tx); inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&postgresRepo{db: r.db, q: tx})
	})
}

// ownerClause selects the single collection row that belongs to owner.
func ownerClause(owner Owner) (string, interface{}) {
	if owner.UserID != nil {
		return "user_id = $1", *owner.UserID
	}
	return "session_key = $1", owner.SessionKey
}

func ownerArgs(owner Owner) (interface{}, interface{}) {
	var session interface{}
	if owner.SessionKey != "" {
		session = owner.SessionKey
	}
	if owner.UserID != nil {
		return *owner.UserID, session
	}
	return nil, session
}

func scanOwner(userID uuid.NullUUID, session sql.NullString) Owner {
	var o Owner
	if userID.Valid {
		id := userID.UUID
		o.UserID = &id
	}
	if session.Valid {
		o.SessionKey = session.String
	}
	return o
}

// ── carts ────────────────────────────────────────────────────────────────────

func (r *postgresRepo) FindCart(ctx context.Context, owner Owner) (*Cart, error) {
	where, arg := ownerClause(owner)
	return r.scanCart(ctx, r.q.QueryRowContext(ctx,
		`SELECT id, user_id, session_key, created_at, updated_at FROM carts WHERE `+where, arg))
}

func (r *postgresRepo) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return r.scanCart(ctx, r.q.QueryRowContext(ctx,
		`SELECT id, user_id, session_key, created_at, updated_at FROM carts WHERE id = $1`, id))
}

func (r *postgresRepo) scanCart(ctx context.Context, row *sql.Row) (*Cart, error) {
	c := &Cart{}
	var (
		userID  uuid.NullUUID
		session sql.NullString
	)
	if err := row.Scan(&c.ID, &userID, &session, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, database.Translate(err, "cart")
	}
	c.Owner = scanOwner(userID, session)

	rows, err := r.q.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.variation_id, v.product_id, p.name,
		       v.text_description_of_count, v.price, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN variations v ON v.id = ci.variation_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at DESC`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	c.Items = []*CartItem{}
	for rows.Next() {
		it := &CartItem{}
		if err := rows.Scan(&it.ID, &it.CartID, &it.VariationID, &it.ProductID, &it.ProductName,
			&it.TextDescriptionOfCount, &it.Price, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *postgresRepo) CreateCart(ctx context.Context, c *Cart) error {
	userID, session := ownerArgs(c.Owner)
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id, session_key) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		c.ID, userID, session).Scan(&c.CreatedAt, &c.UpdatedAt)
	return database.Translate(err, "cart")
}

func (r *postgresRepo) SetCartOwner(ctx context.Context, id uuid.UUID, owner Owner) error {
	userID, session := ownerArgs(owner)
	res, err := r.q.ExecContext(ctx,
		`UPDATE carts SET user_id = $1, session_key = $2, updated_at = NOW() WHERE id = $3`,
		userID, session, id)
	if err != nil {
		return database.Translate(err, "cart")
	}
	return expectOne(res)
}

func (r *postgresRepo) DeleteCart(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return database.TranslateDelete(err, "cart")
	}
	return expectOne(res)
}

func (r *postgresRepo) AddCartItem(ctx context.Context, cartID, variationID uuid.UUID, quantity int) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, variation_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT cart_items_cart_variation_key
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.New(), cartID, variationID, quantity)
	if isMissingRef(err) {
		return fmt.Errorf("variation %s: %w", variationID, database.ErrNotFound)
	}
	if err != nil {
		return database.Translate(err, "cart item")
	}
	return r.touch(ctx, "carts", cartID)
}

func (r *postgresRepo) SetCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3`,
		quantity, itemID, cartID)
	if err != nil {
		return database.Translate(err, "cart item")
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return r.touch(ctx, "carts", cartID)
}

func (r *postgresRepo) RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return r.touch(ctx, "carts", cartID)
}

func (r *postgresRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	return r.touch(ctx, "carts", cartID)
}

// ── wishlists ────────────────────────────────────────────────────────────────

func (r *postgresRepo) FindWishlist(ctx context.Context, owner Owner) (*Wishlist, error) {
	where, arg := ownerClause(owner)
	return r.scanWishlist(ctx, r.q.QueryRowContext(ctx,
		`SELECT id, user_id, session_key, created_at, updated_at FROM wishlists WHERE `+where, arg))
}

func (r *postgresRepo) GetWishlist(ctx context.Context, id uuid.UUID) (*Wishlist, error) {
	return r.scanWishlist(ctx, r.q.QueryRowContext(ctx,
		`SELECT id, user_id, session_key, created_at, updated_at FROM wishlists WHERE id = $1`, id))
}

func (r *postgresRepo) scanWishlist(ctx context.Context, row *sql.Row) (*Wishlist, error) {
	w := &Wishlist{}
	var (
		userID  uuid.NullUUID
		session sql.NullString
	)
	if err := row.Scan(&w.ID, &userID, &session, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, database.Translate(err, "wishlist")
	}
	w.Owner = scanOwner(userID, session)

	rows, err := r.q.QueryContext(ctx, `
		SELECT wi.id, wi.wishlist_id, wi.product_id, p.name, wi.added_at
		FROM wishlist_items wi
		JOIN products p ON p.id = wi.product_id
		WHERE wi.wishlist_id = $1
		ORDER BY wi.added_at DESC`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()
	w.Items = []*WishlistItem{}
	for rows.Next() {
		it := &WishlistItem{}
		if err := rows.Scan(&it.ID, &it.WishlistID, &it.ProductID, &it.ProductName, &it.AddedAt); err != nil {
			return nil, err
		}
		w.Items = append(w.Items, it)
	}
	return w, rows.Err()
}

func (r *postgresRepo) CreateWishlist(ctx context.Context, w *Wishlist) error {
	userID, session := ownerArgs(w.Owner)
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO wishlists (id, user_id, session_key) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		w.ID, userID, session).Scan(&w.CreatedAt, &w.UpdatedAt)
	return database.Translate(err, "wishlist")
}

func (r *postgresRepo) SetWishlistOwner(ctx context.Context, id uuid.UUID, owner Owner) error {
	userID, session := ownerArgs(owner)
	res, err := r.q.ExecContext(ctx,
		`UPDATE wishlists SET user_id = $1, session_key = $2, updated_at = NOW() WHERE id = $3`,
		userID, session, id)
	if err != nil {
		return database.Translate(err, "wishlist")
	}
	return expectOne(res)
}

func (r *postgresRepo) DeleteWishlist(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return database.TranslateDelete(err, "wishlist")
	}
	return expectOne(res)
}

func (r *postgresRepo) AddWishlistItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO wishlist_items (id, wishlist_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT wishlist_items_wishlist_product_key DO NOTHING`,
		uuid.New(), wishlistID, productID)
	if isMissingRef(err) {
		return fmt.Errorf("product %s: %w", productID, database.ErrNotFound)
	}
	if err != nil {
		return database.Translate(err, "wishlist item")
	}
	return r.touch(ctx, "wishlists", wishlistID)
}

func (r *postgresRepo) RemoveWishlistItem(ctx context.Context, wishlistID, itemID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE id = $1 AND wishlist_id = $2`, itemID, wishlistID)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return r.touch(ctx, "wishlists", wishlistID)
}

// ── helpers ──────────────────────────────────────────────────────────────────

// touch bumps updated_at on a carts or wishlists row.
func (r *postgresRepo) touch(ctx context.Context, table string, id uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `UPDATE `+table+` SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

// isMissingRef reports an insert pointing at a row that does not exist.
func isMissingRef(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

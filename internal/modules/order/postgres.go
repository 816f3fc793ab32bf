package order

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/teashop/backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, user_id, first_name, last_name, email, phone, paid, status, created_at, updated_at`

// CreateOrder locks the variations, reserves stock and inserts the order and its
// items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.VariationID.String())
		}
		rows, err := tx.QueryContext(ctx, `
			SELECT id, price, stock, available FROM variations
			WHERE id = ANY($1::uuid[])
			ORDER BY id
			FOR UPDATE`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("lock variations: %w", err)
		}
		stock := map[uuid.UUID]Stock{}
		for rows.Next() {
			var (
				id uuid.UUID
				s  Stock
			)
			if err := rows.Scan(&id, &s.Price, &s.Stock, &s.Available); err != nil {
				rows.Close()
				return err
			}
			stock[id] = s
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		left, err := Reserve(o.Items, stock)
		if err != nil {
			return err
		}
		for id, n := range left {
			if _, err := tx.ExecContext(ctx,
				`UPDATE variations SET stock = $1, updated_at = NOW() WHERE id = $2`, n, id); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, user_id, first_name, last_name, email, phone, paid, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`,
			o.ID, o.UserID, o.FirstName, o.LastName, o.Email, o.Phone, o.Paid, o.Status,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", database.Translate(err, "order"))
		}

		for _, it := range o.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, variation_id, price, quantity)
				VALUES ($1, $2, $3, $4, $5)`,
				it.ID, o.ID, it.VariationID, it.Price, it.Quantity)
			if err != nil {
				return fmt.Errorf("insert order_item: %w", database.Translate(err, "order item"))
			}
		}
		return nil
	})
}

func (r *postgresRepo) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.UserID, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
		&o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, database.Translate(err, "order")
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Paid != nil {
		args = append(args, *f.Paid)
		where = append(where, fmt.Sprintf("paid = $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
			&o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			to, id, from)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrInvalidTransition)
		}
		if to != StatusCanceled {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE variations v
			SET stock = v.stock + oi.quantity, updated_at = NOW()
			FROM order_items oi
			WHERE oi.order_id = $1 AND v.id = oi.variation_id`, id)
		if err != nil {
			return fmt.Errorf("restock canceled order: %w", err)
		}
		return nil
	})
}

func (r *postgresRepo) SetPaid(ctx context.Context, id uuid.UUID, paid bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET paid = $1, updated_at = NOW() WHERE id = $2`, paid, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// loadItems fills Items for every order with one query.
func (r *postgresRepo) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.variation_id, p.name, v.text_description_of_count,
		       oi.price, oi.quantity
		FROM order_items oi
		JOIN variations v ON v.id = oi.variation_id
		JOIN products p ON p.id = v.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY p.name, v.text_description_of_count`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariationID, &it.ProductName,
			&it.TextDescriptionOfCount, &it.Price, &it.Quantity); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

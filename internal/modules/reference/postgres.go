package reference

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// table names are taken from the Kind constants only, never from user input.

func (r *postgresRepo) Create(ctx context.Context, item *Item) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2)`, item.Kind), item.ID, item.Name)
	return database.Translate(err, item.Kind.Entity())
}

func (r *postgresRepo) Get(ctx context.Context, kind Kind, id uuid.UUID) (*Item, error) {
	item := &Item{Kind: kind}
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE id=$1`, kind), id).Scan(&item.ID, &item.Name)
	if err != nil {
		return nil, database.Translate(err, kind.Entity())
	}
	return item, nil
}

func (r *postgresRepo) List(ctx context.Context, kind Kind) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name`, kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepo) Rename(ctx context.Context, kind Kind, id uuid.UUID, name string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET name=$1 WHERE id=$2`, kind), name, id)
	if err != nil {
		return database.Translate(err, kind.Entity())
	}
	return expectOne(res)
}

func (r *postgresRepo) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, kind), id)
	if err != nil {
		return database.TranslateDelete(err, kind.Entity())
	}
	return expectOne(res)
}

func (r *postgresRepo) Usage(ctx context.Context, kind Kind, id uuid.UUID) (Usage, error) {
	var u Usage
	var err error
	switch kind {
	case KindCountry:
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE country_id=$1`, id).Scan(&u.Products)
	case KindManufacturer:
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE manufacturer_id=$1`, id).Scan(&u.Products)
	case KindTeaCategory:
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tea_attributes WHERE category_id=$1`, id).Scan(&u.Products)
	case KindAccessoryType:
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accessory_attributes WHERE accessory_type_id=$1`, id).Scan(&u.Products)
	case KindAroma:
		err = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FILTER (WHERE p.product_type = 'coffee'),
			       COUNT(*) FILTER (WHERE p.product_type = 'tea')
			FROM attribute_aromas a JOIN products p ON p.id = a.product_id
			WHERE a.aroma_id=$1`, id).Scan(&u.Coffee, &u.Tea)
	case KindAdditive:
		err = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FILTER (WHERE p.product_type = 'coffee'),
			       COUNT(*) FILTER (WHERE p.product_type = 'tea')
			FROM attribute_additives a JOIN products p ON p.id = a.product_id
			WHERE a.additive_id=$1`, id).Scan(&u.Coffee, &u.Tea)
	}
	return u, err
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

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/teashop/backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO products
			  (id, name, description, manufacturer_id, country_id, region, product_type, available)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at, updated_at`,
			p.ID, p.Name, p.Description, p.ManufacturerID, p.CountryID,
			p.Region, p.Type, p.Available).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		return saveAttributes(ctx, tx, p.ID, p.Attributes)
	})
	return database.Translate(err, "product")
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name=$1, description=$2, manufacturer_id=$3, country_id=$4, region=$5,
			    product_type=$6, available=$7, updated_at=NOW()
			WHERE id=$8`,
			p.Name, p.Description, p.ManufacturerID, p.CountryID, p.Region,
			p.Type, p.Available, p.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return saveAttributes(ctx, tx, p.ID, p.Attributes)
	})
	return database.Translate(err, "product")
}

// saveAttributes replaces whatever attribute record the product had.
func saveAttributes(ctx context.Context, tx *sql.Tx, productID uuid.UUID, a Attributes) error {
	for _, q := range []string{
		`DELETE FROM coffee_attributes WHERE product_id=$1`,
		`DELETE FROM tea_attributes WHERE product_id=$1`,
		`DELETE FROM accessory_attributes WHERE product_id=$1`,
		`DELETE FROM attribute_aromas WHERE product_id=$1`,
		`DELETE FROM attribute_additives WHERE product_id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, q, productID); err != nil {
			return err
		}
	}

	var aromas, additives []uuid.UUID
	switch a := a.(type) {
	case nil:
		return nil
	case *CoffeeAttributes:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO coffee_attributes
			  (product_id, coffee_type, roast, q_grading, arabica_percent, robusta_percent, liberica_percent)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			productID, a.CoffeeType, a.Roast, a.QGrading,
			a.ArabicaPercent, a.RobustaPercent, a.LibericaPercent)
		if err != nil {
			return fmt.Errorf("insert coffee attributes: %w", err)
		}
		aromas, additives = a.AromaIDs, a.AdditiveIDs
	case *TeaAttributes:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tea_attributes (product_id, tea_type, category_id) VALUES ($1,$2,$3)`,
			productID, a.TeaType, a.CategoryID)
		if err != nil {
			return fmt.Errorf("insert tea attributes: %w", err)
		}
		aromas, additives = a.AromaIDs, a.AdditiveIDs
	case *AccessoryAttributes:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accessory_attributes (product_id, accessory_type_id, volume) VALUES ($1,$2,$3)`,
			productID, a.AccessoryTypeID, a.Volume)
		if err != nil {
			return fmt.Errorf("insert accessory attributes: %w", err)
		}
	}

	if len(aromas) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attribute_aromas (product_id, aroma_id)
			SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
			productID, pq.Array(uuidStrings(aromas))); err != nil {
			return fmt.Errorf("link aromas: %w", err)
		}
	}
	if len(additives) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attribute_additives (product_id, additive_id)
			SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
			productID, pq.Array(uuidStrings(additives))); err != nil {
			return fmt.Errorf("link additives: %w", err)
		}
	}
	return nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, manufacturer_id, country_id, region, product_type, available,
		       created_at, updated_at
		FROM products WHERE id=$1`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.ManufacturerID, &p.CountryID, &p.Region,
		&p.Type, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, database.Translate(err, "product")
	}
	if p.Attributes, err = r.loadAttributes(ctx, p.ID, p.Type); err != nil {
		return nil, err
	}
	if p.Variations, err = r.ListVariations(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) loadAttributes(ctx context.Context, productID uuid.UUID, t ProductType) (Attributes, error) {
	var (
		a   Attributes
		err error
	)
	switch t {
	case TypeCoffee:
		c := &CoffeeAttributes{}
		err = r.db.QueryRowContext(ctx, `
			SELECT coffee_type, roast, q_grading, arabica_percent, robusta_percent, liberica_percent
			FROM coffee_attributes WHERE product_id=$1`, productID).Scan(
			&c.CoffeeType, &c.Roast, &c.QGrading, &c.ArabicaPercent, &c.RobustaPercent, &c.LibericaPercent)
		if err == nil {
			c.AromaIDs, c.AdditiveIDs, err = r.loadLinks(ctx, productID)
		}
		a = c
	case TypeTea:
		tea := &TeaAttributes{}
		err = r.db.QueryRowContext(ctx,
			`SELECT tea_type, category_id FROM tea_attributes WHERE product_id=$1`, productID).Scan(
			&tea.TeaType, &tea.CategoryID)
		if err == nil {
			tea.AromaIDs, tea.AdditiveIDs, err = r.loadLinks(ctx, productID)
		}
		a = tea
	case TypeAccessory:
		acc := &AccessoryAttributes{}
		err = r.db.QueryRowContext(ctx,
			`SELECT accessory_type_id, volume FROM accessory_attributes WHERE product_id=$1`, productID).Scan(
			&acc.AccessoryTypeID, &acc.Volume)
		a = acc
	default:
		return nil, nil
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s attributes: %w", t, err)
	}
	return a, nil
}

func (r *postgresRepo) loadLinks(ctx context.Context, productID uuid.UUID) (aromas, additives []uuid.UUID, err error) {
	var rawAromas, rawAdditives pq.StringArray
	err = r.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE((SELECT array_agg(aroma_id::text) FROM attribute_aromas WHERE product_id=$1), '{}'),
		  COALESCE((SELECT array_agg(additive_id::text) FROM attribute_additives WHERE product_id=$1), '{}')`,
		productID).Scan(&rawAromas, &rawAdditives)
	if err != nil {
		return nil, nil, err
	}
	if aromas, err = parseUUIDs(rawAromas); err != nil {
		return nil, nil, err
	}
	additives, err = parseUUIDs(rawAdditives)
	return aromas, additives, err
}

func (r *postgresRepo) ListProducts(ctx context.Context, f ProductFilter) ([]*ProductSummary, error) {
	query := `
		SELECT p.id, p.name, p.product_type, p.manufacturer_id, p.country_id, p.available,
		       (EXISTS (SELECT 1 FROM coffee_attributes WHERE product_id = p.id)
		        OR EXISTS (SELECT 1 FROM tea_attributes WHERE product_id = p.id)
		        OR EXISTS (SELECT 1 FROM accessory_attributes WHERE product_id = p.id)),
		       COUNT(v.id), COALESCE(SUM(v.stock), 0)
		FROM products p
		LEFT JOIN variations v ON v.product_id = p.id
		WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.Type != "" {
		query += fmt.Sprintf(` AND p.product_type=$%d`, n)
		args = append(args, f.Type)
		n++
	}
	if f.Available != nil {
		query += fmt.Sprintf(` AND p.available=$%d`, n)
		args = append(args, *f.Available)
		n++
	}
	if f.CountryID != nil {
		query += fmt.Sprintf(` AND p.country_id=$%d`, n)
		args = append(args, *f.CountryID)
		n++
	}
	if f.ManufacturerID != nil {
		query += fmt.Sprintf(` AND p.manufacturer_id=$%d`, n)
		args = append(args, *f.ManufacturerID)
		n++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND (p.name ILIKE $%d OR p.description ILIKE $%d)`, n, n)
		args = append(args, "%"+f.Search+"%")
		n++
	}
	query += ` GROUP BY p.id ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ProductSummary
	for rows.Next() {
		s := &ProductSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.ManufacturerID, &s.CountryID, &s.Available,
			&s.HasAttributes, &s.VariationsCount, &s.TotalStock); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return database.TranslateDelete(err, "product")
	}
	return expectOne(res)
}

// ── variations ───────────────────────────────────────────────────────────────

const selectVariation = `
	SELECT id, product_id, price, weight, pieces, text_description_of_count, stock, available,
	       created_at, updated_at
	FROM variations`

func scanVariation(scan func(...interface{}) error) (*Variation, error) {
	v := &Variation{}
	err := scan(&v.ID, &v.ProductID, &v.Price, &v.Weight, &v.Pieces,
		&v.TextDescriptionOfCount, &v.Stock, &v.Available, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *postgresRepo) CreateVariation(ctx context.Context, v *Variation) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO variations
		  (id, product_id, price, weight, pieces, text_description_of_count, stock, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		v.ID, v.ProductID, v.Price, v.Weight, v.Pieces,
		v.TextDescriptionOfCount, v.Stock, v.Available).Scan(&v.CreatedAt, &v.UpdatedAt)
	return database.Translate(err, "variation")
}

func (r *postgresRepo) GetVariation(ctx context.Context, id uuid.UUID) (*Variation, error) {
	v, err := scanVariation(r.db.QueryRowContext(ctx, selectVariation+` WHERE id=$1`, id).Scan)
	if err != nil {
		return nil, database.Translate(err, "variation")
	}
	return v, nil
}

func (r *postgresRepo) UpdateVariation(ctx context.Context, v *Variation) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE variations
		SET price=$1, weight=$2, pieces=$3, text_description_of_count=$4, stock=$5,
		    available=$6, updated_at=NOW()
		WHERE id=$7
		RETURNING updated_at`,
		v.Price, v.Weight, v.Pieces, v.TextDescriptionOfCount, v.Stock, v.Available, v.ID).Scan(&v.UpdatedAt)
	return database.Translate(err, "variation")
}

func (r *postgresRepo) DeleteVariation(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM variations WHERE id=$1`, id)
	if err != nil {
		return database.TranslateDelete(err, "variation")
	}
	return expectOne(res)
}

func (r *postgresRepo) ListVariations(ctx context.Context, productID uuid.UUID) ([]*Variation, error) {
	return r.queryVariations(ctx,
		selectVariation+` WHERE product_id=$1 ORDER BY text_description_of_count`, productID)
}

func (r *postgresRepo) ListVariationsByStock(ctx context.Context, sr StockRange) ([]*Variation, error) {
	if sr.Bounded {
		return r.queryVariations(ctx,
			selectVariation+` WHERE stock >= $1 AND stock <= $2 ORDER BY product_id, text_description_of_count`,
			sr.Min, sr.Max)
	}
	return r.queryVariations(ctx,
		selectVariation+` WHERE stock >= $1 ORDER BY product_id, text_description_of_count`, sr.Min)
}

func (r *postgresRepo) queryVariations(ctx context.Context, query string, args ...interface{}) ([]*Variation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Variation
	for rows.Next() {
		v, err := scanVariation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

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

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/teashop/backend/internal/modules/validation"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// constraintFields names the fields behind each constraint declared in schema.sql.
var constraintFields = map[string][]string{
	"countries_name_key":                  {"name"},
	"manufacturers_name_key":              {"name"},
	"aromas_name_key":                     {"name"},
	"additives_name_key":                  {"name"},
	"users_email_key":                     {"email"},
	"variations_product_description_key":  {"product", "text_description_of_count"},
	"variations_price_check":              {"price"},
	"variations_stock_check":              {"stock"},
	"coffee_attributes_percent_check":     {"arabica_percent", "robusta_percent", "liberica_percent"},
	"carts_user_id_key":                   {"user"},
	"carts_session_key_key":               {"session_key"},
	"carts_owner_check":                   {"user", "session_key"},
	"wishlists_user_id_key":               {"user"},
	"wishlists_session_key_key":           {"session_key"},
	"wishlists_owner_check":               {"user", "session_key"},
	"cart_items_cart_variation_key":       {"cart", "variation"},
	"cart_items_quantity_check":           {"quantity"},
	"wishlist_items_wishlist_product_key": {"wishlist", "product"},
	"order_items_quantity_check":          {"quantity"},
}

// referenceFields names the referencing column behind each foreign key, following
// PostgreSQL's default <table>_<column>_fkey naming.
var referenceFields = map[string]string{
	"products_manufacturer_id_fkey":               "manufacturer_id",
	"products_country_id_fkey":                    "country_id",
	"tea_attributes_category_id_fkey":             "category_id",
	"accessory_attributes_accessory_type_id_fkey": "accessory_type_id",
	"attribute_aromas_aroma_id_fkey":              "aroma_ids",
	"attribute_additives_additive_id_fkey":        "additive_ids",
	"variations_product_id_fkey":                  "product_id",
	"carts_user_id_fkey":                          "user",
	"wishlists_user_id_fkey":                      "user",
	"cart_items_variation_id_fkey":                "variation_id",
	"wishlist_items_product_id_fkey":              "product_id",
	"orders_user_id_fkey":                         "user",
	"order_items_variation_id_fkey":               "variation_id",
}

// Translate maps driver errors raised by reads, inserts and updates onto the
// validation taxonomy. A foreign key violation there means the row points at a
// record that does not exist, so it becomes ErrNotFound naming the field.
func Translate(err error, entity string) error {
	return translate(err, entity, false)
}

// TranslateDelete is Translate for DELETE statements: a foreign key violation
// means other records still reference the row.
func TranslateDelete(err error, entity string) error {
	return translate(err, entity, true)
}

func translate(err error, entity string, deleting bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	fields := constraintFields[pqErr.Constraint]
	switch pqErr.Code {
	case codeUniqueViolation:
		return &validation.UniquenessError{Entity: entity, Fields: fields}
	case codeForeignKeyViolation:
		if deleting {
			return &validation.ProtectedError{Entity: entity}
		}
		ref, ok := referenceFields[pqErr.Constraint]
		if !ok {
			ref = "referenced record"
		}
		return fmt.Errorf("%s: unknown %s: %w", entity, ref, ErrNotFound)
	case codeCheckViolation:
		if pqErr.Constraint == "carts_owner_check" || pqErr.Constraint == "wishlists_owner_check" {
			return &validation.OwnershipError{First: "user", Second: "session_key"}
		}
		return &validation.RangeError{Fields: fields, Msg: "value out of range"}
	}
	return err
}

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/validation"
)

// ProductType is the discriminant selecting which typed attribute record a product carries.
type ProductType string

const (
	TypeTea       ProductType = "tea"
	TypeCoffee    ProductType = "coffee"
	TypeAccessory ProductType = "accessory"
)

// ParseProductType rejects anything outside the three known product types.
func ParseProductType(s string) (ProductType, error) {
	switch t := ProductType(s); t {
	case TypeTea, TypeCoffee, TypeAccessory:
		return t, nil
	}
	return "", &validation.ConsistencyError{Msg: fmt.Sprintf("product type %q is not correct", s)}
}

// Product is a catalog entry. It owns at most one typed attribute record, matching
// Type, and its sellable variations.
type Product struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	ManufacturerID uuid.UUID    `json:"manufacturer_id"`
	CountryID      uuid.UUID    `json:"country_id"`
	Region         *string      `json:"region,omitempty"`
	Type           ProductType  `json:"product_type"`
	Available      bool         `json:"available"`
	Attributes     Attributes   `json:"attributes,omitempty"`
	Variations     []*Variation `json:"variations,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Attach sets the product's typed attributes. The attribute kind must match the
// product type; a nil value detaches the current record.
func (p *Product) Attach(a Attributes) error {
	if a == nil {
		p.Attributes = nil
		return nil
	}
	if a.Kind() != p.Type {
		return &validation.ConsistencyError{
			Msg: fmt.Sprintf("product of type %s cannot carry %s attributes", p.Type, a.Kind()),
		}
	}
	if err := a.Validate(); err != nil {
		return err
	}
	p.Attributes = a
	return nil
}

// VariationsCount is the number of loaded variations.
func (p *Product) VariationsCount() int { return len(p.Variations) }

// TotalStock sums stock over the loaded variations.
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variations {
		total += v.Stock
	}
	return total
}

// ProductSummary is a list row with the admin aggregates.
type ProductSummary struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Type            ProductType `json:"product_type"`
	ManufacturerID  uuid.UUID   `json:"manufacturer_id"`
	CountryID       uuid.UUID   `json:"country_id"`
	Available       bool        `json:"available"`
	HasAttributes   bool        `json:"has_attributes"`
	VariationsCount int         `json:"variations_count"`
	TotalStock      int         `json:"total_stock"`
}

// ProductFilter narrows ListProducts. Zero values do not filter.
type ProductFilter struct {
	Type           ProductType
	Available      *bool
	CountryID      *uuid.UUID
	ManufacturerID *uuid.UUID
	Search         string
}

// Variation is a sellable SKU of a product.
type Variation struct {
	ID                     uuid.UUID       `json:"id"`
	ProductID              uuid.UUID       `json:"product_id"`
	Price                  decimal.Decimal `json:"price"`
	Weight                 int             `json:"weight"`
	Pieces                 int             `json:"pieces"`
	TextDescriptionOfCount string          `json:"text_description_of_count"`
	Stock                  int             `json:"stock"`
	Available              bool            `json:"available"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Validate checks field ranges before a variation is written.
func (v *Variation) Validate() error {
	var fields, msgs []string
	if v.Price.IsNegative() {
		fields, msgs = append(fields, "price"), append(msgs, "price must not be negative")
	}
	if v.Weight < 0 {
		fields, msgs = append(fields, "weight"), append(msgs, "weight must not be negative")
	}
	if v.Pieces < 0 {
		fields, msgs = append(fields, "pieces"), append(msgs, "pieces must not be negative")
	}
	if v.Stock < 0 {
		fields, msgs = append(fields, "stock"), append(msgs, "stock must not be negative")
	}
	if v.TextDescriptionOfCount == "" || len([]rune(v.TextDescriptionOfCount)) > 100 {
		fields = append(fields, "text_description_of_count")
		msgs = append(msgs, "text_description_of_count must be 1-100 characters")
	}
	if len(fields) == 0 {
		return nil
	}
	return &validation.RangeError{Fields: fields, Msg: strings.Join(msgs, "; ")}
}


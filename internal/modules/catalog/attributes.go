package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/validation"
)

// Attributes is the typed attribute record of a product. Only the three variants in
// this package implement it.
type Attributes interface {
	Kind() ProductType
	Validate() error
	sealed()
}

type CoffeeType string

const (
	CoffeeCapsules CoffeeType = "capsules"
	CoffeeGround   CoffeeType = "ground"
	CoffeeBeans    CoffeeType = "beans"
)

type Roast string

const (
	RoastLight  Roast = "light"
	RoastMedium Roast = "medium"
	RoastDark   Roast = "dark"
)

type TeaType string

const (
	TeaBagged TeaType = "bagged"
	TeaLoose  TeaType = "loose"
)

var (
	maxQGrading = decimal.NewFromInt(100)
	maxVolume   = decimal.NewFromInt(1000)
)

// CoffeeAttributes describes a coffee product. The varietal percentages must sum
// to 100 when all three are given.
type CoffeeAttributes struct {
	CoffeeType      CoffeeType          `json:"coffee_type" validate:"oneof=capsules ground beans"`
	Roast           Roast               `json:"roast" validate:"oneof=light medium dark"`
	QGrading        decimal.NullDecimal `json:"q_grading"`
	ArabicaPercent  *int                `json:"arabica_percent" validate:"omitempty,gte=0,lte=100"`
	RobustaPercent  *int                `json:"robusta_percent" validate:"omitempty,gte=0,lte=100"`
	LibericaPercent *int                `json:"liberica_percent" validate:"omitempty,gte=0,lte=100"`
	AromaIDs        []uuid.UUID         `json:"aroma_ids"`
	AdditiveIDs     []uuid.UUID         `json:"additive_ids"`
}

func (*CoffeeAttributes) Kind() ProductType { return TypeCoffee }
func (*CoffeeAttributes) sealed()           {}

func (a *CoffeeAttributes) Validate() error {
	if err := validation.Struct(a); err != nil {
		return err
	}
	if a.QGrading.Valid && (a.QGrading.Decimal.IsNegative() || a.QGrading.Decimal.GreaterThanOrEqual(maxQGrading)) {
		return &validation.RangeError{Fields: []string{"q_grading"}, Msg: "q_grading must be between 0 and 99.99"}
	}
	return validation.PercentagesSumTo100(
		validation.Percent{Name: "arabica_percent", Value: a.ArabicaPercent},
		validation.Percent{Name: "robusta_percent", Value: a.RobustaPercent},
		validation.Percent{Name: "liberica_percent", Value: a.LibericaPercent},
	)
}

// TeaAttributes describes a tea product.
type TeaAttributes struct {
	TeaType     TeaType     `json:"tea_type" validate:"oneof=bagged loose"`
	CategoryID  uuid.UUID   `json:"category_id"`
	AromaIDs    []uuid.UUID `json:"aroma_ids"`
	AdditiveIDs []uuid.UUID `json:"additive_ids"`
}

func (*TeaAttributes) Kind() ProductType { return TypeTea }
func (*TeaAttributes) sealed()           {}

func (a *TeaAttributes) Validate() error {
	if err := validation.Struct(a); err != nil {
		return err
	}
	if a.CategoryID == uuid.Nil {
		return &validation.RangeError{Fields: []string{"category_id"}, Msg: "category_id is required"}
	}
	return nil
}

// AccessoryAttributes describes an accessory. Volume is in litres.
type AccessoryAttributes struct {
	AccessoryTypeID uuid.UUID           `json:"accessory_type_id"`
	Volume          decimal.NullDecimal `json:"volume"`
}

func (*AccessoryAttributes) Kind() ProductType { return TypeAccessory }
func (*AccessoryAttributes) sealed()           {}

func (a *AccessoryAttributes) Validate() error {
	if a.AccessoryTypeID == uuid.Nil {
		return &validation.RangeError{Fields: []string{"accessory_type_id"}, Msg: "accessory_type_id is required"}
	}
	if a.Volume.Valid && (a.Volume.Decimal.IsNegative() || a.Volume.Decimal.GreaterThanOrEqual(maxVolume)) {
		return &validation.RangeError{Fields: []string{"volume"}, Msg: "volume must be between 0 and 999.99"}
	}
	return nil
}

// AttributesRequest carries at most one typed attribute record. The populated
// variant must match the product type.
type AttributesRequest struct {
	Coffee    *CoffeeAttributes    `json:"coffee,omitempty"`
	Tea       *TeaAttributes       `json:"tea,omitempty"`
	Accessory *AccessoryAttributes `json:"accessory,omitempty"`
}

// Attributes returns the single populated variant, or nil when none is set.
func (r AttributesRequest) Attributes() (Attributes, error) {
	var found []Attributes
	if r.Coffee != nil {
		found = append(found, r.Coffee)
	}
	if r.Tea != nil {
		found = append(found, r.Tea)
	}
	if r.Accessory != nil {
		found = append(found, r.Accessory)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	return nil, &validation.ConsistencyError{Msg: "a product may carry only one typed attribute record"}
}

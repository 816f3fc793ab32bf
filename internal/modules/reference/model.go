package reference

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/platform/web"
)

// Kind selects one of the lookup tables shared by catalog entities.
type Kind string

const (
	KindCountry       Kind = "countries"
	KindManufacturer  Kind = "manufacturers"
	KindAroma         Kind = "aromas"
	KindAdditive      Kind = "additives"
	KindTeaCategory   Kind = "tea_categories"
	KindAccessoryType Kind = "accessory_types"
)

// Kinds lists every lookup table in dependency-free order.
var Kinds = []Kind{KindCountry, KindManufacturer, KindAroma, KindAdditive, KindTeaCategory, KindAccessoryType}

// ParseKind validates a kind taken from a URL.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown reference kind %q: %w", s, web.ErrBadRequest)
}

// Entity names a single record of the kind, used in error messages.
func (k Kind) Entity() string {
	switch k {
	case KindCountry:
		return "country"
	case KindManufacturer:
		return "manufacturer"
	case KindAroma:
		return "aroma"
	case KindAdditive:
		return "additive"
	case KindTeaCategory:
		return "tea category"
	case KindAccessoryType:
		return "accessory type"
	}
	return string(k)
}

// Item is a key/name lookup record.
type Item struct {
	ID   uuid.UUID `json:"id"`
	Kind Kind      `json:"kind"`
	Name string    `json:"name"`
}

// Usage counts the catalog records referencing an item.
type Usage struct {
	Products int `json:"products"`
	Coffee   int `json:"coffee,omitempty"`
	Tea      int `json:"tea,omitempty"`
}

// Total is the number of places the item is used.
func (u Usage) Total() int { return u.Products + u.Coffee + u.Tea }

// NameRequest is the payload for creating or renaming an item.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

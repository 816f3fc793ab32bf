package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines catalog storage. Product writes persist the typed attribute
// record in the same transaction as the product row.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*ProductSummary, error)
	UpdateProduct(ctx context.Context, p *Product) error
	// DeleteProduct cascades to the attribute record and variations.
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateVariation(ctx context.Context, v *Variation) error
	GetVariation(ctx context.Context, id uuid.UUID) (*Variation, error)
	UpdateVariation(ctx context.Context, v *Variation) error
	// DeleteVariation fails while any order item references the variation.
	DeleteVariation(ctx context.Context, id uuid.UUID) error
	ListVariations(ctx context.Context, productID uuid.UUID) ([]*Variation, error)
	ListVariationsByStock(ctx context.Context, r StockRange) ([]*Variation, error)
}

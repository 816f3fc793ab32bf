package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/web"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*ProductSummary, error)
	UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// AttachAttributes replaces the product's typed attribute record.
	AttachAttributes(ctx context.Context, id string, req AttributesRequest) (*Product, error)

	CreateVariation(ctx context.Context, productID string, req VariationRequest) (*Variation, error)
	GetVariation(ctx context.Context, id string) (*Variation, error)
	UpdateVariation(ctx context.Context, id string, req VariationRequest) (*Variation, error)
	DeleteVariation(ctx context.Context, id string) error
	ListVariations(ctx context.Context, productID string) ([]*Variation, error)
	ListVariationsByStock(ctx context.Context, stockRange string) ([]*Variation, error)
}

// ProductRequest holds the data for creating or updating a product. Attributes are
// optional; when present their kind must match ProductType.
type ProductRequest struct {
	Name           string    `json:"name" validate:"required,max=200"`
	Description    string    `json:"description"`
	ManufacturerID uuid.UUID `json:"manufacturer_id"`
	CountryID      uuid.UUID `json:"country_id"`
	Region         *string   `json:"region" validate:"omitempty,max=100"`
	ProductType    string    `json:"product_type"`
	Available      *bool     `json:"available"`
	AttributesRequest
}

// VariationRequest holds the data for creating or updating a variation.
type VariationRequest struct {
	Price                  decimal.Decimal `json:"price"`
	Weight                 int             `json:"weight"`
	Pieces                 int             `json:"pieces"`
	TextDescriptionOfCount string          `json:"text_description_of_count"`
	Stock                  int             `json:"stock"`
	Available              *bool           `json:"available"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func parseID(kind, id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, id, web.ErrBadRequest)
	}
	return uid, nil
}

func (req *ProductRequest) validate() (ProductType, Attributes, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return "", nil, err
	}
	var missing []string
	if req.ManufacturerID == uuid.Nil {
		missing = append(missing, "manufacturer_id")
	}
	if req.CountryID == uuid.Nil {
		missing = append(missing, "country_id")
	}
	if len(missing) > 0 {
		return "", nil, &validation.RangeError{Fields: missing, Msg: "required"}
	}
	t, err := ParseProductType(req.ProductType)
	if err != nil {
		return "", nil, err
	}
	attrs, err := req.Attributes()
	if err != nil {
		return "", nil, err
	}
	return t, attrs, nil
}

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	t, attrs, err := req.validate()
	if err != nil {
		return nil, err
	}
	p := &Product{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		ManufacturerID: req.ManufacturerID,
		CountryID:      req.CountryID,
		Region:         req.Region,
		Type:           t,
		Available:      req.Available == nil || *req.Available,
	}
	if err := p.Attach(attrs); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	uid, err := parseID("product", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, uid)
}

func (s *service) ListProducts(ctx context.Context, f ProductFilter) ([]*ProductSummary, error) {
	if f.Type != "" {
		if _, err := ParseProductType(string(f.Type)); err != nil {
			return nil, err
		}
	}
	return s.repo.ListProducts(ctx, f)
}

func (s *service) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error) {
	uid, err := parseID("product", id)
	if err != nil {
		return nil, err
	}
	t, attrs, err := req.validate()
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, uid)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Description = req.Description
	p.ManufacturerID = req.ManufacturerID
	p.CountryID = req.CountryID
	p.Region = req.Region
	p.Type = t
	if req.Available != nil {
		p.Available = *req.Available
	}
	if attrs == nil {
		// keep the stored record; it must still agree with the (possibly new) type
		attrs = p.Attributes
	}
	if err := p.Attach(attrs); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	uid, err := parseID("product", id)
	if err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, uid)
}

func (s *service) AttachAttributes(ctx context.Context, id string, req AttributesRequest) (*Product, error) {
	uid, err := parseID("product", id)
	if err != nil {
		return nil, err
	}
	attrs, err := req.Attributes()
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := p.Attach(attrs); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ── variations ───────────────────────────────────────────────────────────────

func (s *service) CreateVariation(ctx context.Context, productID string, req VariationRequest) (*Variation, error) {
	pid, err := parseID("product", productID)
	if err != nil {
		return nil, err
	}
	v := &Variation{
		ID:                     uuid.New(),
		ProductID:              pid,
		Price:                  req.Price,
		Weight:                 req.Weight,
		Pieces:                 req.Pieces,
		TextDescriptionOfCount: strings.TrimSpace(req.TextDescriptionOfCount),
		Stock:                  req.Stock,
		Available:              req.Available == nil || *req.Available,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueDescription(ctx, v); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVariation(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ensureUniqueDescription enforces (product, text_description_of_count) uniqueness
// before the write; the storage constraint still backs it under concurrency.
func (s *service) ensureUniqueDescription(ctx context.Context, v *Variation) error {
	siblings, err := s.repo.ListVariations(ctx, v.ProductID)
	if err != nil {
		return err
	}
	for _, other := range siblings {
		if other.ID != v.ID && other.TextDescriptionOfCount == v.TextDescriptionOfCount {
			return &validation.UniquenessError{
				Entity: "variation",
				Fields: []string{"product", "text_description_of_count"},
			}
		}
	}
	return nil
}

func (s *service) GetVariation(ctx context.Context, id string) (*Variation, error) {
	uid, err := parseID("variation", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetVariation(ctx, uid)
}

func (s *service) UpdateVariation(ctx context.Context, id string, req VariationRequest) (*Variation, error) {
	uid, err := parseID("variation", id)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.GetVariation(ctx, uid)
	if err != nil {
		return nil, err
	}
	v.Price = req.Price
	v.Weight = req.Weight
	v.Pieces = req.Pieces
	v.TextDescriptionOfCount = strings.TrimSpace(req.TextDescriptionOfCount)
	v.Stock = req.Stock
	if req.Available != nil {
		v.Available = *req.Available
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueDescription(ctx, v); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVariation(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) DeleteVariation(ctx context.Context, id string) error {
	uid, err := parseID("variation", id)
	if err != nil {
		return err
	}
	return s.repo.DeleteVariation(ctx, uid)
}

func (s *service) ListVariations(ctx context.Context, productID string) ([]*Variation, error) {
	pid, err := parseID("product", productID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVariations(ctx, pid)
}

func (s *service) ListVariationsByStock(ctx context.Context, stockRange string) ([]*Variation, error) {
	sr, err := ParseStockRange(stockRange)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVariationsByStock(ctx, sr)
}

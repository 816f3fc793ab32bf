package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teashop/backend/internal/platform/web"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(staffOnly)
		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Get("/products/{id}", h.getProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Put("/products/{id}/attributes", h.attachAttributes)
		r.Get("/products/{id}/variations", h.listVariations)
		r.Post("/products/{id}/variations", h.createVariation)
		r.Get("/variations", h.listVariationsByStock) // ?stock=low | ?stock=[1, 9]
		r.Get("/variations/{id}", h.getVariation)
		r.Put("/variations/{id}", h.updateVariation)
		r.Delete("/variations/{id}", h.deleteVariation)
	})

	// Used by the cart item editor to repopulate the variation list once a product is picked.
	r.With(staffOnly).Get("/products/get-variations/{product_id}/", h.getVariationsForProduct)
	r.With(staffOnly).Get("/api/v1/products/get-variations/{product_id}/", h.getVariationsForProduct)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	products, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		web.Error(w, err)
		return
	}
	if products == nil {
		products = []*ProductSummary{}
	}
	web.Respond(w, http.StatusOK, products)
}

func parseProductFilter(r *http.Request) (ProductFilter, error) {
	q := r.URL.Query()
	f := ProductFilter{Type: ProductType(q.Get("type")), Search: q.Get("q")}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid available flag: %w", web.ErrBadRequest)
		}
		f.Available = &b
	}
	for param, dst := range map[string]**uuid.UUID{
		"country_id":      &f.CountryID,
		"manufacturer_id": &f.ManufacturerID,
	} {
		if v := q.Get(param); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return f, fmt.Errorf("invalid %s: %w", param, web.ErrBadRequest)
			}
			*dst = &id
		}
	}
	return f, nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, productView{Product: p, VariationsCount: p.VariationsCount(), TotalStock: p.TotalStock()})
}

// productView adds the read-only admin aggregates to a product.
type productView struct {
	*Product
	VariationsCount int `json:"variations_count"`
	TotalStock      int `json:"total_stock"`
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachAttributes(w http.ResponseWriter, r *http.Request) {
	var req AttributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	p, err := h.service.AttachAttributes(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, p)
}

func (h *Handler) listVariations(w http.ResponseWriter, r *http.Request) {
	vs, err := h.service.ListVariations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	if vs == nil {
		vs = []*Variation{}
	}
	web.Respond(w, http.StatusOK, vs)
}

func (h *Handler) createVariation(w http.ResponseWriter, r *http.Request) {
	var req VariationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	v, err := h.service.CreateVariation(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, v)
}

func (h *Handler) listVariationsByStock(w http.ResponseWriter, r *http.Request) {
	vs, err := h.service.ListVariationsByStock(r.Context(), r.URL.Query().Get("stock"))
	if err != nil {
		web.Error(w, err)
		return
	}
	if vs == nil {
		vs = []*Variation{}
	}
	web.Respond(w, http.StatusOK, vs)
}

func (h *Handler) getVariation(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetVariation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, v)
}

func (h *Handler) updateVariation(w http.ResponseWriter, r *http.Request) {
	var req VariationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	v, err := h.service.UpdateVariation(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, v)
}

func (h *Handler) deleteVariation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVariation(r.Context(), chi.URLParam(r, "id")); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VariationOption is one entry of the get-variations response.
type VariationOption struct {
	ID                     uuid.UUID `json:"id"`
	TextDescriptionOfCount string    `json:"text_description_of_count"`
	Price                  string    `json:"price"`
}

// VariationsResponse is the get-variations payload. Lookup failures are reported in
// Error with Success=false rather than as an HTTP error status.
type VariationsResponse struct {
	Success    bool              `json:"success"`
	Variations []VariationOption `json:"variations"`
	Error      string            `json:"error,omitempty"`
}

func (h *Handler) getVariationsForProduct(w http.ResponseWriter, r *http.Request) {
	vs, err := h.service.ListVariations(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		web.Respond(w, http.StatusOK, VariationsResponse{Variations: []VariationOption{}, Error: err.Error()})
		return
	}
	opts := make([]VariationOption, 0, len(vs))
	for _, v := range vs {
		opts = append(opts, VariationOption{
			ID:                     v.ID,
			TextDescriptionOfCount: v.TextDescriptionOfCount,
			Price:                  v.Price.StringFixed(2),
		})
	}
	web.Respond(w, http.StatusOK, VariationsResponse{Success: true, Variations: opts})
}

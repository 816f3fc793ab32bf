package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/auth"
	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/", h.checkout)    // POST  /api/v1/orders
		r.Get("/", h.listMine)     // GET   /api/v1/orders?status=created
		r.Get("/{id}", h.getOrder) // GET   /api/v1/orders/{id}

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/all", h.listAll)                // GET   /api/v1/orders/all?user_id=&status=&paid=
			r.Patch("/{id}/status", h.updateStatus) // PATCH /api/v1/orders/{id}/status
			r.Patch("/{id}/paid", h.setPaid)        // PATCH /api/v1/orders/{id}/paid
		})
	})
}

// orderView adds the computed total to an order.
type orderView struct {
	*Order
	Total string `json:"total"`
}

func view(o *Order) orderView { return orderView{Order: o, Total: o.Total().StringFixed(2)} }

func views(orders []*Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, view(o))
	}
	return out
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	o, err := h.service.Checkout(r.Context(), p.UserID, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, view(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	if !p.Staff && o.UserID != p.UserID {
		web.Error(w, database.ErrNotFound)
		return
	}
	web.Respond(w, http.StatusOK, view(o))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	f := Filter{UserID: &p.UserID, Status: Status(r.URL.Query().Get("status"))}
	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, views(orders))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, views(orders))
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Status: Status(q.Get("status"))}
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("invalid user_id: %w", web.ErrBadRequest)
		}
		f.UserID = &id
	}
	if v := q.Get("paid"); v != "" {
		paid, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid paid flag: %w", web.ErrBadRequest)
		}
		f.Paid = &paid
	}
	return f, nil
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, view(o))
}

func (h *Handler) setPaid(w http.ResponseWriter, r *http.Request) {
	var req PaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	o, err := h.service.SetPaid(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, view(o))
}

package collections

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/auth"
	"github.com/teashop/backend/internal/platform/web"
)

// Handler exposes cart and wishlist HTTP endpoints. The owner is the
// authenticated user, or the anonymous session key when there is none.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addToCart)
		r.Patch("/items/{id}", h.updateCartItem)
		r.Delete("/items/{id}", h.removeCartItem)
		r.With(staffOnly).Put("/{id}/owner", h.setCartOwner)
	})
	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Get("/", h.getWishlist)
		r.Post("/items", h.addToWishlist)
		r.Delete("/items/{id}", h.removeWishlistItem)
		r.With(staffOnly).Put("/{id}/owner", h.setWishlistOwner)
	})
	r.With(auth.RequireUser).Post("/api/v1/collections/merge", h.merge)
}

// ownerOf prefers the authenticated user. Otherwise the client's session key is
// taken as is; whoever presents a key owns that session's collections.
func ownerOf(r *http.Request) Owner {
	if p, ok := auth.FromContext(r.Context()); ok {
		return UserOwner(p.UserID)
	}
	return SessionOwner(auth.SessionKey(r))
}

// MergeOnLogin adopts the request's session cart and wishlist for userID. It is
// installed as an auth.LoginHook.
func (h *Handler) MergeOnLogin(r *http.Request, userID uuid.UUID) error {
	return h.service.MergeSessionIntoUser(r.Context(), auth.SessionKey(r), userID)
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	if err := h.service.MergeSessionIntoUser(r.Context(), auth.SessionKey(r), p.UserID); err != nil {
		web.Error(w, err)
		return
	}
	h.getCart(w, r)
}

// ── cart ─────────────────────────────────────────────────────────────────────

type cartView struct {
	*Cart
	CartSummary
}

func (h *Handler) respondCart(w http.ResponseWriter, status int, c *Cart, err error) {
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, status, cartView{Cart: c, CartSummary: c.Summary()})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), ownerOf(r))
	h.respondCart(w, http.StatusOK, c, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.ClearCart(r.Context(), ownerOf(r))
	h.respondCart(w, http.StatusOK, c, err)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	c, err := h.service.AddToCart(r.Context(), ownerOf(r), req)
	h.respondCart(w, http.StatusCreated, c, err)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	c, err := h.service.UpdateCartItem(r.Context(), ownerOf(r), chi.URLParam(r, "id"), req)
	h.respondCart(w, http.StatusOK, c, err)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.RemoveCartItem(r.Context(), ownerOf(r), chi.URLParam(r, "id"))
	h.respondCart(w, http.StatusOK, c, err)
}

func (h *Handler) setCartOwner(w http.ResponseWriter, r *http.Request) {
	var owner Owner
	if err := json.NewDecoder(r.Body).Decode(&owner); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	c, err := h.service.SetCartOwner(r.Context(), chi.URLParam(r, "id"), owner)
	h.respondCart(w, http.StatusOK, c, err)
}

// ── wishlist ─────────────────────────────────────────────────────────────────

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	wl, err := h.service.GetWishlist(r.Context(), ownerOf(r))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, wl)
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req WishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	wl, err := h.service.AddToWishlist(r.Context(), ownerOf(r), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, wl)
}

func (h *Handler) removeWishlistItem(w http.ResponseWriter, r *http.Request) {
	wl, err := h.service.RemoveWishlistItem(r.Context(), ownerOf(r), chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, wl)
}

func (h *Handler) setWishlistOwner(w http.ResponseWriter, r *http.Request) {
	var owner Owner
	if err := json.NewDecoder(r.Body).Decode(&owner); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	wl, err := h.service.SetWishlistOwner(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, wl)
}

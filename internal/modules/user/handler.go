package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teashop/backend/internal/platform/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public sign-up route and the staff-only user routes.
func (h *Handler) RegisterRoutes(router *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	router.Post("/api/v1/users/register", h.registerUser)
	router.Group(func(r chi.Router) {
		r.Use(staffOnly)
		r.Get("/api/v1/users/{id}", h.getUser)
		r.Patch("/api/v1/users/{id}/staff", h.setStaff)
	})
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	// staff accounts are only granted by other staff
	req.IsStaff = false

	user, err := h.service.RegisterUser(r.Context(), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, user)
}

func (h *Handler) setStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsStaff bool `json:"is_staff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	if err := h.service.SetStaff(r.Context(), chi.URLParam(r, "id"), req.IsStaff); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package reference

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teashop/backend/internal/platform/web"
)

// Handler exposes the staff CRUD screens for lookup records.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/reference/{kind}", func(r chi.Router) {
		r.Use(staffOnly)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.rename)
		r.Delete("/{id}", h.delete)
		r.Get("/{id}/usage", h.usage)
	})
}

func kindParam(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		web.Error(w, err)
		return "", false
	}
	return kind, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), kind)
	if err != nil {
		web.Error(w, err)
		return
	}
	if items == nil {
		items = []*Item{}
	}
	web.Respond(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	item, err := h.service.Create(r.Context(), kind, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, item)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, item)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	item, err := h.service.Rename(r.Context(), kind, chi.URLParam(r, "id"), req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	u, err := h.service.Usage(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]interface{}{"usage": u, "total": u.Total()})
}

package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teashop/backend/internal/platform/web"
)

// LoginHook runs after a successful login, e.g. to adopt the caller's anonymous
// session data. Hook errors are logged and do not fail the login.
type LoginHook func(r *http.Request, userID uuid.UUID) error

// Handler exposes the login endpoint.
type Handler struct {
	service Service
	tokens  *Tokens
	hooks   []LoginHook
}

func NewHandler(service Service, tokens *Tokens, hooks ...LoginHook) *Handler {
	return &Handler{service: service, tokens: tokens, hooks: hooks}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/auth/login", h.login)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Respond(w, http.StatusBadRequest, web.ErrorBody{Error: err.Error()})
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		web.Respond(w, http.StatusUnauthorized, web.ErrorBody{Error: err.Error()})
		return
	}
	if err != nil {
		web.Error(w, err)
		return
	}
	if p, err := h.tokens.Parse(token); err == nil {
		for _, hook := range h.hooks {
			if err := hook(r, p.UserID); err != nil {
				log.Printf("login hook for user %s: %v", p.UserID, err)
			}
		}
	}
	web.Respond(w, http.StatusOK, map[string]string{"token": token})
}

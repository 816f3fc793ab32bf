package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/teashop/backend/internal/platform/web"
)

type ctxKey int

const principalKey ctxKey = iota

// SessionHeader and SessionCookie carry the anonymous browser session key.
const (
	SessionHeader = "X-Session-Key"
	SessionCookie = "session_key"
)

// FromContext returns the principal attached by Authenticate.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Authenticate parses an optional bearer token. Requests without a token pass
// through anonymously; a bad token is rejected.
func Authenticate(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				web.Respond(w, http.StatusUnauthorized, web.ErrorBody{Error: "authorization header must be a bearer token"})
				return
			}
			p, err := tokens.Parse(raw)
			if err != nil {
				web.Respond(w, http.StatusUnauthorized, web.ErrorBody{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			web.Respond(w, http.StatusUnauthorized, web.ErrorBody{Error: "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff only admits staff principals.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			web.Respond(w, http.StatusUnauthorized, web.ErrorBody{Error: "authentication required"})
			return
		}
		if !p.Staff {
			web.Respond(w, http.StatusForbidden, web.ErrorBody{Error: "staff access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionKey returns the anonymous session key sent with the request, if any.
func SessionKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(SessionHeader)); key != "" {
		return key
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teashop/backend/internal/modules/user"
	"github.com/teashop/backend/internal/platform/database"
)

type stubUsers struct {
	byEmail map[string]*user.User
}

func (s *stubUsers) CreateUser(context.Context, *user.User) error { return nil }

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (s *stubUsers) GetUserByID(context.Context, string) (*user.User, error) {
	return nil, database.ErrNotFound
}

func (s *stubUsers) SetStaff(context.Context, string, bool) error { return nil }

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret")
	id := uuid.New()

	raw, err := tokens.Issue(id, true)
	require.NoError(t, err)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, id, p.UserID)
	assert.True(t, p.Staff)

	_, err = NewTokens("other-secret").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("test-secret")
	tokens.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	raw, err := tokens.Issue(uuid.New(), false)
	require.NoError(t, err)

	_, err = NewTokens("test-secret").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin(t *testing.T) {
	hash, err := user.HashPassword("correct-horse")
	require.NoError(t, err)
	u := &user.User{ID: uuid.New(), Email: "staff@example.com", PasswordHash: hash, IsStaff: true}
	tokens := NewTokens("test-secret")
	svc := NewService(&stubUsers{byEmail: map[string]*user.User{u.Email: u}}, tokens)

	raw, err := svc.Login(context.Background(), "Staff@Example.com", "correct-horse")
	require.NoError(t, err)
	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	_, err = svc.Login(context.Background(), u.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequireStaff(t *testing.T) {
	tokens := NewTokens("test-secret")
	r := chi.NewRouter()
	r.Use(Authenticate(tokens))
	r.With(RequireStaff).Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	staff, _ := tokens.Issue(uuid.New(), true)
	customer, _ := tokens.Issue(uuid.New(), false)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"customer", "Bearer " + customer, http.StatusForbidden},
		{"staff", "Bearer " + staff, http.StatusOK},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSessionKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", SessionKey(req))

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-key"})
	assert.Equal(t, "cookie-key", SessionKey(req))

	req.Header.Set(SessionHeader, "header-key")
	assert.Equal(t, "header-key", SessionKey(req))
}

func TestHandler_LoginRunsHooks(t *testing.T) {
	hash, err := user.HashPassword("correct-horse")
	require.NoError(t, err)
	u := &user.User{ID: uuid.New(), Email: "buyer@example.com", PasswordHash: hash}
	tokens := NewTokens("test-secret")
	svc := NewService(&stubUsers{byEmail: map[string]*user.User{u.Email: u}}, tokens)

	var merged uuid.UUID
	var session string
	hook := func(r *http.Request, userID uuid.UUID) error {
		merged, session = userID, SessionKey(r)
		return nil
	}
	router := chi.NewRouter()
	NewHandler(svc, tokens, hook).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"buyer@example.com","password":"correct-horse"}`))
	req.Header.Set(SessionHeader, "anon-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, merged)
	assert.Equal(t, "anon-123", session)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"buyer@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

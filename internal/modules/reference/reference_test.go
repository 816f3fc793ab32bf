package reference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

type memRepo struct {
	items map[uuid.UUID]*Item
	usage map[uuid.UUID]Usage
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[uuid.UUID]*Item{}, usage: map[uuid.UUID]Usage{}}
}

func uniqueNames(kind Kind) bool {
	return kind != KindTeaCategory && kind != KindAccessoryType
}

func (m *memRepo) Create(_ context.Context, item *Item) error {
	if uniqueNames(item.Kind) {
		for _, it := range m.items {
			if it.Kind == item.Kind && it.Name == item.Name {
				return &validation.UniquenessError{Entity: item.Kind.Entity(), Fields: []string{"name"}}
			}
		}
	}
	m.items[item.ID] = item
	return nil
}

func (m *memRepo) Get(_ context.Context, kind Kind, id uuid.UUID) (*Item, error) {
	it, ok := m.items[id]
	if !ok || it.Kind != kind {
		return nil, database.ErrNotFound
	}
	return it, nil
}

func (m *memRepo) List(_ context.Context, kind Kind) ([]*Item, error) {
	var out []*Item
	for _, it := range m.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memRepo) Rename(ctx context.Context, kind Kind, id uuid.UUID, name string) error {
	it, err := m.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	it.Name = name
	return nil
}

func (m *memRepo) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	if _, err := m.Get(ctx, kind, id); err != nil {
		return err
	}
	if (kind == KindCountry || kind == KindManufacturer) && m.usage[id].Products > 0 {
		return &validation.ProtectedError{Entity: kind.Entity()}
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo) Usage(_ context.Context, _ Kind, id uuid.UUID) (Usage, error) {
	return m.usage[id], nil
}

func TestService_CreateAndRename(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	kenya, err := svc.Create(ctx, KindCountry, NameRequest{Name: "  Кения "})
	require.NoError(t, err)
	assert.Equal(t, "Кения", kenya.Name)

	_, err = svc.Create(ctx, KindCountry, NameRequest{Name: "Кения"})
	var ue *validation.UniquenessError
	assert.True(t, errors.As(err, &ue))

	// tea categories may repeat
	_, err = svc.Create(ctx, KindTeaCategory, NameRequest{Name: "Улун"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, KindTeaCategory, NameRequest{Name: "Улун"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, KindAroma, NameRequest{Name: ""})
	var re *validation.RangeError
	assert.True(t, errors.As(err, &re))

	renamed, err := svc.Rename(ctx, KindCountry, kenya.ID.String(), NameRequest{Name: "Эфиопия"})
	require.NoError(t, err)
	assert.Equal(t, "Эфиопия", renamed.Name)

	_, err = svc.Get(ctx, KindCountry, "not-a-uuid")
	assert.ErrorIs(t, err, web.ErrBadRequest)
}

func TestService_DeleteProtected(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, KindManufacturer, NameRequest{Name: "Greenfield"})
	require.NoError(t, err)
	repo.usage[m.ID] = Usage{Products: 2}

	err = svc.Delete(ctx, KindManufacturer, m.ID.String())
	var pe *validation.ProtectedError
	assert.True(t, errors.As(err, &pe))

	u, err := svc.Usage(ctx, KindManufacturer, m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, u.Total())
}

func TestHandler_Routes(t *testing.T) {
	svc := NewService(newMemRepo())
	router := chi.NewRouter()
	passthrough := func(next http.Handler) http.Handler { return next }
	NewHandler(svc).RegisterRoutes(router, passthrough)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reference/aromas/",
		strings.NewReader(`{"name":"Цитрусовый"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference/aromas/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []Item
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "Цитрусовый", items[0].Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference/planets/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/reference/aromas/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

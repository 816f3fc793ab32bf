package user

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

type fakeRepo struct {
	users map[uuid.UUID]*User
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: map[uuid.UUID]*User{}} }

func (f *fakeRepo) CreateUser(_ context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return &validation.UniquenessError{Entity: "user", Fields: []string{"email"}}
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if u, ok := f.users[uid]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeRepo) SetStaff(_ context.Context, id string, staff bool) error {
	u, err := f.GetUserByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.IsStaff = staff
	return nil
}

func TestRegisterUser(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.RegisterUser(ctx, RegisterRequest{Email: " Ann@Example.com ", Password: "s3cret-pass", FirstName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))

	_, err = svc.RegisterUser(ctx, RegisterRequest{Email: "ann@example.com", Password: "another-pass"})
	var ue *validation.UniquenessError
	assert.True(t, errors.As(err, &ue))

	_, err = svc.RegisterUser(ctx, RegisterRequest{Email: "not-an-email", Password: "short"})
	var re *validation.RangeError
	require.True(t, errors.As(err, &re))
	assert.ElementsMatch(t, []string{"email", "password"}, re.Fields)
}

func TestSetStaff(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.RegisterUser(ctx, RegisterRequest{Email: "staff@example.com", Password: "long-enough"})
	require.NoError(t, err)
	require.NoError(t, svc.SetStaff(ctx, u.ID.String(), true))

	got, err := svc.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.True(t, got.IsStaff)

	assert.ErrorIs(t, svc.SetStaff(ctx, uuid.NewString(), true), database.ErrNotFound)
}

func TestSetStaff_MalformedID(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	for _, id := range []string{"", "42", "not-a-uuid"} {
		err := svc.SetStaff(ctx, id, true)
		require.ErrorIs(t, err, web.ErrBadRequest, id)
		assert.Equal(t, http.StatusBadRequest, web.StatusFor(err), id)

		_, err = svc.GetUser(ctx, id)
		assert.ErrorIs(t, err, web.ErrBadRequest, id)
	}
}

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/web"
)

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsStaff:      req.IsStaff,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid user id %q: %w", id, web.ErrBadRequest)
	}
	return nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) SetStaff(ctx context.Context, id string, staff bool) error {
	if err := validID(id); err != nil {
		return err
	}
	return s.repo.SetStaff(ctx, id, staff)
}

package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/teashop/backend/internal/modules/user"
	"github.com/teashop/backend/internal/platform/database"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type service struct {
	userRepo user.Repository
	tokens   *Tokens
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, tokens *Tokens) Service {
	return &service{userRepo: userRepo, tokens: tokens}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID, u.IsStaff)
}

package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/web"
)

// Service manages lookup records.
type Service interface {
	Create(ctx context.Context, kind Kind, req NameRequest) (*Item, error)
	Get(ctx context.Context, kind Kind, id string) (*Item, error)
	List(ctx context.Context, kind Kind) ([]*Item, error)
	Rename(ctx context.Context, kind Kind, id string, req NameRequest) (*Item, error)
	Delete(ctx context.Context, kind Kind, id string) error
	Usage(ctx context.Context, kind Kind, id string) (Usage, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", id, web.ErrBadRequest)
	}
	return uid, nil
}

func (s *service) Create(ctx context.Context, kind Kind, req NameRequest) (*Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	item := &Item{ID: uuid.New(), Kind: kind, Name: req.Name}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, kind, uid)
}

func (s *service) List(ctx context.Context, kind Kind) ([]*Item, error) {
	return s.repo.List(ctx, kind)
}

func (s *service) Rename(ctx context.Context, kind Kind, id string, req NameRequest) (*Item, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, kind, uid, req.Name); err != nil {
		return nil, err
	}
	return &Item{ID: uid, Kind: kind, Name: req.Name}, nil
}

func (s *service) Delete(ctx context.Context, kind Kind, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, kind, uid)
}

func (s *service) Usage(ctx context.Context, kind Kind, id string) (Usage, error) {
	uid, err := parseID(id)
	if err != nil {
		return Usage{}, err
	}
	if _, err := s.repo.Get(ctx, kind, uid); err != nil {
		return Usage{}, err
	}
	return s.repo.Usage(ctx, kind, uid)
}

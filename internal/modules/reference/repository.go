package reference

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines lookup table storage.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, kind Kind, id uuid.UUID) (*Item, error)
	List(ctx context.Context, kind Kind) ([]*Item, error)
	Rename(ctx context.Context, kind Kind, id uuid.UUID, name string) error
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	Usage(ctx context.Context, kind Kind, id uuid.UUID) (Usage, error)
}

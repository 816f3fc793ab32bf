package order

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/modules/user"
	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", web.ErrConflict)
	ErrUnavailable       = fmt.Errorf("variation is not available: %w", web.ErrConflict)
	ErrOutOfStock        = fmt.Errorf("insufficient stock: %w", web.ErrConflict)
)

// Service defines the order management business logic.
type Service interface {
	// Checkout places an order for userID, reserving stock for every line.
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus advances an order along the status workflow.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)

	SetPaid(ctx context.Context, id string, req PaidRequest) (*Order, error)
}

// Users resolves the ordering user for contact defaults.
type Users interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

type service struct {
	repo  Repository
	users Users
}

// NewService creates a new order service.
func NewService(repo Repository, users Users) Service {
	return &service{repo: repo, users: users}
}

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusCreated:    {StatusProcessing, StatusCanceled},
	StatusProcessing: {StatusShipped, StatusCanceled},
	StatusShipped:    {StatusDelivered, StatusCanceled},
	StatusDelivered:  {},
	StatusCanceled:   {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reserve prices each item from the locked variation rows and checks stock. It
// returns the stock left per variation once the items are taken.
func Reserve(items []*Item, stock map[uuid.UUID]Stock) (map[uuid.UUID]int, error) {
	left := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		s, ok := stock[it.VariationID]
		if !ok {
			return nil, fmt.Errorf("variation %s: %w", it.VariationID, database.ErrNotFound)
		}
		if !s.Available {
			return nil, fmt.Errorf("variation %s: %w", it.VariationID, ErrUnavailable)
		}
		remaining, seen := left[it.VariationID]
		if !seen {
			remaining = s.Stock
		}
		if it.Quantity > remaining {
			return nil, fmt.Errorf("variation %s: %d requested, %d left: %w",
				it.VariationID, it.Quantity, remaining, ErrOutOfStock)
		}
		left[it.VariationID] = remaining - it.Quantity
		it.Price = s.Price
	}
	return left, nil
}

// mergeLines folds repeated variations into one item each, ordered by variation
// id so concurrent checkouts lock rows in the same order.
func mergeLines(orderID uuid.UUID, lines []Line) []*Item {
	byVariation := map[uuid.UUID]*Item{}
	var items []*Item
	for _, l := range lines {
		if it, ok := byVariation[l.VariationID]; ok {
			it.Quantity += l.Quantity
			continue
		}
		it := &Item{ID: uuid.New(), OrderID: orderID, VariationID: l.VariationID, Quantity: l.Quantity}
		byVariation[l.VariationID] = it
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VariationID.String() < items[j].VariationID.String()
	})
	return items
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*Order, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	for i, l := range req.Items {
		if l.VariationID == uuid.Nil {
			return nil, &validation.RangeError{
				Fields: []string{"variation_id"},
				Msg:    fmt.Sprintf("item %d: variation_id is required", i),
			}
		}
	}

	u, err := s.users.GetUserByID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("load ordering user: %w", err)
	}
	c := req.Contact
	if strings.TrimSpace(c.FirstName) == "" {
		c.FirstName = u.FirstName
	}
	if strings.TrimSpace(c.LastName) == "" {
		c.LastName = u.LastName
	}
	if strings.TrimSpace(c.Email) == "" {
		c.Email = u.Email
	}
	var missing []string
	for name, v := range map[string]string{"first_name": c.FirstName, "last_name": c.LastName} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &validation.RangeError{Fields: missing, Msg: "required"}
	}

	o := &Order{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
		Status:    StatusCreated,
	}
	o.Items = mergeLines(o.ID, req.Items)

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid order id %q: %w", id, web.ErrBadRequest)
	}
	return s.repo.GetOrder(ctx, uid)
}

func (s *service) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return nil, err
		}
	}
	return s.repo.ListOrders(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := ParseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, next) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", o.Status, next, ErrInvalidTransition)
	}
	if err := s.repo.UpdateStatus(ctx, o.ID, o.Status, next); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, o.ID)
}

func (s *service) SetPaid(ctx context.Context, id string, req PaidRequest) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPaid(ctx, o.ID, req.Paid); err != nil {
		return nil, err
	}
	o.Paid = req.Paid
	return o, nil
}

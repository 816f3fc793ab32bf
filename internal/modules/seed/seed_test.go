package seed

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teashop/backend/internal/modules/catalog"
	"github.com/teashop/backend/internal/modules/order"
	"github.com/teashop/backend/internal/modules/reference"
	"github.com/teashop/backend/internal/platform/database"
)

func generate(seed int64) *Dataset {
	return Generate(rand.New(rand.NewSource(seed)), DefaultCounts())
}

func TestGenerate_Deterministic(t *testing.T) {
	a, b := generate(42), generate(42)

	require.Len(t, b.Products, len(a.Products))
	for i := range a.Products {
		assert.Equal(t, a.Products[i].ID, b.Products[i].ID)
		assert.Equal(t, a.Products[i].Name, b.Products[i].Name)
	}
	require.Len(t, b.Users, len(a.Users))
	for i := range a.Users {
		assert.Equal(t, a.Users[i].Email, b.Users[i].Email)
	}
	require.Len(t, b.Orders, len(a.Orders))

	c := generate(7)
	assert.NotEqual(t, a.Products[0].ID, c.Products[0].ID)
}

func TestGenerate_Counts(t *testing.T) {
	counts := DefaultCounts()
	ds := generate(1)

	assert.Len(t, ds.Users, counts.Users)
	assert.Len(t, ds.Products, counts.Products)
	assert.Len(t, ds.Carts, counts.Users)
	assert.Len(t, ds.Wishlists, counts.Users)
	assert.LessOrEqual(t, len(ds.Orders), counts.Orders)

	perKind := map[reference.Kind]int{}
	for _, it := range ds.References {
		perKind[it.Kind]++
	}
	assert.Equal(t, counts.Countries, perKind[reference.KindCountry])
	assert.Equal(t, counts.Manufacturers, perKind[reference.KindManufacturer])
	for _, u := range ds.Users {
		assert.True(t, strings.HasSuffix(u.Email, "@"+EmailDomain), u.Email)
	}
}

func TestGenerate_ReferenceNamesUnique(t *testing.T) {
	ds := generate(3)
	seen := map[string]bool{}
	for _, it := range ds.References {
		key := string(it.Kind) + "/" + it.Name
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
}

func TestGenerate_ProductAttributes(t *testing.T) {
	ds := Generate(rand.New(rand.NewSource(11)), Counts{Users: 1, Products: 60, Orders: 0, Countries: 3, Manufacturers: 3})
	for _, p := range ds.Products {
		require.NotNil(t, p.Attributes, p.Name)
		assert.Equal(t, p.Type, p.Attributes.Kind())
		require.NoError(t, p.Attributes.Validate())

		if c, ok := p.Attributes.(*catalog.CoffeeAttributes); ok {
			require.NotNil(t, c.ArabicaPercent)
			require.NotNil(t, c.RobustaPercent)
			require.NotNil(t, c.LibericaPercent)
			assert.Equal(t, 100, *c.ArabicaPercent+*c.RobustaPercent+*c.LibericaPercent)
		}

		require.NotEmpty(t, p.Variations)
		descriptions := map[string]bool{}
		for _, v := range p.Variations {
			assert.Equal(t, p.ID, v.ProductID)
			assert.False(t, descriptions[v.TextDescriptionOfCount], v.TextDescriptionOfCount)
			descriptions[v.TextDescriptionOfCount] = true
			require.NoError(t, v.Validate())
		}
	}
}

func TestGenerate_CollectionsDistinct(t *testing.T) {
	ds := generate(5)
	for _, c := range ds.Carts {
		require.True(t, c.Owner.IsUser())
		seen := map[uuid.UUID]bool{}
		for _, it := range c.Items {
			assert.False(t, seen[it.VariationID])
			seen[it.VariationID] = true
			assert.GreaterOrEqual(t, it.Quantity, 1)
		}
	}
	for _, w := range ds.Wishlists {
		seen := map[uuid.UUID]bool{}
		for _, it := range w.Items {
			assert.False(t, seen[it.ProductID])
			seen[it.ProductID] = true
		}
	}
}

func TestGenerate_OrdersFitStock(t *testing.T) {
	ds := generate(9)
	variations := map[uuid.UUID]*catalog.Variation{}
	for _, p := range ds.Products {
		for _, v := range p.Variations {
			variations[v.ID] = v
		}
	}
	used := map[uuid.UUID]int{}
	for _, o := range ds.Orders {
		require.NotEmpty(t, o.Items)
		_, err := order.ParseStatus(string(o.Status))
		require.NoError(t, err)
		for _, it := range o.Items {
			v, ok := variations[it.VariationID]
			require.True(t, ok)
			assert.True(t, v.Price.Equal(it.Price))
			used[v.ID] += it.Quantity
		}
	}
	for id, n := range used {
		assert.LessOrEqual(t, n, variations[id].Stock)
	}
}

func TestUniqueNames_FallsBackToSuffix(t *testing.T) {
	names := uniqueNames(3, func() string { return "Кения" })
	assert.Equal(t, []string{"Кения", "Кения 2", "Кения 3"}, names)
}

type refRepo struct {
	reference.Repository
	stored  map[reference.Kind][]*reference.Item
	created []*reference.Item
}

func (r *refRepo) List(_ context.Context, kind reference.Kind) ([]*reference.Item, error) {
	return r.stored[kind], nil
}

func (r *refRepo) Create(_ context.Context, it *reference.Item) error {
	r.created = append(r.created, it)
	return nil
}

func TestLoader_ReusesExistingReferences(t *testing.T) {
	existing := uuid.New()
	repo := &refRepo{stored: map[reference.Kind][]*reference.Item{
		reference.KindCountry: {{ID: existing, Kind: reference.KindCountry, Name: "Кения"}},
	}}
	l := &Loader{References: repo}

	generated := uuid.New()
	items := []*reference.Item{
		{ID: generated, Kind: reference.KindCountry, Name: "Кения"},
		{ID: uuid.New(), Kind: reference.KindCountry, Name: "Перу"},
	}
	remap, err := l.loadReferences(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, existing, remap[generated])
	assert.Equal(t, existing, items[0].ID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Перу", repo.created[0].Name)

	p := &catalog.Product{CountryID: generated, Attributes: &catalog.TeaAttributes{AromaIDs: []uuid.UUID{generated}}}
	rebind(p, remap)
	assert.Equal(t, existing, p.CountryID)
	assert.Equal(t, existing, p.Attributes.(*catalog.TeaAttributes).AromaIDs[0])
}

type transition struct{ from, to order.Status }

type orderRepo struct {
	order.Repository
	created     []order.Status
	transitions []transition
	paid        int
}

func (r *orderRepo) CreateOrder(_ context.Context, o *order.Order) error {
	r.created = append(r.created, o.Status)
	return nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, _ uuid.UUID, from, to order.Status) error {
	if !order.CanTransition(from, to) {
		return order.ErrInvalidTransition
	}
	r.transitions = append(r.transitions, transition{from, to})
	return nil
}

func (r *orderRepo) SetPaid(context.Context, uuid.UUID, bool) error {
	r.paid++
	return nil
}

func TestLoader_WalksOrderStatus(t *testing.T) {
	repo := &orderRepo{}
	l := &Loader{Orders: repo}
	orders := []*order.Order{
		{ID: uuid.New(), Status: order.StatusDelivered, Paid: true},
		{ID: uuid.New(), Status: order.StatusCanceled},
		{ID: uuid.New(), Status: order.StatusCreated},
	}
	require.NoError(t, l.loadOrders(context.Background(), orders))

	assert.Equal(t, []order.Status{order.StatusCreated, order.StatusCreated, order.StatusCreated}, repo.created)
	assert.Equal(t, []transition{
		{order.StatusCreated, order.StatusProcessing},
		{order.StatusProcessing, order.StatusShipped},
		{order.StatusShipped, order.StatusDelivered},
		{order.StatusCreated, order.StatusCanceled},
	}, repo.transitions)
	assert.Equal(t, 1, repo.paid)
	assert.Equal(t, order.StatusDelivered, orders[0].Status)
	assert.True(t, orders[0].Paid)
}

func TestLoader_ClearRunsFirst(t *testing.T) {
	var cleared bool
	l := &Loader{
		References: &refRepo{},
		Orders:     &orderRepo{},
		Clear: func(context.Context) error {
			cleared = true
			return database.ErrNotFound
		},
	}
	err := l.Load(context.Background(), &Dataset{}, true)
	assert.True(t, cleared)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

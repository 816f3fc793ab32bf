// Package seed builds and loads a demo data set for the shop.
package seed

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teashop/backend/internal/modules/catalog"
	"github.com/teashop/backend/internal/modules/collections"
	"github.com/teashop/backend/internal/modules/order"
	"github.com/teashop/backend/internal/modules/reference"
	"github.com/teashop/backend/internal/modules/user"
)

// EmailDomain marks seeded accounts so a cleared run can remove them.
const EmailDomain = "seed.teashop.test"

// DefaultPassword is set on every seeded account.
const DefaultPassword = "test1234"

// Counts sizes a generated data set.
type Counts struct {
	Users         int
	Products      int
	Orders        int
	Countries     int
	Manufacturers int
}

func DefaultCounts() Counts {
	return Counts{Users: 10, Products: 20, Orders: 15, Countries: 8, Manufacturers: 6}
}

// Dataset is a consistent graph of shop records ready to be persisted.
type Dataset struct {
	References []*reference.Item
	Users      []*user.User
	Products   []*catalog.Product
	Carts      []*collections.Cart
	Wishlists  []*collections.Wishlist
	Orders     []*order.Order
}

var (
	teaCategories  = []string{"Зеленый чай", "Черный чай", "Травяной чай", "Пуэр", "Белый чай", "Улун"}
	accessoryTypes = []string{"Чашки и кружки", "Чайники", "Кофемолки", "Турки", "Заварники"}
	aromas         = []string{"Цитрусовый", "Шоколадный", "Ванильный", "Жасминовый", "Ореховый"}
	additives      = []string{"Сахар", "Молоко", "Корица", "Имбирь", "Мед"}

	firstNames = []string{"Иван", "Анна", "Мария", "Олег", "Дарья", "Павел", "Елена", "Сергей", "Ольга", "Никита"}
	lastNames  = []string{"Смирнов", "Иванова", "Кузнецов", "Попова", "Соколов", "Лебедева", "Козлов", "Новикова"}

	coffeeNames    = []string{"Арабика", "Бразильский", "Эспрессо смесь"}
	teaNames       = []string{"Зеленый жасминовый чай", "Черный цейлонский чай", "Пуэр"}
	accessoryNames = []string{"Керамическая турка", "Стеклянный заварочный чайник", "Френч-пресс"}

	coffeeTypes = []catalog.CoffeeType{catalog.CoffeeCapsules, catalog.CoffeeGround, catalog.CoffeeBeans}
	roasts      = []catalog.Roast{catalog.RoastLight, catalog.RoastMedium, catalog.RoastDark}
	teaTypes    = []catalog.TeaType{catalog.TeaBagged, catalog.TeaLoose}

	weights = []int{100, 250, 500, 1000}
	pieces  = []int{1, 5, 10, 20, 50}

	orderStatuses = []order.Status{
		order.StatusCreated, order.StatusProcessing, order.StatusShipped,
		order.StatusDelivered, order.StatusCanceled,
	}
)

type generator struct {
	rng *rand.Rand
	ds  *Dataset
	ref map[reference.Kind][]*reference.Item
}

// Generate builds a data set from rng alone; the same seed yields the same data.
func Generate(rng *rand.Rand, counts Counts) *Dataset {
	g := &generator{rng: rng, ds: &Dataset{}, ref: map[reference.Kind][]*reference.Item{}}
	g.references(counts)
	g.users(counts.Users)
	g.products(counts.Products)
	g.carts()
	g.wishlists()
	g.orders(counts.Orders)
	return g.ds
}

// id draws a UUID from rng so identifiers are reproducible too.
func (g *generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		panic(fmt.Sprintf("seed: %v", err))
	}
	return id
}

func (g *generator) addRefs(kind reference.Kind, names []string) {
	for _, name := range names {
		it := &reference.Item{ID: g.id(), Kind: kind, Name: name}
		g.ref[kind] = append(g.ref[kind], it)
		g.ds.References = append(g.ds.References, it)
	}
}

func (g *generator) references(c Counts) {
	g.addRefs(reference.KindCountry, uniqueNames(max(c.Countries, 1), func() string { return chainWord(g.rng) }))
	g.addRefs(reference.KindManufacturer, uniqueNames(max(c.Manufacturers, 1), func() string { return manufacturerName(g.rng) }))
	g.addRefs(reference.KindTeaCategory, teaCategories)
	g.addRefs(reference.KindAccessoryType, accessoryTypes)
	g.addRefs(reference.KindAroma, aromas)
	g.addRefs(reference.KindAdditive, additives)
}

func (g *generator) pickRef(kind reference.Kind) uuid.UUID {
	items := g.ref[kind]
	return items[g.rng.Intn(len(items))].ID
}

// sampleRefs picks between lo and hi distinct items of kind.
func (g *generator) sampleRefs(kind reference.Kind, lo, hi int) []uuid.UUID {
	items := g.ref[kind]
	n := lo + g.rng.Intn(hi-lo+1)
	if n > len(items) {
		n = len(items)
	}
	ids := make([]uuid.UUID, 0, n)
	for _, i := range g.rng.Perm(len(items))[:n] {
		ids = append(ids, items[i].ID)
	}
	return ids
}

func (g *generator) users(n int) {
	for i := 0; i < n; i++ {
		g.ds.Users = append(g.ds.Users, &user.User{
			ID:        g.id(),
			Email:     fmt.Sprintf("buyer%d.%d@%s", i+1, 10+g.rng.Intn(90), EmailDomain),
			FirstName: firstNames[g.rng.Intn(len(firstNames))],
			LastName:  lastNames[g.rng.Intn(len(lastNames))],
		})
	}
}

// money returns a price in [lo, hi] with two decimal places.
func (g *generator) money(lo, hi int) decimal.Decimal {
	cents := lo*100 + g.rng.Intn((hi-lo)*100+1)
	return decimal.New(int64(cents), -2)
}

func (g *generator) products(n int) {
	types := []catalog.ProductType{catalog.TypeTea, catalog.TypeCoffee, catalog.TypeAccessory}
	for i := 0; i < n; i++ {
		p := &catalog.Product{
			ID:             g.id(),
			Description:    "Описание товара " + chainWord(g.rng),
			ManufacturerID: g.pickRef(reference.KindManufacturer),
			CountryID:      g.pickRef(reference.KindCountry),
			Type:           types[g.rng.Intn(len(types))],
			Available:      true,
		}
		var attrs catalog.Attributes
		switch p.Type {
		case catalog.TypeCoffee:
			p.Name = coffeeNames[g.rng.Intn(len(coffeeNames))] + " " + chainWord(g.rng)
			attrs = g.coffee()
		case catalog.TypeTea:
			p.Name = teaNames[g.rng.Intn(len(teaNames))] + " " + chainWord(g.rng)
			attrs = &catalog.TeaAttributes{
				TeaType:     teaTypes[g.rng.Intn(len(teaTypes))],
				CategoryID:  g.pickRef(reference.KindTeaCategory),
				AromaIDs:    g.sampleRefs(reference.KindAroma, 1, 3),
				AdditiveIDs: g.sampleRefs(reference.KindAdditive, 0, 2),
			}
		default:
			p.Name = accessoryNames[g.rng.Intn(len(accessoryNames))]
			attrs = &catalog.AccessoryAttributes{
				AccessoryTypeID: g.pickRef(reference.KindAccessoryType),
				Volume:          decimal.NewNullDecimal(decimal.New(int64(50+g.rng.Intn(151)), -2)),
			}
		}
		// generated attributes always match the product type
		if err := p.Attach(attrs); err != nil {
			panic(fmt.Sprintf("seed: %v", err))
		}
		p.Variations = g.variations(p.ID)
		g.ds.Products = append(g.ds.Products, p)
	}
}

// coffee splits 100% between the three varietals.
func (g *generator) coffee() *catalog.CoffeeAttributes {
	arabica := g.rng.Intn(101)
	robusta := g.rng.Intn(101 - arabica)
	liberica := 100 - arabica - robusta
	return &catalog.CoffeeAttributes{
		CoffeeType:      coffeeTypes[g.rng.Intn(len(coffeeTypes))],
		Roast:           roasts[g.rng.Intn(len(roasts))],
		QGrading:        decimal.NewNullDecimal(g.money(70, 90)),
		ArabicaPercent:  &arabica,
		RobustaPercent:  &robusta,
		LibericaPercent: &liberica,
		AromaIDs:        g.sampleRefs(reference.KindAroma, 1, 3),
		AdditiveIDs:     g.sampleRefs(reference.KindAdditive, 0, 2),
	}
}

// variations creates 1-3 variations with distinct (pieces, weight) pairs, so the
// descriptions are unique within the product.
func (g *generator) variations(productID uuid.UUID) []*catalog.Variation {
	type pair struct{ pieces, weight int }
	used := map[pair]bool{}
	var out []*catalog.Variation
	for n := 1 + g.rng.Intn(3); len(out) < n; {
		pr := pair{pieces[g.rng.Intn(len(pieces))], weights[g.rng.Intn(len(weights))]}
		if used[pr] {
			continue
		}
		used[pr] = true
		out = append(out, &catalog.Variation{
			ID:                     g.id(),
			ProductID:              productID,
			Price:                  g.money(100, 2000),
			Weight:                 pr.weight,
			Pieces:                 pr.pieces,
			TextDescriptionOfCount: fmt.Sprintf("%d шт по %d гр", pr.pieces, pr.weight),
			Stock:                  g.rng.Intn(101),
			Available:              true,
		})
	}
	return out
}

func (g *generator) allVariations() []*catalog.Variation {
	var vs []*catalog.Variation
	for _, p := range g.ds.Products {
		vs = append(vs, p.Variations...)
	}
	return vs
}

func (g *generator) carts() {
	vs := g.allVariations()
	if len(vs) == 0 {
		return
	}
	for _, u := range g.ds.Users {
		c := &collections.Cart{ID: g.id(), Owner: collections.UserOwner(u.ID)}
		n := min(1+g.rng.Intn(5), len(vs))
		for _, i := range g.rng.Perm(len(vs))[:n] {
			c.Items = append(c.Items, &collections.CartItem{
				ID:          g.id(),
				CartID:      c.ID,
				VariationID: vs[i].ID,
				ProductID:   vs[i].ProductID,
				Price:       vs[i].Price,
				Quantity:    1 + g.rng.Intn(3),
			})
		}
		g.ds.Carts = append(g.ds.Carts, c)
	}
}

func (g *generator) wishlists() {
	products := g.ds.Products
	if len(products) == 0 {
		return
	}
	for _, u := range g.ds.Users {
		w := &collections.Wishlist{ID: g.id(), Owner: collections.UserOwner(u.ID)}
		n := min(1+g.rng.Intn(5), len(products))
		for _, i := range g.rng.Perm(len(products))[:n] {
			w.Items = append(w.Items, &collections.WishlistItem{
				ID:          g.id(),
				WishlistID:  w.ID,
				ProductID:   products[i].ID,
				ProductName: products[i].Name,
			})
		}
		g.ds.Wishlists = append(g.ds.Wishlists, w)
	}
}

// orders draws items only from stock still left after earlier orders, so the
// whole set can be checked out in sequence.
func (g *generator) orders(n int) {
	if len(g.ds.Users) == 0 {
		return
	}
	vs := g.allVariations()
	left := make(map[uuid.UUID]int, len(vs))
	for _, v := range vs {
		left[v.ID] = v.Stock
	}
	for i := 0; i < n; i++ {
		u := g.ds.Users[g.rng.Intn(len(g.ds.Users))]
		o := &order.Order{
			ID:        g.id(),
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Phone:     fmt.Sprintf("+7 9%02d %03d-%02d-%02d", g.rng.Intn(100), g.rng.Intn(1000), g.rng.Intn(100), g.rng.Intn(100)),
			Paid:      g.rng.Intn(2) == 0,
			Status:    orderStatuses[g.rng.Intn(len(orderStatuses))],
		}
		want := 1 + g.rng.Intn(5)
		for _, idx := range g.rng.Perm(len(vs)) {
			if len(o.Items) == want {
				break
			}
			v := vs[idx]
			if left[v.ID] == 0 {
				continue
			}
			qty := min(1+g.rng.Intn(3), left[v.ID])
			left[v.ID] -= qty
			o.Items = append(o.Items, &order.Item{
				ID:          g.id(),
				OrderID:     o.ID,
				VariationID: v.ID,
				Price:       v.Price,
				Quantity:    qty,
			})
		}
		if len(o.Items) == 0 {
			continue
		}
		g.ds.Orders = append(g.ds.Orders, o)
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/teashop/backend/internal/config"
	"github.com/teashop/backend/internal/modules/seed"
	"github.com/teashop/backend/internal/platform/database"
)

func main() {
	counts := seed.DefaultCounts()
	flag.IntVar(&counts.Users, "users", counts.Users, "number of buyer accounts")
	flag.IntVar(&counts.Products, "products", counts.Products, "number of products")
	flag.IntVar(&counts.Orders, "orders", counts.Orders, "number of orders")
	flag.IntVar(&counts.Countries, "countries", counts.Countries, "number of countries")
	flag.IntVar(&counts.Manufacturers, "manufacturers", counts.Manufacturers, "number of manufacturers")
	clearFirst := flag.Bool("clear", false, "truncate shop tables and remove seeded users first")
	seedValue := flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}

	if *seedValue == 0 {
		*seedValue = time.Now().UnixNano()
	}
	log.Printf("seed: generating with seed %d", *seedValue)
	ds := seed.Generate(rand.New(rand.NewSource(*seedValue)), counts)

	if err := seed.NewLoader(db).Load(ctx, ds, *clearFirst); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: done, accounts use password %q", seed.DefaultPassword)
}

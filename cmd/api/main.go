package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teashop/backend/internal/config"
	"github.com/teashop/backend/internal/modules/auth"
	"github.com/teashop/backend/internal/modules/catalog"
	"github.com/teashop/backend/internal/modules/collections"
	"github.com/teashop/backend/internal/modules/order"
	"github.com/teashop/backend/internal/modules/reference"
	"github.com/teashop/backend/internal/modules/user"
	"github.com/teashop/backend/internal/platform/database"
)

func main() {
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

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	tokens := auth.NewTokens(cfg.JWTSecret)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(auth.Authenticate(tokens))

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router, auth.RequireStaff)

	collectionsRepo := collections.NewPostgresRepository(db)
	collectionsService := collections.NewService(collectionsRepo)
	collectionsHandler := collections.NewHandler(collectionsService)

	authService := auth.NewService(userRepo, tokens)
	auth.NewHandler(authService, tokens, collectionsHandler.MergeOnLogin).RegisterRoutes(router)

	// ── Catalog ─────────────────────────────────────────────
	referenceRepo := reference.NewPostgresRepository(db)
	referenceService := reference.NewService(referenceRepo)
	reference.NewHandler(referenceService).RegisterRoutes(router, auth.RequireStaff)

	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogService).RegisterRoutes(router, auth.RequireStaff)

	// ── Cart & Wishlist ─────────────────────────────────────
	collectionsHandler.RegisterRoutes(router, auth.RequireStaff)

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, userRepo)
	order.NewHandler(orderService).RegisterRoutes(router, auth.RequireStaff)

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		fmt.Printf("Teashop API server starting on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server stopped")
}

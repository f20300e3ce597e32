package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/seed"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.Load()
	logger := logging.New("storefront-seed", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, &logger))
	users := usersvc.New(userrepo.NewPostgres(pool, &logger))

	if err := seed.Apply(ctx, products, users, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}
}

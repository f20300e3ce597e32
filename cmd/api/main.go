package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/migrate"
	"storefront/internal/mongostore"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.Load()
	logger := logging.New("storefront-api", cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	version, err := migrate.Apply(ctx, dbpool)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Uint("schema_version", version).Msg("schema up to date")

	serverMetrics := metrics.NewServerMetrics()
	ready := []httpserver.ReadinessCheck{{Name: "postgres", Check: dbpool.Ping}}

	cartStore, closeStore, storeCheck := openCartStore(ctx, cfg, dbpool, logger)
	defer closeStore()
	if storeCheck != nil {
		ready = append(ready, *storeCheck)
	}

	productRepo := productrepo.NewPostgres(dbpool, &logger)
	userRepo := userrepo.NewPostgres(dbpool, &logger)
	orderRepo := orderrepo.NewPostgres(dbpool, &logger)

	cartService := cartsvc.New(cartStore,
		cartsvc.WithLogger(logger.With().Str("component", "cart").Logger()),
		cartsvc.WithConflictRetries(cfg.CartConflictRetries),
		cartsvc.WithEvents(serverMetrics),
	)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	if cfg.CartMaxAge > 0 {
		logger.Info().Dur("max_age", cfg.CartMaxAge).Dur("interval", cfg.CartSweepInterval).Msg("stale cart sweeper enabled")
		go cartService.SweepEvery(sweepCtx, cfg.CartSweepInterval, cfg.CartMaxAge)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CartSvc:     cartService,
		ProductSvc:  productsvc.New(productRepo),
		UserSvc:     usersvc.New(userRepo),
		OrderSvc:    ordersvc.New(orderRepo, userRepo, &logger),
		Metrics:     serverMetrics,
		Ready:       ready,
		CORSOrigins: cfg.CORSOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}
	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}

// openCartStore picks the cart backend named by CART_STORE.
func openCartStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (cartrepo.Repository, func(), *httpserver.ReadinessCheck) {
	switch cfg.CartStore {
	case config.CartStoreMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to mongo")
		}
		store := cartrepo.NewMongo(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ensure cart indexes")
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("cart store: mongo")
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return store, closeFn, &httpserver.ReadinessCheck{Name: "mongo", Check: pingMongo(client)}
	case config.CartStoreMemory:
		logger.Warn().Msg("cart store: memory, carts are lost on restart")
		return cartrepo.NewMemory(), func() {}, nil
	case config.CartStorePostgres:
		logger.Info().Msg("cart store: postgres")
		return cartrepo.NewPostgres(pool), func() {}, nil
	default:
		logger.Fatal().Str("cart_store", cfg.CartStore).Msg("unknown CART_STORE")
		return nil, nil, nil
	}
}

func pingMongo(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/metrics"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

// CartService is the cart engine as seen by the request layer.
type CartService interface {
	GetBySession(ctx context.Context, sessionKey string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userKey int64) (*domain.Cart, error)
	CreateOrGet(ctx context.Context, userKey *int64, sessionKey *string) (*domain.Cart, error)
	IssueSession(ctx context.Context) (*domain.Cart, error)
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, item domain.LineItem) (*domain.Cart, error)
	SetQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) (*domain.Cart, error)
	Transfer(ctx context.Context, sessionKey string, userKey int64) (*domain.Cart, error)
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	GetByCustomID(ctx context.Context, customID string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, id int64, in productsvc.Input) (*domain.Product, error)
	UpdateByCustomID(ctx context.Context, customID string, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCustomID(ctx context.Context, customID string) error
}

type UserService interface {
	Create(ctx context.Context, in usersvc.Input) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, in usersvc.Input) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	FindByName(ctx context.Context, name string) (*domain.User, error)
	Login(ctx context.Context, name, password string) (*domain.User, error)
}

type OrderService interface {
	Create(ctx context.Context, in ordersvc.Input) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Order, error)
	Update(ctx context.Context, id int64, in ordersvc.Input) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

// Deps lists what the router needs. Nil services leave their routes out.
type Deps struct {
	CartSvc     CartService
	ProductSvc  ProductService
	UserSvc     UserService
	OrderSvc    OrderService
	Metrics     *metrics.ServerMetrics
	Ready       []ReadinessCheck
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	api := router.Group("/api/v1")
	if deps.CartSvc != nil {
		registerCartRoutes(api.Group("/cart"), deps.CartSvc)
	}
	if deps.ProductSvc != nil {
		registerProductRoutes(api.Group("/products"), deps.ProductSvc)
	}
	if deps.UserSvc != nil {
		registerUserRoutes(api.Group("/users"), deps.UserSvc)
	}
	if deps.OrderSvc != nil {
		registerOrderRoutes(api.Group("/pedidos"), deps.OrderSvc)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

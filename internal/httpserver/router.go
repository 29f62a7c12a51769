package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type authService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*authsvc.Session, error)
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	TokenTTLSeconds() int
}

type userService interface {
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, in usersvc.ProfileInput) (*domain.User, error)
	Addresses(ctx context.Context, userID int64) ([]domain.Address, error)
	CreateAddress(ctx context.Context, userID int64, in usersvc.AddressInput) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, id int64, in usersvc.AddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, id int64) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, in categorysvc.CreateInput) (*domain.Category, error)
}

type productService interface {
	List(ctx context.Context, in productsvc.ListInput) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in productsvc.UpdateInput) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, quantity int) (*domain.Product, error)
}

type cartService interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, in cartsvc.AddItemInput) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error)
	Clear(ctx context.Context, userID int64) error
}

type orderService interface {
	List(ctx context.Context, userID int64) ([]domain.Order, error)
	Get(ctx context.Context, userID, orderID int64) (*domain.Order, error)
	Place(ctx context.Context, userID int64, in ordersvc.PlaceInput) (*domain.Order, error)
}

// Metrics is the instrumentation hook; *metrics.Registry satisfies it.
type Metrics interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}

// Deps holds the services behind the API. Metrics is optional.
type Deps struct {
	AuthSvc     authService
	UserSvc     userService
	CategorySvc categoryService
	ProductSvc  productService
	CartSvc     cartService
	OrderSvc    orderService
	Metrics     Metrics
	// CORSOrigins lists allowed origins; empty or "*" allows all.
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.AuthSvc == nil:
		return errors.New("auth service is required")
	case d.UserSvc == nil:
		return errors.New("user service is required")
	case d.CategorySvc == nil:
		return errors.New("category service is required")
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logDiscard()
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api/v1")

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)

	api.GET("/categories", h.listCategories)
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)

	authed := api.Group("", authMiddleware(deps.AuthSvc))
	authed.GET("/users/me", h.me)
	authed.PUT("/users/me", h.updateMe)
	authed.GET("/users/me/addresses", h.listAddresses)
	authed.POST("/users/me/addresses", h.createAddress)
	authed.PUT("/users/me/addresses/:id", h.updateAddress)
	authed.DELETE("/users/me/addresses/:id", h.deleteAddress)

	authed.POST("/categories", h.createCategory)
	authed.POST("/products", h.createProduct)
	authed.PUT("/products/:id", h.updateProduct)
	authed.DELETE("/products/:id", h.deleteProduct)
	authed.PUT("/products/:id/stock", h.setStock)

	authed.GET("/cart", h.getCart)
	authed.POST("/cart/items", h.addCartItem)
	authed.PUT("/cart/items/:itemId", h.updateCartItem)
	authed.DELETE("/cart/items/:itemId", h.removeCartItem)
	authed.DELETE("/cart", h.clearCart)

	authed.GET("/orders", h.listOrders)
	authed.GET("/orders/:id", h.getOrder)
	authed.POST("/orders", h.placeOrder)
	authed.POST("/checkout", h.placeOrder)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

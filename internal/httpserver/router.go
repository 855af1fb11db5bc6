package httpserver

import (
	"context"
	"errors"
	"log"

	"shopfront/internal/domain"
	authsvc "shopfront/internal/service/auth"
	productsvc "shopfront/internal/service/product"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps groups the services the router needs.
type Deps struct {
	AuthSvc    AuthService
	ProductSvc ProductService
	CartSvc    CartService
	OrderSvc   OrderService
}

type AuthService interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	UserFromToken(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

type ProductService interface {
	List(ctx context.Context, p productsvc.ListParams) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	SetImage(ctx context.Context, id, url string) (*domain.Product, error)
}

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type OrderService interface {
	Checkout(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetForUser(ctx context.Context, userID, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.ProductSvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	router.POST("/auth/signup", signupHandler(deps.AuthSvc))
	router.POST("/auth/login", loginHandler(deps.AuthSvc))

	authed := router.Group("", requireUser(deps.AuthSvc))
	{
		authed.POST("/auth/logout", logoutHandler(deps.AuthSvc))
		authed.GET("/auth/me", meHandler())

		authed.GET("/products", listProductsHandler(deps.ProductSvc))
		authed.GET("/products/:id", getProductHandler(deps.ProductSvc))

		authed.GET("/cart", getCartHandler(deps.CartSvc))
		authed.POST("/cart/add", addToCartHandler(deps.CartSvc))
		authed.POST("/cart/remove/:product_id", removeFromCartHandler(deps.CartSvc))
		authed.POST("/cart/clear", clearCartHandler(deps.CartSvc))

		authed.POST("/orders/checkout", checkoutHandler(deps.OrderSvc))
		authed.GET("/orders", listOrdersHandler(deps.OrderSvc))
		authed.GET("/orders/:id", getOrderHandler(deps.OrderSvc))
	}

	admin := authed.Group("/admin", requireAdmin())
	{
		admin.GET("/orders", adminListOrdersHandler(deps.OrderSvc))
		admin.PUT("/orders/:id/status", adminUpdateStatusHandler(deps.OrderSvc))
		admin.POST("/products", adminCreateProductHandler(deps.ProductSvc))
		admin.PUT("/products/:id", adminUpdateProductHandler(deps.ProductSvc))
		admin.DELETE("/products/:id", adminDeleteProductHandler(deps.ProductSvc))
		admin.POST("/products/:id/upload-image", adminUploadImageHandler(deps.ProductSvc, opts))
	}

	return router, nil
}

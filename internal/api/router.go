package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/api/middleware"
	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/shopper"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	Registry     *shopper.Registry
	JWTService   *auth.JWTService
	Logger       *zap.Logger
	// WebDir, when set, is served as the storefront's static front end.
	WebDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	handlers, authHandlers := cfg.Handlers, cfg.AuthHandlers
	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	api := http.NewServeMux()

	// Catalog
	api.HandleFunc("GET /api/products", handlers.GetProducts)
	api.HandleFunc("GET /api/products/{id}", handlers.GetProduct)
	api.HandleFunc("GET /api/categories", handlers.GetCategories)

	// Cart
	api.HandleFunc("GET /api/cart", handlers.GetCart)
	api.HandleFunc("DELETE /api/cart", handlers.ClearCart)
	api.HandleFunc("POST /api/cart/items", handlers.AddToCart)
	api.HandleFunc("PUT /api/cart/items/{id}", handlers.UpdateCartItem)
	api.HandleFunc("DELETE /api/cart/items/{id}", handlers.RemoveFromCart)

	// Auth
	api.HandleFunc("POST /api/auth/signup", authHandlers.SignUp)
	api.HandleFunc("POST /api/auth/login", authHandlers.Login)
	api.HandleFunc("POST /api/auth/sso", authHandlers.LoginSSO)
	api.HandleFunc("POST /api/auth/logout", authHandlers.Logout)
	api.HandleFunc("POST /api/auth/refresh", authHandlers.Refresh)
	api.HandleFunc("GET /api/auth/me", authHandlers.Me)

	// Profile
	api.Handle("GET /api/profile", requireAuth(http.HandlerFunc(authHandlers.GetProfile)))
	api.Handle("PUT /api/profile", requireAuth(http.HandlerFunc(authHandlers.UpdateProfile)))
	api.Handle("POST /api/profile/picture", requireAuth(http.HandlerFunc(authHandlers.UploadProfilePicture)))

	// Checkout
	api.HandleFunc("POST /api/checkout", handlers.PlaceOrder)
	api.HandleFunc("POST /api/checkout/payment", handlers.CompletePayment)
	api.HandleFunc("DELETE /api/checkout/{ref}", handlers.CancelPayment)

	// Orders
	api.HandleFunc("GET /api/orders/{id}", handlers.GetOrder)
	api.HandleFunc("POST /api/orders/{id}/cancel", handlers.CancelOrder)

	var apiHandler http.Handler = api
	apiHandler = middleware.ShopperMiddleware(cfg.Registry)(apiHandler)
	apiHandler = middleware.OptionalAuthMiddleware(cfg.JWTService)(apiHandler)
	apiHandler = middleware.DeviceMiddleware(apiHandler)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.HandleFunc("GET /healthz", handlers.Health)
	if cfg.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.WebDir)))
	}

	return middleware.Recover(cfg.Logger)(middleware.Logging(cfg.Logger)(mux))
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dveridom/backend/internal/auth"
	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/category"
	"github.com/dveridom/backend/internal/order"
	"github.com/dveridom/backend/internal/request"
)

type RouterDeps struct {
	CatalogService  catalog.Service
	CategoryService category.Service
	OrderService    order.Service
	RequestService  request.Service
	AuthService     auth.Service
	JWTManager      *auth.JWTManager
	Orchestrator    CrawlTrigger
	Cache           *cache.Client
	ProxyBaseURL    string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewRouter собирает все маршруты API. Админские маршруты защищены
// JWT-middleware, публичные дополнительно идут через rate limit.
func NewRouter(deps RouterDeps) (chi.Router, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(RateLimitMiddleware(deps.Cache, deps.RateLimitMax, deps.RateLimitWindow))

	authMw := AuthMiddleware(deps.JWTManager)

	NewDoorHandler(deps.CatalogService).RegisterRoutes(router, authMw)
	NewCategoryHandler(deps.CategoryService).RegisterRoutes(router, authMw)
	NewOrderHandler(deps.OrderService).RegisterRoutes(router, authMw)
	NewRequestHandler(deps.RequestService).RegisterRoutes(router, authMw)
	NewAuthHandler(deps.AuthService).RegisterRoutes(router)
	NewParserHandler(deps.Orchestrator).RegisterRoutes(router, authMw)

	proxyHandler, err := NewProxyImageHandler(deps.ProxyBaseURL)
	if err != nil {
		return nil, err
	}
	proxyHandler.RegisterRoutes(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return router, nil
}

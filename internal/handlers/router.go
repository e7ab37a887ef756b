package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/swiftcart/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// Route group names in mount order. A group with no registrar answers 501 so
// partial deployments fail loudly instead of silently 404ing.
var routeGroupNames = []string{"products", "sales", "cart", "orders", "payment", "me", "admin"}

type routeGroup struct {
	registrar   RouteRegistrar
	middlewares []func(http.Handler) http.Handler
}

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	groups      map[string]*routeGroup
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

func (cfg *routerConfig) group(name string) *routeGroup {
	g, ok := cfg.groups[name]
	if !ok {
		g = &routeGroup{}
		cfg.groups[name] = g
	}
	return g
}

// NewRouter builds the chi router: shared middleware, health probes, an error
// envelope for unmatched routes, and one sub-router per route group.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
		groups: make(map[string]*routeGroup),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers(nil)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/health", cfg.health.Healthz)
	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		for _, name := range routeGroupNames {
			group := cfg.group(name)
			api.Route("/"+name, func(sub chi.Router) {
				for _, mw := range group.middlewares {
					if mw != nil {
						sub.Use(mw)
					}
				}
				if group.registrar != nil {
					group.registrar(sub)
					return
				}
				notImplemented := func(w http.ResponseWriter, req *http.Request) {
					httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
				}
				sub.HandleFunc("/*", notImplemented)
				sub.HandleFunc("/", notImplemented)
				sub.NotFound(notImplemented)
				sub.MethodNotAllowed(notImplemented)
			})
		}
	})

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers behind the health probes.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

func groupRoutes(name string, reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.group(name).registrar = reg
	}
}

// WithProductRoutes mounts the catalog endpoints under /products.
func WithProductRoutes(reg RouteRegistrar) Option { return groupRoutes("products", reg) }

// WithSaleRoutes mounts the sale endpoints under /sales.
func WithSaleRoutes(reg RouteRegistrar) Option { return groupRoutes("sales", reg) }

// WithCartRoutes mounts the cart endpoints under /cart.
func WithCartRoutes(reg RouteRegistrar) Option { return groupRoutes("cart", reg) }

// WithOrderRoutes mounts the order endpoints under /orders.
func WithOrderRoutes(reg RouteRegistrar) Option { return groupRoutes("orders", reg) }

// WithPaymentRoutes mounts the payment endpoints under /payment.
func WithPaymentRoutes(reg RouteRegistrar) Option { return groupRoutes("payment", reg) }

// WithMeRoutes mounts the shopper-scoped endpoints under /me.
func WithMeRoutes(reg RouteRegistrar) Option { return groupRoutes("me", reg) }

// WithAdminRoutes mounts the back-office endpoints under /admin.
func WithAdminRoutes(reg RouteRegistrar) Option { return groupRoutes("admin", reg) }

// WithAdminMiddlewares adds middleware applied only to the /admin group.
func WithAdminMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		group := cfg.group("admin")
		group.middlewares = append(group.middlewares, mw...)
	}
}

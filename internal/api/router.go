package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/msvcdojo/accounts-service/docs"
	"github.com/msvcdojo/accounts-service/internal/api/handler"
	"github.com/msvcdojo/accounts-service/internal/api/middleware"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/http/handlers"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Service ports.AccountService
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handlers.Check
	// JWTSecret enables bearer auth on write routes when non-empty.
	JWTSecret  string
	WriteRoles []string
	Logger     zerolog.Logger
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	// RequestLog enables Echo's access log middleware.
	RequestLog bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if cfg.RequestLog {
		e.Use(echomiddleware.Logger())
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "accounts",
		Subsystem:  "http",
		Registerer: cfg.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Writes are protected only when a secret is configured ---
	var write []echo.MiddlewareFunc
	if cfg.JWTSecret != "" {
		roles := cfg.WriteRoles
		if len(roles) == 0 {
			roles = []string{"admin"}
		}
		write = append(write, middleware.Auth(cfg.JWTSecret), middleware.RBAC(roles...))
	}

	// --- Account routes ---
	h := handler.NewAccountHandler(cfg.Service)

	accounts := e.Group("/accounts")
	accounts.GET("", h.List)
	accounts.POST("", h.Create, write...)
	accounts.GET("/search", h.SearchIndex)
	accounts.GET("/search/findByUsername", h.FindByUsername)
	accounts.GET("/search/findByRole", h.FindByRole)
	accounts.GET("/:id", h.Get)
	accounts.PUT("/:id", h.Update, write...)
	accounts.PATCH("/:id", h.Patch, write...)
	accounts.DELETE("/:id", h.Delete, write...)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

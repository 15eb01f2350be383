package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/rbac-accounts/docs"
	"github.com/99minutos/rbac-accounts/internal/api/handler"
	"github.com/99minutos/rbac-accounts/internal/api/middleware"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/core/service"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Accounts ports.AccountService
	Sessions ports.SessionService
	Tokens   *service.TokenIssuer
	// Pingers are checked by the readiness endpoint, keyed by dependency name.
	Pingers  map[string]ports.Pinger
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "rbac_http",
		Registerer: d.Registry,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Accounts, d.Sessions, d.Tokens)
	accountHandler := handler.NewAccountHandler(d.Accounts, d.Sessions)
	adminHandler := handler.NewAdminHandler(d.Accounts)
	routeHandler := handler.NewRouteHandler(d.Sessions)
	authMiddleware := middleware.Auth(d.Tokens, d.Sessions)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)
	e.GET("/session", authHandler.Session)
	e.GET("/routes/resolve", routeHandler.Resolve)

	// --- Signed-in views ---
	e.GET("/welcome", accountHandler.Welcome, authMiddleware)
	e.POST("/account/password", accountHandler.ChangePassword, authMiddleware)

	// --- Admin views ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.DELETE("/users/:email", adminHandler.DeleteUser)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Pingers)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

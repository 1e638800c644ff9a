package http

import (
	"log/slog"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs from main. Optional fields may be nil.
type Deps struct {
	Config        config.Config
	Users         handlers.UserStore
	Tokens        middlewares.TokenValidator
	Authenticator handlers.Authenticator
	Hasher        handlers.PasswordHasher
	Policy        *middlewares.Policy

	Metrics  *observability.Prom
	Gatherer prometheus.Gatherer

	// login limiter; nil disables it
	LoginLimiter *middlewares.RateLimiter

	// readiness checks keyed by name
	Ready map[string]handlers.Pinger

	// ShuttingDown flips /readyz to 503 while the server drains
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if !deps.Config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(deps.Config.ServiceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Config.MaxBodyBytes))

	// operational endpoints sit outside the access policy

	health := handlers.NewHealthHandler(deps.Ready, deps.ShuttingDown)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	policy := middlewares.DefaultPolicy()
	if deps.Policy != nil {
		policy = *deps.Policy
	}

	var denials middlewares.DenialObserver
	var logins handlers.LoginObserver
	if deps.Metrics != nil {
		denials = deps.Metrics
		logins = deps.Metrics
	}

	authz := middlewares.NewAuthMiddleware(deps.Tokens, policy, denials)
	// authorization runs first so an anonymous write is a 401, not a 415
	api := r.Group("", authz.Authorize(), middlewares.RequireJSON())

	// auth

	authHandler := handlers.NewAuthHandler(deps.Authenticator, log, logins)
	loginChain := []gin.HandlerFunc{}
	if deps.LoginLimiter != nil {
		loginChain = append(loginChain, deps.LoginLimiter.Middleware(middlewares.KeyByIP))
	}
	loginChain = append(loginChain, authHandler.Login)
	api.POST("/auth/login", loginChain...)

	// self-service

	profile := handlers.NewProfileHandler(deps.Users, log)
	api.GET("/user/profile", profile.Get)
	api.PUT("/user/profile", profile.Update)
	api.GET("/user/data", profile.Data)

	// administration

	admin := handlers.NewAdminUsersHandler(deps.Users, deps.Hasher, log)
	adminGroup := api.Group("/admin")
	{
		adminGroup.GET("/dashboard", admin.Dashboard)
		adminGroup.GET("/users", admin.List)
		adminGroup.POST("/users", admin.Create)
		adminGroup.GET("/users/:id", admin.Get)
		adminGroup.PUT("/users/:id", admin.Update)
		adminGroup.DELETE("/users/:id", admin.Delete)
	}

	return r
}

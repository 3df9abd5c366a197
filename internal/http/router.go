package http

import (
	"net/http"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "taskhub-api"

// UserStore is everything the auth, admin and middleware layers need from
// the credential store.
type UserStore interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.UserAdminStore
}

type Deps struct {
	Cfg    config.Config
	Users  UserStore
	Tasks  handlers.TaskStore
	Tokens *auth.Manager
	Hasher *security.Hasher

	// Prom and Gatherer back /metrics. Both default to a fresh registry.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// WindowStore backs the API rate limiter; defaults to process memory.
	WindowStore middlewares.WindowStore

	// Checks are pinged by /readyz.
	Checks map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Prom == nil {
		reg := prometheus.NewRegistry()
		d.Prom = observability.NewProm(reg)
		d.Gatherer = reg
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.WindowStore == nil {
		d.WindowStore = middlewares.NewMemoryWindowStore()
	}

	r := gin.New()

	// middleware
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/health", h.Healthz)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Users, d.Prom)
	limiter := middlewares.NewRateLimiter(d.WindowStore, "api", d.Cfg.RateLimitMax, d.Cfg.RateLimitWindow, d.Prom)
	throttle := middlewares.NewAuthThrottle(d.Cfg.AuthRatePerMin, d.Cfg.AuthRateBurst, d.Prom)

	api := r.Group(d.Cfg.APIBasePath())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	api.Use(middlewares.RequireJSON())

	// auth
	authHandler := handlers.NewAuthHandler(d.Users, d.Users, d.Tokens, d.Hasher, d.Cfg.AllowAdminSignup, d.Prom)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", throttle.Middleware(), authHandler.Register)
	authGroup.POST("/login", throttle.Middleware(), authHandler.Login)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)
	authGroup.PUT("/update-password", authMW.RequireAuth(), authHandler.UpdatePassword)

	// tasks
	tasksHandler := handlers.NewTasksHandler(d.Tasks)

	tasks := api.Group("/tasks", authMW.RequireAuth())
	tasks.GET("", tasksHandler.List)
	tasks.GET("/stats", tasksHandler.Stats)
	tasks.POST("", tasksHandler.Create)
	tasks.GET("/:id", tasksHandler.Get)
	tasks.PUT("/:id", tasksHandler.Update)
	tasks.DELETE("/:id", tasksHandler.Delete)

	// admin
	usersHandler := handlers.NewUsersHandler(d.Users)

	users := api.Group("/users", authMW.RequireAuth(), authMW.RestrictTo(user.RoleAdmin))
	users.GET("", usersHandler.List)
	users.GET("/:id", usersHandler.Get)
	users.PUT("/:id", usersHandler.Update)
	users.DELETE("/:id", usersHandler.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "route_not_found", "Route "+ctx.Request.URL.Path+" not found", nil)
	})

	return r
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var version = "dev"

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.OTELEnabled {
		ctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "taskhub-api",
			Version:     version,
			Env:         cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
			SampleRatio: cfg.OTELSampleRatio,
		})
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	tokens, err := auth.NewManager([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		log.Error("token manager init failed", "err", err)
		os.Exit(1)
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	deps := httpx.Deps{
		Cfg:      cfg,
		Tokens:   tokens,
		Hasher:   hasher,
		Prom:     prom,
		Gatherer: reg,
		Checks:   map[string]handlers.Pinger{},
	}

	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		deps.Users = store.Users()
		deps.Tasks = store.Tasks()
		log.Warn("using in-memory storage, data is lost on restart")

	default:
		if cfg.RunMigrations {
			if err := db.Migrate(cfg.DBURL); err != nil {
				log.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}

		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Tasks = postgres.NewTasksRepo(pool, prom)
		deps.Checks["postgres"] = pool
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()

		deps.WindowStore = rc
		deps.Checks["redis"] = rc
	}

	seedCtx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
	err = db.EnsureAdminUser(seedCtx, deps.Users, hasher, cfg)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// set up routers
	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage, "base_path", cfg.APIBasePath())
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}

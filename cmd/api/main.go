package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/IANDYI/authguard/internal/adapters/bus"
	"github.com/IANDYI/authguard/internal/adapters/cache"
	"github.com/IANDYI/authguard/internal/adapters/events"
	"github.com/IANDYI/authguard/internal/adapters/handler"
	"github.com/IANDYI/authguard/internal/adapters/hasher"
	"github.com/IANDYI/authguard/internal/adapters/lock"
	"github.com/IANDYI/authguard/internal/adapters/middleware"
	"github.com/IANDYI/authguard/internal/adapters/repository"
	"github.com/IANDYI/authguard/internal/adapters/session"
	"github.com/IANDYI/authguard/internal/adapters/token"
	"github.com/IANDYI/authguard/internal/config"
	"github.com/IANDYI/authguard/internal/core/services"
)

func main() {
	cfg := config.Load()

	master, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("authguard: connect to master database: %v", err)
	}
	defer master.Close()

	if err := config.InitDatabase(master); err != nil {
		log.Fatalf("authguard: initialize schema: %v", err)
	}

	// A replica DSN is optional; ForQuery falls back to the master pool
	// when none is configured.
	var replicaPool *sql.DB
	if cfg.DatabaseReplicaURL != "" {
		replicaPool, err = config.ConnectDatabase(cfg.DatabaseReplicaURL, 5, 2*time.Second)
		if err != nil {
			log.Fatalf("authguard: connect to replica database: %v", err)
		}
		defer replicaPool.Close()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	redisCache := cache.New(redisClient)
	redisLock := lock.New(redisClient)
	passwordHasher := hasher.New(hasher.DefaultParams())
	tokens := token.New(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	sessions := session.New(redisCache, redisLock, tokens)

	repository.SetBreakerTuning(cfg.CircuitBreakerMaxRequests, cfg.CircuitBreakerInterval, cfg.CircuitBreakerTimeout)
	gateways := repository.NewFactory(master, replicaPool)
	authenticator := services.NewAuthenticator(gateways)

	eventBus, err := events.New(cfg.RabbitMQURL, cfg.EventQueueName)
	if err != nil {
		log.Fatalf("authguard: initialize event bus: %v", err)
	}

	deps := services.Deps{
		Gateways:      gateways,
		Hasher:        passwordHasher,
		Tokens:        tokens,
		Sessions:      sessions,
		Authenticator: authenticator,
		Events:        eventBus,
	}

	// Two bus instances, split by read/write concern: commands invalidate
	// the read-through cache's epoch on success, queries read through it.
	// Use is called before any Send, as bus.Bus.Use documents.
	commandBus := bus.New()
	commandBus.Use(bus.MetricsMiddleware(), bus.CacheInvalidateMiddleware(redisCache))
	services.RegisterCommandHandlers(commandBus, deps)

	queryBus := bus.New()
	queryBus.Use(bus.MetricsMiddleware(), bus.CacheMiddleware(redisCache))
	services.RegisterQueryHandlers(queryBus, deps)

	rules := services.RouteRules()
	bootstrapper := services.NewBootstrapper(redisCache, redisLock, gateways)
	if err := bootstrapper.Run(context.Background(), rules); err != nil {
		log.Fatalf("authguard: bootstrap permission catalog: %v", err)
	}

	routeTable := middleware.RouteTable{}
	for _, r := range rules {
		routeTable[middleware.RouteKey(r.Method, r.Pattern)] = r
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens, authenticator, routeTable)
	rateLimiter := middleware.NewRateLimiter(cfg.PublicRateLimitPerMinute)

	authHandler := handler.NewAuthHandler(commandBus)
	userHandler := handler.NewUserHandler(commandBus, queryBus)
	rbacHandler := handler.NewRBACHandler(commandBus, queryBus)
	healthHandler := handler.NewHealthHandler(master)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// public registers next wrapped in context-build, rate-limit and auth
	// middleware (auth no-ops for a Public rule but still needs the
	// RequestContext the context middleware attaches).
	public := func(method, pattern string, next http.HandlerFunc) {
		wrapped := authMiddleware.Wrap(method, pattern, next)
		wrapped = rateLimiter.Middleware(wrapped)
		mux.Handle(method+" "+pattern, middleware.ContextMiddleware(wrapped))
	}
	private := func(method, pattern string, next http.HandlerFunc) {
		wrapped := authMiddleware.Wrap(method, pattern, next)
		mux.Handle(method+" "+pattern, middleware.ContextMiddleware(wrapped))
	}

	public("POST", "/public/users", authHandler.Signup)
	public("POST", "/public/auth/login", authHandler.Login)
	public("POST", "/public/auth/refresh", authHandler.Refresh)
	public("POST", "/public/auth/logout", authHandler.Logout)

	private("GET", "/private/users/me", userHandler.Me)
	private("GET", "/private/users/{user_id}", userHandler.Get)
	private("GET", "/private/users", userHandler.List)
	private("PATCH", "/private/users/{user_id}", userHandler.Update)
	private("DELETE", "/private/users/{user_id}", userHandler.Delete)

	private("POST", "/private/rbac/roles", rbacHandler.CreateRole)
	private("GET", "/private/rbac/roles", rbacHandler.ListRoles)
	private("GET", "/private/rbac/roles/{role_id}", rbacHandler.GetRole)
	private("PATCH", "/private/rbac/roles/{role_id}", rbacHandler.UpdateRole)
	private("DELETE", "/private/rbac/roles/{role_id}", rbacHandler.DeleteRole)

	private("POST", "/private/rbac/roles/{role_id}/users/{user_id}", rbacHandler.AssignUserRole)
	private("DELETE", "/private/rbac/roles/{role_id}/users/{user_id}", rbacHandler.RevokeUserRole)

	private("POST", "/private/rbac/roles/{role_id}/permissions/{permission_id}", rbacHandler.GrantPermission)
	private("DELETE", "/private/rbac/roles/{role_id}/permissions/{permission_id}", rbacHandler.RevokePermission)

	private("POST", "/private/rbac/roles/{role_id}/permissions/{permission_id}/fields/{field_id}", rbacHandler.GrantField)
	private("DELETE", "/private/rbac/roles/{role_id}/permissions/{permission_id}/fields/{field_id}", rbacHandler.RevokeField)

	private("GET", "/private/rbac/catalog", rbacHandler.ListPermissions)

	loggedRouter := middleware.MetricsMiddleware(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      loggedRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("authguard: listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("authguard: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("authguard: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("authguard: server forced to shutdown: %v", err)
	}
	log.Println("authguard: exited")
}

// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "academia/docs" // swagger docs
	"academia/internal/bus"
	"academia/internal/cache"
	"academia/internal/config"
	"academia/internal/docstore"
	"academia/internal/engagement"
	"academia/internal/featureflags"
	"academia/internal/membership"
	"academia/internal/middleware"
	"academia/internal/models"
	"academia/internal/notifications"
	"academia/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          docstore.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	bus          *bus.Bus
	hub          *notifications.Hub
	notifier     *notifications.Notifier
	featureFlags *featureflags.Manager

	academyService    *service.AcademyService
	postService       *service.PostService
	commentService    *service.CommentService
	userService       *service.UserService
	membershipService *membership.Service
	engagementService *engagement.Service
}

// openStore opens the document store selected by STORE_DRIVER.
func openStore(cfg *config.Config) (docstore.Store, error) {
	var (
		store docstore.Store
		err   error
	)
	switch cfg.StoreDriver {
	case "postgres":
		store, err = docstore.OpenPostgres(cfg.PostgresDSN(), middleware.Logger)
	case "sqlite":
		store, err = docstore.OpenSQLite(cfg.StorePath, middleware.Logger)
	default:
		store, err = docstore.OpenBadger(docstore.DefaultBadgerConfig(cfg.StorePath))
	}
	if err != nil {
		return nil, err
	}
	return docstore.Instrument(store), nil
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("document store open failed: %w", err)
	}

	// Redis is optional; a failed connection leaves the client nil and the
	// server runs with caching and cross-instance fan-out disabled.
	if cfg.RedisURL != "" {
		cache.InitRedis(cfg.RedisURL)
	}

	return NewServerWithDeps(cfg, store, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the store and Redis.
func NewServerWithDeps(cfg *config.Config, store docstore.Store, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	engagementService := engagement.NewService(store)

	server := &Server{
		config:            cfg,
		store:             store,
		redis:             redisClient,
		promMiddleware:    middleware.InitMetrics("academia-api"),
		bus:               bus.New(),
		hub:               notifications.NewHub(),
		notifier:          notifications.NewNotifier(redisClient),
		featureFlags:      featureflags.NewManager(cfg.FeatureFlags),
		academyService:    service.NewAcademyService(store),
		postService:       service.NewPostService(store),
		commentService:    service.NewCommentService(store, engagementService),
		userService:       service.NewUserService(store, cfg.JWTSecret),
		membershipService: membership.NewService(store),
		engagementService: engagementService,
	}

	// Handlers publish authoritative membership events to the in-process
	// bus. With Redis the event goes through pub/sub so every instance's
	// hub sees it; without Redis the local hub is fed directly.
	server.bus.Subscribe(func(ctx context.Context, event bus.MembershipEvent) {
		if event.Provisional {
			return
		}
		if !server.featureFlags.Enabled("realtime", event.UserID, true) {
			return
		}
		if server.redis != nil {
			if err := server.notifier.PublishMembershipChange(ctx, event); err != nil {
				log.Printf("publish membership event: %v", err)
			}
			return
		}
		data, err := json.Marshal(wsFrame{Type: EventMembershipChanged, Payload: event})
		if err != nil {
			return
		}
		server.hub.BroadcastAll(string(data))
	})

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// OpenTelemetry request spans
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Academia Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public browse routes
	academies := api.Group("/academies")
	academies.Get("/", s.GetAcademies)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	academies.Get("/:id/posts", s.GetAcademyPosts)
	academies.Get("/:id", s.GetAcademy)

	publicPosts := api.Group("/posts")
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/:id", s.GetUserProfile)

	protectedAcademies := protected.Group("/academies")
	protectedAcademies.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_academy"), s.CreateAcademy)
	protectedAcademies.Post("/:id/membership", s.ToggleMembership)
	protectedAcademies.Post("/:id/posts", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	protectedAcademies.Put("/:id", s.UpdateAcademy)
	protectedAcademies.Delete("/:id", s.DeleteAcademy)

	protectedPosts := protected.Group("/posts")
	protectedPosts.Post("/:id/like", s.ToggleLike)
	protectedPosts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	protectedPosts.Delete("/:id/comments/:commentId", s.DeleteComment)
	protectedPosts.Delete("/:id", s.DeletePost)

	// Websocket endpoint (token via query parameter; browsers cannot set headers)
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/", RequireWebSocketUpgrade, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	var probe struct{}
	if err := s.store.Get(ctx, docstore.CollectionAcademies, "__readiness__", &probe); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		storeStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional; caching and fan-out degrade without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// currentUserID returns the authenticated user's ID set by the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Academia API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	// Close the document store
	if err := s.store.Close(); err != nil {
		log.Printf("error closing store: %v", err)
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

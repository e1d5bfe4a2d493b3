// Package server contains the HTTP handlers for the blog's pages and forms.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogicum/internal/bootstrap"
	"blogicum/internal/config"
	"blogicum/internal/media"
	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/repository"
	"blogicum/internal/service"
	"blogicum/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          media.Store
	tokens         *session.Manager
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Media)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}
	if store == nil {
		return nil, errors.New("server requires a media store")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		tokens:         session.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, redisClient),
		promMiddleware: middleware.InitMetrics("blogicum-api"),
	}
	s.postService = service.NewPostService(postRepo, commentRepo, categoryRepo, locationRepo, userRepo, store,
		service.PostServiceOptions{
			PerPage:       cfg.PostsPerPage,
			MaxImageBytes: s.maxImageBytes(),
		})
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.userService = service.NewUserService(userRepo)
	return s, nil
}

func (s *Server) maxImageBytes() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) << 20
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Blogicum",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    int(s.maxImageBytes()) + 1<<20,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: httpCode(fe.Code), Message: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	}
	return models.CodeInternal
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Identity runs before ContextMiddleware so log records carry user_id.
	app.Use(middleware.Identity(s.tokens))
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Blogicum Metrics Dashboard",
	}))

	app.Get("/", s.Index)
	app.Get("/category/:slug/", s.CategoryPosts)

	pages := app.Group("/pages")
	pages.Get("/about/", s.About)
	pages.Get("/rules/", s.Rules)

	auth := app.Group("/auth")
	auth.Get("/registration/", s.RegistrationPage)
	auth.Post("/registration/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "registration"), s.Register)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout/", s.Logout)

	// Specific /profile/edit/ before /profile/:username/
	profile := app.Group("/profile")
	profile.Get("/edit/", middleware.LoginRequired(), s.EditProfilePage)
	profile.Post("/edit/", middleware.LoginRequired(), s.EditProfile)
	profile.Get("/:username/", s.Profile)

	// Specific /posts/create/ before the /posts/:id/ routes
	posts := app.Group("/posts")
	posts.Get("/create/", middleware.LoginRequired(), s.CreatePostPage)
	posts.Post("/create/", middleware.LoginRequired(), s.CreatePost)
	posts.Get("/:id/", s.PostDetail)
	posts.Get("/:id/edit/", middleware.LoginRequired(), s.EditPostPage)
	posts.Post("/:id/edit/", middleware.LoginRequired(), s.EditPost)
	posts.Get("/:id/delete/", middleware.LoginRequired(), s.DeletePostPage)
	posts.Post("/:id/delete/", middleware.LoginRequired(), s.DeletePost)
	posts.Post("/:id/comment/", middleware.LoginRequired(),
		middleware.RateLimit(s.redis, 10, time.Minute, "add_comment"), s.AddComment)
	posts.Get("/:id/edit_comment/:commentId/", middleware.LoginRequired(), s.EditCommentPage)
	posts.Post("/:id/edit_comment/:commentId/", middleware.LoginRequired(), s.EditComment)
	posts.Get("/:id/delete_comment/:commentId/", middleware.LoginRequired(), s.DeleteCommentPage)
	posts.Post("/:id/delete_comment/:commentId/", middleware.LoginRequired(), s.DeleteComment)

	app.Get("/media/*", s.ServeMedia)

	app.Use(s.NotFound)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck probes the database and Redis in parallel.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus, redisStatus := "healthy", "healthy"
	var g errgroup.Group
	g.Go(func() error {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			dbStatus = "unhealthy"
		}
		return nil
	})
	g.Go(func() error {
		if s.redis == nil {
			redisStatus = "unavailable"
			return nil
		}
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
		return nil
	})
	_ = g.Wait()

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"media":    s.store.Backend(),
		},
		"time": time.Now().UTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}

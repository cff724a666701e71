package server

import (
	"errors"
	"log"
	"strings"

	"backend-colatrails/internal/account"
	"backend-colatrails/internal/config"
	"backend-colatrails/internal/db"
	"backend-colatrails/internal/directions"
	"backend-colatrails/internal/library"
	"backend-colatrails/internal/stream"
	"backend-colatrails/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const apiVersion = "1.0"

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Manager
	Library  *library.Service
	Accounts *account.Service
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: corsOrigins(cfg.CORSOrigins)}))
	app.Use(metricsMiddleware())

	hub := stream.NewHub(redisClient)
	var q db.Querier
	if pg != nil {
		q = pg
	}

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       pg,
		Redis:    redisClient,
		Stream:   hub,
		Accounts: account.NewService(q, cfg.JWTSecret, cfg.TokenTTL, cfg.AccountCacheTTL),
		Library:  library.NewService(newLibraryStore(cfg, q, redisClient, hub)),
	}
	s.Tracking = tracking.NewManager(s.Library.Store(), hub, cfg.TrackingTick)

	registerRoutes(s, q != nil)
	return s
}

// Close releases tracking sessions and the stream subscription.
func (s *Server) Close() {
	s.Tracking.Close()
	s.Stream.Close()
}

func registerRoutes(s *Server, haveDB bool) {
	s.App.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running")
	})
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": apiVersion})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := account.JWTMiddleware(s.Accounts)

	api := s.App.Group("/api")
	if haveDB {
		account.RegisterRoutes(api, s.Accounts, jwtMiddleware)
	} else {
		log.Printf("postgres unavailable: account routes disabled")
		api.Use(func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Account service is unavailable.")
		})
	}

	dirs := newDirectionsService(s.Cfg, s.Redis)
	directions.RegisterRoutes(s.App.Group("/directions"), dirs)
	library.RegisterRoutes(s.App.Group("/library"), s.Library, dirs, jwtMiddleware)
	library.RegisterExploreRoutes(s.App.Group("/explore"), s.Library)
	tracking.RegisterRoutes(s.App.Group("/tracking/session"), s.Tracking, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, topicGuard(s.Accounts))
}

// topicGuard requires a token for tracking topics and only lets users
// follow their own session.
func topicGuard(svc *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		topic := c.Params("topic")
		if !strings.HasPrefix(topic, "tracking:") {
			return c.Next()
		}
		userID, err := account.Authenticate(c, svc)
		if err != nil {
			return err
		}
		if tracking.Topic(userID) != topic {
			return fiber.NewError(fiber.StatusForbidden, "You can only follow your own tracking session.")
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Something went wrong."})
}

func corsOrigins(origins string) string {
	if strings.TrimSpace(origins) == "" {
		return "*"
	}
	return origins
}

package server

import (
	"github.com/Rayane-45/Horsly-sub001/internal/auth"
	"github.com/Rayane-45/Horsly-sub001/internal/config"
	"github.com/Rayane-45/Horsly-sub001/internal/db"
	"github.com/Rayane-45/Horsly-sub001/internal/horse"
	"github.com/Rayane-45/Horsly-sub001/internal/session"
	"github.com/Rayane-45/Horsly-sub001/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	// keep the interface nil when no pool is wired, so services can
	// detect a missing database instead of a typed-nil pointer
	var q db.Querier
	if s.DB != nil {
		q = s.DB
	}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, q))
	horse.RegisterRoutes(s.App.Group("/horses"), horse.NewService(q), jwtMiddleware)
	session.RegisterRoutes(s.App.Group("/sessions"), session.NewService(q, s.Stream, s.Cfg.FallbackLat, s.Cfg.FallbackLng), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

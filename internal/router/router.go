package router

import (
	"coursecat-web/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Setup wires the middleware stack and every route group onto the app.
func Setup(app *fiber.App, db *sqlx.DB, redisClient *redis.Client, asynqClient *asynq.Client, cfg *config.Config) {
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    cfg.AppName,
		})
	})

	setupAPIRoutes(app, db, redisClient, asynqClient, cfg)
}

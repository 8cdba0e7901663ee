package router

import (
	"coursecat-web/internal/config"
	"coursecat-web/internal/handler"
	"coursecat-web/internal/middleware"
	"coursecat-web/internal/repository"
	"coursecat-web/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func setupAPIRoutes(app *fiber.App, db *sqlx.DB, redisClient *redis.Client, asynqClient *asynq.Client, cfg *config.Config) {
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg)

	authHandler := handler.NewAuthHandler(authService)
	categoryHandler := handler.NewCategoryHandler(db)
	importHandler := handler.NewImportHandler(db, redisClient, asynqClient, cfg)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	categories := api.Group("/categories", middleware.AuthMiddleware(cfg))
	categories.Get("/", categoryHandler.List)
	categories.Get("/template", categoryHandler.DownloadTemplate)
	categories.Get("/export", categoryHandler.Export)
	categories.Get("/:id", categoryHandler.Get)
	categories.Post("/", categoryHandler.Create)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", middleware.AdminOnly(), categoryHandler.Delete)

	imports := api.Group("/imports", middleware.AuthMiddleware(cfg))
	imports.Post("/upload", importHandler.Upload)
	imports.Get("/", importHandler.List)
	imports.Get("/:id", importHandler.Get)
	imports.Get("/:id/rows", importHandler.Rows)
	imports.Get("/:id/progress", importHandler.Progress)
	imports.Post("/:id/process", importHandler.Process)
	imports.Post("/:id/cancel", importHandler.Cancel)
	imports.Delete("/:id", importHandler.Delete)
}

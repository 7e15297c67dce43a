package server

import (
	"backend-dtg/internal/config"
	"backend-dtg/internal/dataset"
	"backend-dtg/internal/stream"
	"backend-dtg/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	Stream *stream.Hub
}

// NewServer assembles the HTTP surface: trip lifecycle endpoints, replay-data
// introspection, and the WebSocket stream. reload re-reads the dataset
// directory for the reinitialize endpoint and may be nil.
func NewServer(cfg config.Config, engine *tracking.Engine, store *dataset.Store, hub *stream.Hub, reload func() int) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		Stream: hub,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1/dtg")
	tracking.RegisterRoutes(api, engine)
	dataset.RegisterRoutes(api.Group("/csv"), store, cfg.CSVEnabled, reload)
	stream.RegisterRoutes(app.Group("/stream"), hub)

	return s
}

// Package main provides the dno API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/dno/pkg/metrics"
	"github.com/dukex/dno/pkg/services"
	"github.com/dukex/dno/pkg/web"
	"github.com/dukex/dno/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	engine   *workflow.Engine
	metrics  *metrics.Collector
	validate *validator.Validate
	app      *fiber.App
}

func NewAPI(
	logger *slog.Logger,
	engine *workflow.Engine,
	collector *metrics.Collector,
) *API {
	return &API{
		logger:   logger,
		engine:   engine,
		metrics:  collector,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// App builds the fiber application once and returns it on later calls.
func (a *API) App() *fiber.App {
	if a.app != nil {
		return a.app
	}

	handlers := web.NewAPIHandlers(
		services.NewUseCase(a.engine),
		services.NewTask(a.engine),
		services.NewClientAction(a.engine),
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	if a.metrics != nil {
		app.Use(web.MetricsMiddleware(a.metrics))
		app.Get("/metrics", web.MetricsHandler(a.metrics))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("dno API")
	})

	web.RegisterRoutes(app, handlers)

	a.app = app

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Listening", "port", port, "use_cases", a.engine.Registry().Kinds())

	return app.Listen(":" + strconv.Itoa(port))
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.app == nil {
		return nil
	}

	return a.app.ShutdownWithContext(ctx)
}

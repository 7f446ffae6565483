package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the use-case, task and client action endpoints.
func RegisterRoutes(app fiber.Router, handlers *APIHandlers) {
	u := app.Group("/use-cases")
	u.Get("/", handlers.GetUseCases)
	u.Get("/:kind", handlers.GetUseCase)
	u.Post("/:kind", handlers.StartUseCase)

	t := app.Group("/tasks")
	t.Get("/", handlers.GetTasks)
	t.Get("/:id", handlers.GetTask)
	t.Get("/:id/actions", handlers.GetTaskActions)

	a := app.Group("/actions")
	a.Get("/:id", handlers.GetAction)
	a.Post("/:id/running", handlers.SetActionRunning)
	a.Post("/:id/result", handlers.SetActionResult)
	a.Post("/:id/error", handlers.SetActionError)
	a.Delete("/:id", handlers.DeleteAction)

	app.Get("/health", handlers.HealthCheck)
}

// Package web provides HTTP handlers and REST API endpoints for starting use
// cases and resolving the client actions they issue.
package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/dno/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	useCaseService *services.UseCase
	taskService    *services.Task
	actionService  *services.ClientAction
	validator      *validator.Validate
}

func NewAPIHandlers(
	useCaseService *services.UseCase,
	taskService *services.Task,
	actionService *services.ClientAction,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		useCaseService: useCaseService,
		taskService:    taskService,
		actionService:  actionService,
		validator:      validator,
	}
}

func (h *APIHandlers) GetUseCases(c fiber.Ctx) error {
	return c.JSON(h.useCaseService.Kinds())
}

func (h *APIHandlers) GetUseCase(c fiber.Ctx) error {
	descriptor, err := h.useCaseService.Describe(c.Params("kind"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(descriptor)
}

func (h *APIHandlers) StartUseCase(c fiber.Ctx) error {
	var req StartUseCaseRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	snapshot, err := h.useCaseService.Start(c.Context(), services.StartRequest{
		Kind:       c.Params("kind"),
		Attributes: req.Attributes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(StartUseCaseResponse{
		ID:     snapshot.ID,
		Kind:   snapshot.Kind,
		Status: snapshot.Status,
	})
}

func (h *APIHandlers) GetTasks(c fiber.Ctx) error {
	query := ListTasksQuery{
		Status: strings.ToLower(c.Query("status")),
		Kind:   c.Query("kind"),
	}

	if err := h.validator.Struct(query); err != nil {
		return badRequest(c, "Invalid query parameters: "+formatValidationError(err))
	}

	tasks, err := h.taskService.List(c.Context(), services.ListTasksRequest{
		Status: query.Status,
		Kind:   query.Kind,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tasks)
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	task, err := h.taskService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) GetTaskActions(c fiber.Ctx) error {
	actions, err := h.taskService.Actions(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(actions)
}

func (h *APIHandlers) GetAction(c fiber.Ctx) error {
	action, err := h.actionService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) SetActionRunning(c fiber.Ctx) error {
	action, err := h.actionService.SetRunning(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) SetActionResult(c fiber.Ctx) error {
	var req SetResultRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	action, err := h.actionService.SetResult(c.Context(), c.Params("id"), req.Result)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) SetActionError(c fiber.Ctx) error {
	var req SetErrorRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	action, err := h.actionService.SetError(c.Context(), c.Params("id"), req.Error)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) DeleteAction(c fiber.Ctx) error {
	if err := h.actionService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.useCaseService.HealthCheck()

	status := "unhealthy"
	message := "dno API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk {
		status = "healthy"
		message = "dno API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, strings.ToLower(fe.Field())+" failed on '"+fe.Tag()+"'")
	}

	return strings.Join(messages, ", ")
}

package web

import (
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/schema"
	"github.com/dukex/dno/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// ValidationProblem is a problem body listing every offending field.
type ValidationProblem struct {
	*problems.Problem

	Fields []schema.FieldError `json:"fields,omitempty"`
}

// ConflictProblem is a problem body for a transition attempted from the
// wrong status.
type ConflictProblem struct {
	*problems.Problem

	CurrentStatus string `json:"current_status,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsNotFoundError(err):
		return notFound(c, err.Error())

	case services.IsValidationError(err):
		problemType := "validation_error"
		if models.IsConstruction(err) {
			problemType = "construction_error"
		}

		problem := ValidationProblem{
			Problem: problems.NewStatusProblem(400).
				WithInstance(c.Path()).
				WithType(problemType).
				WithDetail(err.Error()),
			Fields: schema.FieldErrors(err),
		}

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsConflictError(err):
		current, _ := models.CurrentStatus(err)

		problem := ConflictProblem{
			Problem: problems.NewStatusProblem(409).
				WithInstance(c.Path()).
				WithType("unexpected_status").
				WithDetail(err.Error()),
			CurrentStatus: current,
		}

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		// Log unexpected errors but don't expose details
		return internalError(c, err)
	}
}

// Package web provides HTTP request and response types for the use-case API.
package web

import "github.com/dukex/dno/pkg/models"

// StartUseCaseRequest represents the request body for starting a use case.
type StartUseCaseRequest struct {
	Attributes map[string]any `json:"attributes"`
}

// StartUseCaseResponse identifies the started instance.
type StartUseCaseResponse struct {
	ID     string               `json:"id"`
	Kind   string               `json:"kind"`
	Status models.UseCaseStatus `json:"status"`
}

// ListTasksQuery holds the query parameters of GET /tasks.
type ListTasksQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending running finished failed"`
	Kind   string `query:"kind"`
}

// SetResultRequest represents the request body resolving a client action.
type SetResultRequest struct {
	Result map[string]any `json:"result" validate:"required"`
}

// SetErrorRequest represents the request body failing a client action.
type SetErrorRequest struct {
	Error map[string]any `json:"error"`
}

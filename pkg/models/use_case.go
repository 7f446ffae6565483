// Package models defines the runtime entities shared by the engine and its boundary.
package models

import "time"

// UseCaseStatus represents the lifecycle state of a use-case instance.
type UseCaseStatus string

const (
	UseCaseStatusPending  UseCaseStatus = "pending"
	UseCaseStatusRunning  UseCaseStatus = "running"
	UseCaseStatusFinished UseCaseStatus = "finished"
	UseCaseStatusFailed   UseCaseStatus = "failed"
)

// IsTerminal reports whether s is finished or failed.
func (s UseCaseStatus) IsTerminal() bool {
	return s == UseCaseStatusFinished || s == UseCaseStatusFailed
}

// ParseUseCaseStatus validates a status coming from outside.
func ParseUseCaseStatus(s string) (UseCaseStatus, bool) {
	switch status := UseCaseStatus(s); status {
	case UseCaseStatusPending, UseCaseStatusRunning, UseCaseStatusFinished, UseCaseStatusFailed:
		return status, true
	default:
		return "", false
	}
}

// ReservedAttributes can never be declared or supplied as use-case attributes.
var ReservedAttributes = []string{"id", "status", "result", "error"}

// IsReservedAttribute reports whether name belongs to ReservedAttributes.
func IsReservedAttribute(name string) bool {
	for _, r := range ReservedAttributes {
		if r == name {
			return true
		}
	}

	return false
}

// UseCaseSnapshot is a point-in-time copy of a use-case instance.
type UseCaseSnapshot struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Status     UseCaseStatus  `json:"status"`
	Attributes map[string]any `json:"attributes"`
	Result     map[string]any `json:"result,omitempty"`
	Error      map[string]any `json:"error,omitempty"`
	Actions    []string       `json:"actions"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// UseCaseDescriptor publishes the declaration of a use-case kind.
type UseCaseDescriptor struct {
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Attributes  any                `json:"attributes"`
	Result      any                `json:"result"`
	Actions     []ActionDescriptor `json:"actions"`
}

// ActionDescriptor publishes the declaration of a client action field.
type ActionDescriptor struct {
	Name   string `json:"name"`
	Args   any    `json:"args"`
	Result any    `json:"result"`
}

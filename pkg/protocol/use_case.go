// Package protocol defines the contracts between the engine and use-case packs.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/schema"
)

// UseCase is one instance of a workflow kind. Run holds the business logic;
// it issues client actions through env and returns the use-case result.
type UseCase interface {
	Run(ctx context.Context, env Env) (map[string]any, error)
}

// RunFunc adapts a plain function to UseCase.
type RunFunc func(ctx context.Context, env Env) (map[string]any, error)

func (f RunFunc) Run(ctx context.Context, env Env) (map[string]any, error) {
	return f(ctx, env)
}

// UseCaseFactory declares a workflow kind and creates its instances.
type UseCaseFactory interface {
	// ID returns the kind name the factory is registered under
	ID() string

	// Name returns the human-readable name for this kind
	Name() string

	// Description returns a description of what this kind does
	Description() string

	// Attributes returns the schema construction arguments must satisfy
	Attributes() schema.Validatable

	// Result returns the schema the value produced by Run must satisfy
	Result() schema.Validatable

	// Actions returns the client action fields the kind may issue
	Actions() []*ActionField

	// Create builds an instance from already validated attributes
	Create(attributes map[string]any) (UseCase, error)
}

// Env is what a running use case sees of the engine.
type Env interface {
	// TaskID returns the id of the running instance
	TaskID() string

	// Attributes returns the validated construction arguments
	Attributes() map[string]any

	// Call validates args, stores a new pending client action and returns it
	Call(ctx context.Context, field *ActionField, args map[string]any) (*models.ClientAction, error)

	// Await blocks until action is resolved and returns its result, or an
	// *models.ActionFailedError when the actor resolved it with an error
	Await(ctx context.Context, action *models.ClientAction) (map[string]any, error)

	Logger() *slog.Logger
}

// Definition is a UseCaseFactory assembled from plain values.
type Definition struct {
	Kind    string
	Title   string
	Summary string
	Attrs   schema.Validatable
	Output  schema.Validatable
	Fields  []*ActionField
	New     func(attributes map[string]any) (UseCase, error)
}

func (d *Definition) ID() string                     { return d.Kind }
func (d *Definition) Description() string            { return d.Summary }
func (d *Definition) Attributes() schema.Validatable { return d.Attrs }
func (d *Definition) Result() schema.Validatable     { return d.Output }
func (d *Definition) Actions() []*ActionField        { return d.Fields }

func (d *Definition) Name() string {
	if d.Title == "" {
		return d.Kind
	}

	return d.Title
}

func (d *Definition) Create(attributes map[string]any) (UseCase, error) {
	return d.New(attributes)
}

// Describe renders the public declaration of a factory.
func Describe(f UseCaseFactory) models.UseCaseDescriptor {
	actions := make([]models.ActionDescriptor, 0, len(f.Actions()))
	for _, field := range f.Actions() {
		actions = append(actions, models.ActionDescriptor{
			Name:   field.Name(),
			Args:   document(field.Args()),
			Result: document(field.Result()),
		})
	}

	return models.UseCaseDescriptor{
		Kind:        f.ID(),
		Name:        f.Name(),
		Description: f.Description(),
		Attributes:  document(f.Attributes()),
		Result:      document(f.Result()),
		Actions:     actions,
	}
}

func document(v schema.Validatable) any {
	if d, ok := v.(schema.Describer); ok {
		return d.Document()
	}

	return nil
}

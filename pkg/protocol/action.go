package protocol

import (
	"context"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/schema"
)

// ActionField is the reusable declaration of one kind of client action.
// Each Call through it produces a new ClientAction.
type ActionField struct {
	name   string
	args   schema.Validatable
	result schema.Validatable
}

// NewActionField declares a client action. Both schemas are mandatory.
func NewActionField(name string, args, result schema.Validatable) (*ActionField, error) {
	if name == "" {
		return nil, &models.DeclarationError{Kind: "ActionField", Field: "name", Reason: "name is required"}
	}

	if args == nil {
		return nil, &models.DeclarationError{Kind: "ActionField", Field: name + ".args", Reason: "args schema is required"}
	}

	if result == nil {
		return nil, &models.DeclarationError{Kind: "ActionField", Field: name + ".result", Reason: "result schema is required"}
	}

	return &ActionField{name: name, args: args, result: result}, nil
}

// MustActionField is like NewActionField but panics on a bad declaration.
func MustActionField(name string, args, result schema.Validatable) *ActionField {
	f, err := NewActionField(name, args, result)
	if err != nil {
		panic(err)
	}

	return f
}

func (f *ActionField) Name() string               { return f.name }
func (f *ActionField) Args() schema.Validatable   { return f.args }
func (f *ActionField) Result() schema.Validatable { return f.result }

// Call issues a new client action from inside a running use case.
func (f *ActionField) Call(ctx context.Context, env Env, args map[string]any) (*models.ClientAction, error) {
	return env.Call(ctx, f, args)
}

// Request issues a client action and waits for its result.
func (f *ActionField) Request(ctx context.Context, env Env, args map[string]any) (map[string]any, error) {
	action, err := f.Call(ctx, env, args)
	if err != nil {
		return nil, err
	}

	return env.Await(ctx, action)
}

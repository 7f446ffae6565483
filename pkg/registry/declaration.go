package registry

import (
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/protocol"
)

type named interface {
	Names() []string
}

// CheckDeclaration rejects factories that cannot be run: a missing kind or
// schema, attributes shadowing the reserved task fields, and unnamed or
// duplicated action fields.
func CheckDeclaration(factory protocol.UseCaseFactory) error {
	if factory == nil {
		return &models.DeclarationError{Kind: "<nil>", Reason: "factory is nil"}
	}

	kind := factory.ID()
	if kind == "" {
		return &models.DeclarationError{Kind: "<unnamed>", Reason: "kind is empty"}
	}

	if factory.Attributes() == nil {
		return &models.DeclarationError{Kind: kind, Reason: "attribute schema is missing"}
	}

	if factory.Result() == nil {
		return &models.DeclarationError{Kind: kind, Reason: "result schema is missing"}
	}

	if n, ok := factory.Attributes().(named); ok {
		for _, name := range n.Names() {
			if models.IsReservedAttribute(name) {
				return &models.DeclarationError{Kind: kind, Field: name, Reason: "attribute name is reserved"}
			}
		}
	}

	seen := make(map[string]bool, len(factory.Actions()))

	for _, field := range factory.Actions() {
		if field == nil || field.Name() == "" {
			return &models.DeclarationError{Kind: kind, Reason: "action field has no name"}
		}

		if seen[field.Name()] {
			return &models.DeclarationError{Kind: kind, Field: field.Name(), Reason: "action field declared twice"}
		}

		seen[field.Name()] = true

		if field.Args() == nil || field.Result() == nil {
			return &models.DeclarationError{Kind: kind, Field: field.Name(), Reason: "action field schemas are missing"}
		}
	}

	return nil
}
